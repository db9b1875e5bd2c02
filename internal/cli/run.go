package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newRunCmd(st *state) *cobra.Command {
	var (
		urls   []string
		files  []string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once",
		Long: `Run downloads (or reads) both datasets, merges them, appends the days
newer than the latest stored one and republishes dataset.js.

Inputs come from the config file unless --url or --file is given.
URLs take precedence over files.

Example:
  casetrack run
  casetrack run --file jh.csv --file nyt.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(urls) > 0 || len(files) > 0 {
				st.cfg.Sources.URLs, st.cfg.Sources.Files = urls, files
			}
			a, err := st.open(true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			result, err := a.Run(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d new records stored (%d merged, %d total) in %s\n",
				result.Written, result.Merged, result.Total, result.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&urls, "url", nil, "CSV URL to download (repeatable)")
	cmd.Flags().StringSliceVar(&files, "file", nil, "local CSV file (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run result as JSON")
	return cmd
}
