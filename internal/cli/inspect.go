package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"casetrack/internal/app"
)

func newInspectCmd(st *state) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect [input...]",
		Short: "Show how each input would be classified",
		Long: `Inspect reads each input (a file path or an http(s) URL) and prints its
header, row count and dataset role. Without arguments the configured
inputs are inspected. Nothing is stored or published.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := args
			if len(inputs) == 0 {
				inputs = st.cfg.Extract().Inputs()
			}
			reports, err := app.Inspect(cmd.Context(), inputs)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), reports)
			}

			rows := make([][]string, 0, len(reports))
			for _, r := range reports {
				role := string(r.Role)
				if role == "" {
					role = "unrecognized"
				}
				rows = append(rows, []string{r.Input, role, strconv.Itoa(r.Rows), strings.Join(r.Fields, ",")})
			}
			return printTable(cmd.OutOrStdout(), []string{"INPUT", "ROLE", "ROWS", "FIELDS"}, rows)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print reports as JSON")
	return cmd
}
