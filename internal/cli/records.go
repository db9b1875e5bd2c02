package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newExportCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Export stored records to an xlsx workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.open(false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Export(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}
}

func newPurgeCmd(st *state) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every published artifact",
		Long: `Purge empties the artifact directory or bucket prefix, as done before
tearing down a deployment. Stored records are not touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to purge %s artifacts without --yes", st.cfg.Artifact.Sink)
			}
			a, err := st.open(false)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Purge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d artifacts\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func newSummaryCmd(st *state) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize the stored records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.open(false)
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.ETL.Summary(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), s)
			}
			out := cmd.OutOrStdout()
			if s.Days == 0 {
				fmt.Fprintln(out, "no records stored")
				return nil
			}
			fmt.Fprintf(out, "%d days, %s to %s\n", s.Days, s.First.Format("2006-01-02"), s.Last.Format("2006-01-02"))
			fmt.Fprintf(out, "cases %d, deaths %d, recovered %d\n", s.Cases, s.Deaths, s.Recovered)
			fmt.Fprintf(out, "new cases/day: mean %.1f, median %.1f, max %.0f, last %d\n",
				s.NewCases.Mean, s.NewCases.Median, s.NewCases.Max, s.NewCases.Last)
			fmt.Fprintf(out, "new deaths/day: mean %.1f, median %.1f, max %.0f, last %d\n",
				s.NewDeaths.Mean, s.NewDeaths.Median, s.NewDeaths.Max, s.NewDeaths.Last)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func newLogsCmd(st *state) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List recent pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.open(false)
			if err != nil {
				return err
			}
			defer a.Close()

			logs, err := a.ETL.ListRunLogs(limit)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), logs)
			}
			rows := make([][]string, 0, len(logs))
			for _, l := range logs {
				rows = append(rows, []string{
					l.StartedAt.Local().Format("2006-01-02 15:04:05"),
					l.Status,
					strconv.Itoa(l.Written),
					strconv.Itoa(l.Total),
					l.Error,
				})
			}
			return printTable(cmd.OutOrStdout(), []string{"STARTED", "STATUS", "WRITTEN", "TOTAL", "ERROR"}, rows)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print run logs as JSON")
	return cmd
}
