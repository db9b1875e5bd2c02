package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"casetrack/internal/dashboard"
)

func newServeCmd(st *state) *cobra.Command {
	var (
		addr     string
		schedule bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chart dashboard",
		Long: `Serve renders the chart page and a JSON API over the stored records.
With --schedule the pipeline also runs on the configured cron schedule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = st.cfg.Dashboard.Addr
			}
			a, err := st.open(schedule)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			if schedule {
				if err := a.ETL.StartSchedule(ctx, st.cfg.Schedule); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dashboard on http://%s/\n", addr)
			return dashboard.New(a.ETL, st.log).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&schedule, "schedule", false, "also run the pipeline on the configured schedule")
	return cmd
}

func newMCPCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve pipeline tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.open(false)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.ServeMCP(Version)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "casetrack %s\n", Version)
		},
	}
}
