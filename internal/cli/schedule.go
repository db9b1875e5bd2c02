package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"casetrack/internal/app"
)

func newScheduleCmd(st *state) *cobra.Command {
	var (
		expr string
		now  bool
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on a cron schedule until interrupted",
		Long: `Schedule runs the pipeline on a cron expression (five fields or a
descriptor such as @daily or @every 6h). The expression defaults to the
"schedule" config key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if expr == "" {
				expr = st.cfg.Schedule
			}
			a, err := st.open(true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			if now {
				if _, err := a.Run(ctx); err != nil {
					st.log.Warn("initial run failed", zap.Error(err))
				}
			}
			if err := a.ETL.StartSchedule(ctx, expr); err != nil {
				return err
			}
			return waitForShutdown(ctx, a)
		},
	}
	cmd.Flags().StringVar(&expr, "cron", "", "cron expression (default from config)")
	cmd.Flags().BoolVar(&now, "now", false, "run once immediately before waiting for the schedule")
	return cmd
}

func newWatchCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-run the pipeline whenever an input file changes",
		Long: `Watch runs the pipeline once, then again each time one of the configured
source files is written or replaced. Bursts of writes are coalesced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(st.cfg.Sources.Files) == 0 {
				return errors.New("watch needs sources.files to be configured")
			}
			st.cfg.Sources.URLs = nil

			a, err := st.open(true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			if _, err := a.Run(ctx); err != nil {
				st.log.Warn("initial run failed", zap.Error(err))
			}
			if err := a.ETL.Watch(ctx, st.cfg.Sources.Files); err != nil {
				return err
			}
			return waitForShutdown(ctx, a)
		},
	}
}

// waitForShutdown blocks until ctx is cancelled, then lets an active run
// finish for a bounded time.
func waitForShutdown(ctx context.Context, a *app.App) error {
	<-ctx.Done()
	a.Log.Info("shutting down")
	a.ETL.Stop()

	waitCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	a.ETL.WaitRunning(waitCtx)
	return nil
}
