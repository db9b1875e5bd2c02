// Package cli implements the casetrack command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"casetrack/internal/app"
	"casetrack/internal/config"
	"casetrack/internal/logging"
)

// Version is set at build time with -ldflags "-X casetrack/internal/cli.Version=...".
var Version = "dev"

// state is shared by every subcommand of one invocation.
type state struct {
	configFile string
	verbose    bool

	cfg *config.Config
	log *zap.Logger
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	st := &state{}

	root := &cobra.Command{
		Use:   "casetrack",
		Short: "casetrack merges daily US COVID-19 datasets and publishes a chart dataset",
		Long: `casetrack downloads the regional (NYT) and aggregate (Johns Hopkins) daily
COVID-19 series, merges them on date, appends new days to a record
repository and publishes dataset.js for the Google Charts page.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return st.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if st.log != nil {
				st.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&st.configFile, "config", "", "config file (default: ./casetrack.yaml or ~/.casetrack/casetrack.yaml)")
	root.PersistentFlags().BoolVarP(&st.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newRunCmd(st),
		newScheduleCmd(st),
		newWatchCmd(st),
		newInspectCmd(st),
		newExportCmd(st),
		newPurgeCmd(st),
		newSummaryCmd(st),
		newLogsCmd(st),
		newServeCmd(st),
		newMCPCmd(st),
		newVersionCmd(),
	)
	return root
}

func (st *state) init() error {
	cfg, err := config.Load(st.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logging.New(logging.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON, Verbose: st.verbose})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if cfg.File != "" {
		log.Debug("config loaded", zap.String("file", cfg.File))
	}
	st.cfg, st.log = cfg, log
	return nil
}

// open builds the app. validate additionally requires pipeline inputs.
func (st *state) open(validate bool) (*app.App, error) {
	if validate {
		if err := st.cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return app.New(st.cfg, st.log)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
