// Package app wires configuration into a ready-to-run casetrack instance.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"casetrack/internal/artifact"
	"casetrack/internal/config"
	"casetrack/internal/dbclient"
	"casetrack/internal/etl"
	"casetrack/internal/notify"
	"casetrack/internal/secret"
	"casetrack/internal/service"
	"casetrack/internal/storage"
)

// passwordKey is the secret store key holding the repository password.
const passwordKey = "repository.password"

// App holds the open resources of one casetrack process.
type App struct {
	Config *config.Config
	Log    *zap.Logger

	db     *storage.DB
	repo   dbclient.Repository
	sink   etl.Sink
	purger artifact.Purger

	ETL *service.ETLService
}

// New opens the state database and the record repository and builds the
// pipeline service. Close releases everything New opened.
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{Config: cfg, Log: log}

	db, err := storage.New(cfg.State.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	a.db = db

	password, err := resolvePassword(cfg.Repository.PasswordSource)
	if err != nil {
		a.Close()
		return nil, err
	}
	conn := cfg.Repository.RepositoryConnection
	repo, err := dbclient.NewRepository(&conn, password)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open repository: %w", err)
	}
	a.repo = repo

	if err := a.openSink(); err != nil {
		a.Close()
		return nil, err
	}

	notifier, err := newNotifier(cfg.Notify, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.ETL = service.NewETLService(service.Options{
		Repo:     repo,
		Sink:     a.sink,
		Extract:  cfg.Extract(),
		Store:    storage.NewETLStore(db),
		Notifier: notifier,
		Log:      log,
	})
	return a, nil
}

func resolvePassword(source string) (string, error) {
	store, err := secret.Open(source)
	if err != nil {
		return "", err
	}
	pw, err := store.Get(passwordKey)
	if err != nil {
		return "", fmt.Errorf("read repository password: %w", err)
	}
	return string(pw), nil
}

// openSink leaves sink and purger nil for the "none" sink.
func (a *App) openSink() error {
	ac := a.Config.Artifact
	switch ac.Sink {
	case config.SinkFile:
		fs := &artifact.FileSink{Dir: ac.Dir}
		a.sink, a.purger = fs, fs
	case config.SinkS3:
		s3, err := artifact.NewS3Sink(ac.Bucket, ac.Prefix, ac.Region, ac.Endpoint)
		if err != nil {
			return fmt.Errorf("open s3 sink: %w", err)
		}
		a.sink, a.purger = s3, s3
	case config.SinkNone, "":
	default:
		return &etl.ConfigurationError{Reason: fmt.Sprintf("unknown artifact sink %q", ac.Sink)}
	}
	return nil
}

func newNotifier(nc config.Notify, log *zap.Logger) (notify.Notifier, error) {
	if nc.TopicARN == "" {
		return &notify.LogNotifier{Log: log.Named("notify")}, nil
	}
	n, err := notify.NewSNSNotifier(nc.TopicARN, nc.Region, nc.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("open sns notifier: %w", err)
	}
	return n, nil
}

// Run executes the pipeline once and writes the workbook export when one
// is configured.
func (a *App) Run(ctx context.Context) (*etl.RunResult, error) {
	result, err := a.ETL.RunOnce(ctx)
	if err != nil {
		return result, err
	}
	if a.Config.Artifact.XLSX != "" {
		if err := a.Export(ctx, a.Config.Artifact.XLSX); err != nil {
			return result, err
		}
	}
	return result, nil
}

// Export writes every stored record to an xlsx workbook at path.
func (a *App) Export(ctx context.Context, path string) error {
	records, err := a.ETL.Records(ctx)
	if err != nil {
		return fmt.Errorf("read records: %w", err)
	}
	if err := artifact.WriteWorkbook(path, records); err != nil {
		return err
	}
	a.Log.Info("workbook written", zap.String("path", path), zap.Int("rows", len(records)))
	return nil
}

// ErrNoSink is returned by Purge when no artifact sink is configured.
var ErrNoSink = errors.New("no artifact sink configured")

// Purge removes every published artifact.
func (a *App) Purge(ctx context.Context) (int, error) {
	if a.purger == nil {
		return 0, ErrNoSink
	}
	return a.purger.Purge(ctx)
}

// Close stops the service and closes the repository and state database.
func (a *App) Close() error {
	if a.ETL != nil {
		a.ETL.Stop()
	}
	var errs []error
	if a.repo != nil {
		errs = append(errs, a.repo.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
