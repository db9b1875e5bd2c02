package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"casetrack/internal/etl"
	"casetrack/internal/notify"
	"casetrack/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// ETL Service: runs the pipeline and keeps its history
// ─────────────────────────────────────────────────────────────

// pipelineKey is the run guard key. There is a single pipeline.
const pipelineKey = "covid-etl"

// debounce is how long file events are coalesced before a run starts.
const debounce = 500 * time.Millisecond

// ErrAlreadyRunning is returned by Run when a run is in progress.
var ErrAlreadyRunning = errors.New("pipeline is already running")

// Options configures an ETLService. Store and Notifier are optional.
type Options struct {
	Repo     etl.Repository
	Sink     etl.Sink
	Extract  etl.Extract
	Store    *storage.ETLStore
	Notifier notify.Notifier
	Log      *zap.Logger
	// Timeout bounds a single run; 0 means 5 minutes.
	Timeout time.Duration
}

// ETLService runs the pipeline on demand, on a cron schedule or when its
// input files change, records every run and reports failures.
type ETLService struct {
	engine   *etl.Engine
	extract  etl.Extract
	store    *storage.ETLStore
	notifier notify.Notifier
	log      *zap.Logger
	timeout  time.Duration
	running  runGuard

	// watcher / cron lifecycle
	mu          sync.Mutex
	watchCancel context.CancelFunc
	watchDone   chan struct{}
	watcher     *fsnotify.Watcher
	cronSched   *cron.Cron
}

// NewETLService creates an ETLService ready for use.
func NewETLService(opts Options) *ETLService {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &ETLService{
		engine:   &etl.Engine{Repo: opts.Repo, Sink: opts.Sink, Log: log},
		extract:  opts.Extract,
		store:    opts.Store,
		notifier: opts.Notifier,
		log:      log.Named("service"),
		timeout:  timeout,
	}
}

// ── Run ────────────────────────────────────────────────────

// RunOnce runs the pipeline on the configured inputs.
func (s *ETLService) RunOnce(ctx context.Context) (*etl.RunResult, error) {
	return s.Run(ctx, s.extract)
}

// Run executes the pipeline on ex synchronously. Only one run may be
// active at a time. The outcome is stored as a run log and failures are
// reported to the notifier; the run error is always returned unchanged.
func (s *ETLService) Run(ctx context.Context, ex etl.Extract) (*etl.RunResult, error) {
	if !s.running.TryLock(pipelineKey) {
		return nil, ErrAlreadyRunning
	}
	defer s.running.Unlock(pipelineKey)

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	result, runErr := s.engine.RunExtract(runCtx, ex)

	s.recordRun(start, result, runErr)
	if runErr != nil {
		s.log.Error("run failed", zap.Error(runErr))
		s.report(ctx, runErr)
		return result, runErr
	}
	s.log.Info("run finished",
		zap.Int("written", result.Written),
		zap.Int("total", result.Total),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (s *ETLService) recordRun(start time.Time, result *etl.RunResult, runErr error) {
	if s.store == nil {
		return
	}
	runLog := &etl.RunLog{
		StartedAt:  start,
		FinishedAt: time.Now(),
		Status:     result.Status,
		Merged:     result.Merged,
		Written:    result.Written,
		Total:      result.Total,
	}
	if runErr != nil {
		runLog.Error = runErr.Error()
	}
	if err := s.store.CreateRunLog(runLog); err != nil {
		s.log.Warn("store run log", zap.Error(err))
	}
}

// report publishes the failure. A notification error is only logged.
func (s *ETLService) report(ctx context.Context, runErr error) {
	if s.notifier == nil {
		return
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := s.notifier.Notify(notifyCtx, notify.Describe(runErr)); err != nil {
		s.log.Error("unable to report error", zap.Error(err), zap.NamedError("runError", runErr))
	}
}

// Running reports whether a run is in progress.
func (s *ETLService) Running() bool {
	return s.running.Running(pipelineKey)
}

// ── Read side ──────────────────────────────────────────────

// ListRunLogs returns the most recent run logs, newest first.
func (s *ETLService) ListRunLogs(limit int) ([]etl.RunLog, error) {
	if s.store == nil {
		return nil, fmt.Errorf("run log store not configured")
	}
	return s.store.ListRunLogs(limit)
}

// LastSuccess returns when the last successful run finished, or the zero time.
func (s *ETLService) LastSuccess() (time.Time, error) {
	if s.store == nil {
		return time.Time{}, nil
	}
	return s.store.LastSuccess()
}

// Records returns every stored record, ascending by date.
func (s *ETLService) Records(ctx context.Context) ([]etl.Record, error) {
	return etl.NewLoader(s.engine.Repo, nil, s.log).Snapshot(ctx)
}

// Summary digests the stored records.
func (s *ETLService) Summary(ctx context.Context) (etl.Summary, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return etl.Summary{}, err
	}
	return etl.Summarize(records), nil
}

// Dataset renders the visualization script from the stored records.
func (s *ETLService) Dataset(ctx context.Context) ([]byte, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}
	c := etl.NewCollector()
	c.Add(records...)
	return c.Render()
}

// ── Triggers (cron + file watch) ──────────────────────────

// StartSchedule runs the pipeline on the cron expression expr (standard
// five fields or descriptors such as "@daily"). A tick that lands while a
// run is active is skipped.
func (s *ETLService) StartSchedule(ctx context.Context, expr string) error {
	c := cron.New()
	_, err := c.AddFunc(expr, func() {
		s.log.Info("cron: running pipeline", zap.String("schedule", expr))
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Warn("cron: run failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cronSched != nil {
		s.cronSched.Stop()
	}
	c.Start()
	s.cronSched = c
	s.log.Info("cron: scheduled", zap.String("schedule", expr))
	return nil
}

// Watch re-runs the pipeline when any of files is written or re-created.
// Events are debounced so a burst of writes triggers a single run. The
// watch ends when ctx is cancelled or Stop is called.
func (s *ETLService) Watch(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return fmt.Errorf("no files to watch")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	targets := make(map[string]bool)
	watchedDirs := make(map[string]bool)
	for _, f := range files {
		absPath, err := filepath.Abs(f)
		if err != nil {
			watcher.Close()
			return fmt.Errorf("bad path %q: %w", f, err)
		}
		targets[absPath] = true

		// Watch the directory: editors replace files, which drops file watches.
		dir := filepath.Dir(absPath)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				watcher.Close()
				return fmt.Errorf("watch dir %q: %w", dir, err)
			}
			watchedDirs[dir] = true
		}
	}

	s.stopWatcher()

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.mu.Lock()
	s.watcher = watcher
	s.watchCancel = cancel
	s.watchDone = done
	s.mu.Unlock()

	go s.watchLoop(watchCtx, watcher, targets, done)

	s.log.Info("watcher: watching files", zap.Int("files", len(targets)))
	return nil
}

func (s *ETLService) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, targets map[string]bool, done chan struct{}) {
	defer close(done)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			absPath, _ := filepath.Abs(event.Name)
			if !targets[absPath] {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				if ctx.Err() != nil {
					return
				}
				s.log.Info("watcher: file changed, running pipeline", zap.String("file", absPath))
				if _, err := s.RunOnce(ctx); err != nil {
					s.log.Warn("watcher: run failed", zap.Error(err))
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("watcher: error", zap.Error(err))
		}
	}
}

// WaitRunning blocks until the active run finishes or ctx is cancelled.
// Used for graceful shutdown.
func (s *ETLService) WaitRunning(ctx context.Context) {
	s.running.WaitAll(ctx)
}

// Stop tears down the watcher and the scheduler. It is safe to call
// more than once.
func (s *ETLService) Stop() {
	s.stopWatcher()

	s.mu.Lock()
	c := s.cronSched
	s.cronSched = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

func (s *ETLService) stopWatcher() {
	s.mu.Lock()
	cancel, watcher, done := s.watchCancel, s.watcher, s.watchDone
	s.watchCancel, s.watcher, s.watchDone = nil, nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if watcher != nil {
		watcher.Close()
	}
	if done != nil {
		<-done
	}
}
