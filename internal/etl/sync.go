package etl

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ── Engine ─────────────────────────────────────────────────
// Orchestrates: extract → transform → incremental load → visualization.
// Every step runs in sequence; the first error aborts the run.

// Run statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusRunning = "running"
)

// RunResult is the outcome of one pipeline run.
type RunResult struct {
	Status   string        `json:"status"`
	RowSets  int           `json:"rowSets"`
	Merged   int           `json:"merged"`
	Written  int           `json:"written"`
	Total    int           `json:"total"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// RunLog is a historical record of a run.
type RunLog struct {
	ID         string    `json:"id" db:"id"`
	StartedAt  time.Time `json:"startedAt" db:"started_at"`
	FinishedAt time.Time `json:"finishedAt" db:"finished_at"`
	Status     string    `json:"status" db:"status"`
	Merged     int       `json:"merged" db:"merged"`
	Written    int       `json:"written" db:"written"`
	Total      int       `json:"total" db:"total"`
	Error      string    `json:"error,omitempty" db:"error"`
}

// Engine runs the pipeline against a repository and an artifact sink.
type Engine struct {
	Repo Repository
	Sink Sink
	Log  *zap.Logger
}

func (e *Engine) logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log.Named("etl")
}

// RunExtract acquires the row sets and runs the pipeline on them.
func (e *Engine) RunExtract(ctx context.Context, ex Extract) (*RunResult, error) {
	start := time.Now()
	sets, err := ex.RowSets(ctx)
	if err != nil {
		return failed(&RunResult{}, start, err)
	}
	return e.run(ctx, sets, start)
}

// Run executes the pipeline on already acquired row sets.
func (e *Engine) Run(ctx context.Context, sets []RowSet) (*RunResult, error) {
	return e.run(ctx, sets, time.Now())
}

func (e *Engine) run(ctx context.Context, sets []RowSet, start time.Time) (*RunResult, error) {
	log := e.logger()
	result := &RunResult{RowSets: len(sets)}

	// 1. Classify, normalize, merge.
	merged, err := Transform(sets)
	if err != nil {
		return failed(result, start, err)
	}
	result.Merged = len(merged)

	// 2. Diff against the repository and append what is new.
	collector := NewCollector()
	written, err := NewLoader(e.Repo, collector, e.Log).Update(ctx, merged)
	result.Written = written
	if err != nil {
		return failed(result, start, err)
	}
	result.Total = collector.Len()
	log.Info("new records stored", zap.Int("written", written), zap.Int("merged", len(merged)))

	// 3. Publish the visualization dataset.
	if e.Sink != nil {
		if err := collector.Flush(ctx, e.Sink); err != nil {
			return failed(result, start, err)
		}
		log.Info("BI dataset written", zap.String("key", DatasetKey), zap.Int("rows", collector.Len()))
	}

	result.Status = StatusSuccess
	result.Duration = time.Since(start)
	return result, nil
}

func failed(result *RunResult, start time.Time, err error) (*RunResult, error) {
	result.Status = StatusError
	result.Error = err.Error()
	result.Duration = time.Since(start)
	return result, err
}
