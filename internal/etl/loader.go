package etl

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Loader diffs merged records against the repository and appends the
// records that are strictly newer than anything stored.
type Loader struct {
	repo      Repository
	collector *Collector
	log       *zap.Logger
}

// NewLoader creates a Loader. collector may be nil when no visualization
// is built for the run.
func NewLoader(repo Repository, collector *Collector, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{repo: repo, collector: collector, log: log.Named("loader")}
}

// Snapshot reads the whole partition, page by page, ascending by date.
// A stored item that cannot be decoded aborts the read unwrapped.
func (l *Loader) Snapshot(ctx context.Context) ([]Record, error) {
	var (
		records []Record
		key     string
		pages   int
	)
	for {
		page, err := l.repo.QueryPage(ctx, USDataset, key)
		if err != nil {
			return nil, err
		}
		pages++
		for _, it := range page.Items {
			rec, err := DecodeItem(it)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
		if page.NextKey == "" {
			break
		}
		key = page.NextKey
	}
	l.log.Debug("snapshot read", zap.Int("records", len(records)), zap.Int("pages", pages))
	return records, nil
}

// LastDate returns the latest date of the snapshot, or the zero date if
// the snapshot is empty.
func LastDate(snapshot []Record) time.Time {
	var last time.Time
	for _, r := range snapshot {
		if r.Date.After(last) {
			last = r.Date
		}
	}
	return last
}

// NewerThan returns the records dated strictly after last, order preserved.
func NewerThan(records []Record, last time.Time) []Record {
	var out []Record
	for _, r := range records {
		if r.Date.After(last) {
			out = append(out, r)
		}
	}
	return out
}

// Batches splits records into consecutive groups of at most size.
func Batches(records []Record, size int) [][]Record {
	if size <= 0 {
		size = MaxBatchSize
	}
	var out [][]Record
	for i := 0; i < len(records); i += size {
		out = append(out, records[i:min(i+size, len(records))])
	}
	return out
}

// Update writes the merged records newer than the repository's latest
// date and returns how many were written. Both the snapshot and the new
// records are handed to the collector.
//
// Batches are written in order; if one fails, the batches before it stay
// committed and a later run resumes from what was stored.
func (l *Loader) Update(ctx context.Context, merged []Record) (int, error) {
	existing, err := l.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	l.collect(existing)

	last := LastDate(existing)
	toWrite := NewerThan(merged, last)
	l.collect(toWrite)

	switch len(toWrite) {
	case 0:
		l.log.Info("repository up to date", zap.Int("stored", len(existing)))
		return 0, nil
	case 1:
		if err := l.repo.PutItem(ctx, RenderItem(toWrite[0])); err != nil {
			return 0, err
		}
	default:
		written := 0
		for i, batch := range Batches(toWrite, MaxBatchSize) {
			items := make([]Item, len(batch))
			for j, r := range batch {
				items[j] = RenderItem(r)
			}
			if err := l.repo.BatchWriteItems(ctx, items); err != nil {
				return written, err
			}
			written += len(items)
			l.log.Debug("batch written", zap.Int("batch", i), zap.Int("items", len(items)))
		}
	}
	return len(toWrite), nil
}

func (l *Loader) collect(records []Record) {
	if l.collector != nil {
		l.collector.Add(records...)
	}
}
