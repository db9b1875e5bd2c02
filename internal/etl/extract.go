package etl

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Source types used by Extract. They are registered by etl/sources.
const (
	SourceCSVFile = "csv_file"
	SourceHTTPCSV = "http_csv"
)

// Extract acquires the raw row sets, either from URLs or from local files.
// URLs take precedence when both are set.
type Extract struct {
	URLs  []string
	Files []string
}

// FromURLs sets up an Extract reading CSV over HTTP.
func FromURLs(urls ...string) Extract {
	return Extract{URLs: urls}
}

// FromFiles sets up an Extract reading local CSV files.
func FromFiles(files ...string) Extract {
	return Extract{Files: files}
}

// RowSets reads every configured input concurrently. The result is in
// input order; the first failure cancels the rest.
func (e Extract) RowSets(ctx context.Context) ([]RowSet, error) {
	var (
		typ    string
		key    string
		inputs []string
	)
	switch {
	case len(e.URLs) > 0:
		typ, key, inputs = SourceHTTPCSV, "url", e.URLs
	case len(e.Files) > 0:
		typ, key, inputs = SourceCSVFile, "filePath", e.Files
	default:
		return nil, &ConfigurationError{Reason: "neither source URLs nor files were supplied"}
	}

	src, err := GetSource(typ)
	if err != nil {
		return nil, err
	}

	sets := make([]RowSet, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	for i, in := range inputs {
		g.Go(func() error {
			rows, err := ReadAll(gctx, src, SourceConfig{key: in})
			if err != nil {
				return fmt.Errorf("read %s: %w", in, err)
			}
			sets[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sets, nil
}

// Inputs returns the configured inputs, URLs first.
func (e Extract) Inputs() []string {
	if len(e.URLs) > 0 {
		return e.URLs
	}
	return e.Files
}
