package sources

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"casetrack/internal/etl"
)

// ── CSV File Source ─────────────────────────────────────────
// Reads rows from a local CSV file.

type csvFileSource struct{}

func init() { etl.RegisterSource(&csvFileSource{}) }

func (s *csvFileSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:  etl.SourceCSVFile,
		Label: "CSV File",
		ConfigFields: []etl.ConfigField{
			{Key: "filePath", Label: "File Path", Required: true, Help: "Path to the CSV file"},
		},
	}
}

func (s *csvFileSource) Discover(ctx context.Context, cfg etl.SourceConfig) (*etl.Schema, error) {
	f, err := openCSVFile(cfg)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, err := newCSVReader(f).Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	return headerSchema(header), nil
}

func (s *csvFileSource) Read(ctx context.Context, cfg etl.SourceConfig) (<-chan etl.RawRow, <-chan error) {
	out := make(chan etl.RawRow, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		f, err := openCSVFile(cfg)
		if err != nil {
			errCh <- err
			return
		}
		defer f.Close()

		if err := streamCSV(ctx, f, out); err != nil {
			errCh <- err
		}
	}()

	return out, errCh
}

func openCSVFile(cfg etl.SourceConfig) (*os.File, error) {
	filePath, _ := cfg["filePath"].(string)
	if filePath == "" {
		return nil, fmt.Errorf("filePath is required")
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// newCSVReader returns a comma-delimited reader that trims leading space
// and requires every row to have as many fields as the header.
func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = ','
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = 0
	return reader
}

// streamCSV reads the header, then sends one RawRow per data line.
func streamCSV(ctx context.Context, r io.Reader, out chan<- etl.RawRow) error {
	reader := newCSVReader(r)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("parse csv: %w", err)
	}

	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parse csv: %w", err)
		}
		row := make(etl.RawRow, len(header))
		for i, h := range header {
			row[h] = rec[i]
		}
		select {
		case out <- row:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func headerSchema(header []string) *etl.Schema {
	schema := &etl.Schema{Fields: make([]etl.Field, len(header))}
	for i, h := range header {
		schema.Fields[i] = etl.Field{Name: h, Type: "text"}
	}
	return schema
}
