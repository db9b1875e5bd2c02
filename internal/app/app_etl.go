package app

import (
	"context"
	"fmt"
	"strings"

	"casetrack/internal/etl"
	_ "casetrack/internal/etl/sources" // register all sources via init()
)

// InputReport describes one input as the classifier sees it.
type InputReport struct {
	Input  string   `json:"input"`
	Source string   `json:"source"`
	Role   etl.Role `json:"role,omitempty"`
	Fields []string `json:"fields"`
	Rows   int      `json:"rows"`
}

// Inspect reads each input and reports its header, row count and the
// dataset role it would be classified as. Nothing is written.
func Inspect(ctx context.Context, inputs []string) ([]InputReport, error) {
	if len(inputs) == 0 {
		return nil, &etl.ConfigurationError{Reason: "nothing to inspect"}
	}
	reports := make([]InputReport, 0, len(inputs))
	for _, in := range inputs {
		typ, cfg := sourceFor(in)
		src, err := etl.GetSource(typ)
		if err != nil {
			return nil, err
		}
		schema, err := src.Discover(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", in, err)
		}
		rows, err := etl.ReadAll(ctx, src, cfg)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", in, err)
		}
		report := InputReport{Input: in, Source: typ, Fields: schema.FieldNames(), Rows: len(rows)}
		if role, ok := etl.ClassifyFields(report.Fields); ok {
			report.Role = role
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func sourceFor(input string) (string, etl.SourceConfig) {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return etl.SourceHTTPCSV, etl.SourceConfig{"url": input}
	}
	return etl.SourceCSVFile, etl.SourceConfig{"filePath": input}
}
