package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"casetrack/internal/etl"
)

// ── HTTP CSV Source ─────────────────────────────────────────
// Streams CSV text from a URL, e.g. a raw file on a public data repository.

// Client is the HTTP client used by the http_csv source.
var Client = &http.Client{Timeout: 60 * time.Second}

type httpCSVSource struct{}

func init() { etl.RegisterSource(&httpCSVSource{}) }

func (s *httpCSVSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:  etl.SourceHTTPCSV,
		Label: "CSV over HTTP",
		ConfigFields: []etl.ConfigField{
			{Key: "url", Label: "URL", Required: true, Help: "URL of the CSV document"},
		},
	}
}

func (s *httpCSVSource) Discover(ctx context.Context, cfg etl.SourceConfig) (*etl.Schema, error) {
	body, err := fetch(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	header, err := newCSVReader(body).Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	return headerSchema(header), nil
}

func (s *httpCSVSource) Read(ctx context.Context, cfg etl.SourceConfig) (<-chan etl.RawRow, <-chan error) {
	out := make(chan etl.RawRow, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		body, err := fetch(ctx, cfg)
		if err != nil {
			errCh <- err
			return
		}
		defer body.Close()

		if err := streamCSV(ctx, body, out); err != nil {
			errCh <- err
		}
	}()

	return out, errCh
}

func fetch(ctx context.Context, cfg etl.SourceConfig) (io.ReadCloser, error) {
	url, _ := cfg["url"].(string)
	if url == "" {
		return nil, fmt.Errorf("url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain")

	resp, err := Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}
	return resp.Body, nil
}
