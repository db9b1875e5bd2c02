package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casetrack/internal/etl"
)

type fakeSource struct {
	records []etl.Record
	logs    []etl.RunLog
	err     error
	limit   int
}

func (f *fakeSource) Records(context.Context) ([]etl.Record, error) { return f.records, f.err }

func (f *fakeSource) Summary(context.Context) (etl.Summary, error) {
	return etl.Summarize(f.records), f.err
}

func (f *fakeSource) Dataset(context.Context) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := etl.NewCollector()
	c.Add(f.records...)
	return c.Render()
}

func (f *fakeSource) ListRunLogs(limit int) ([]etl.RunLog, error) {
	f.limit = limit
	return f.logs, f.err
}

func sample() []etl.Record {
	d := time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC)
	return []etl.Record{
		{Date: d, Cases: 100, Deaths: 2, Recovered: 5},
		{Date: d.AddDate(0, 0, 1), Cases: 150, Deaths: 4, Recovered: 9},
	}
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestRoutes(t *testing.T) {
	src := &fakeSource{records: sample(), logs: []etl.RunLog{{ID: "r1", Status: etl.StatusSuccess}}}
	srv := httptest.NewServer(New(src, nil))
	defer srv.Close()

	t.Run("index", func(t *testing.T) {
		resp, body := get(t, srv, "/")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
		assert.Contains(t, string(body), "dataset.js")
	})

	t.Run("static", func(t *testing.T) {
		resp, body := get(t, srv, "/static/chart.js")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "createDataset()")
	})

	t.Run("dataset", func(t *testing.T) {
		resp, body := get(t, srv, "/dataset.js")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/javascript", resp.Header.Get("Content-Type"))
		assert.Contains(t, string(body), "Date(2020,3,2)")
	})

	t.Run("records", func(t *testing.T) {
		resp, body := get(t, srv, "/api/records")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `[
			{"date":"2020-04-01","cases":100,"deaths":2,"recovered":5},
			{"date":"2020-04-02","cases":150,"deaths":4,"recovered":9}
		]`, string(body))
	})

	t.Run("summary", func(t *testing.T) {
		_, body := get(t, srv, "/api/summary")
		var s etl.Summary
		require.NoError(t, json.Unmarshal(body, &s))
		assert.Equal(t, 2, s.Days)
		assert.Equal(t, int64(150), s.Cases)
		assert.Equal(t, int64(50), s.NewCases.Last)
	})

	t.Run("runs", func(t *testing.T) {
		_, body := get(t, srv, "/api/runs?limit=3")
		assert.Equal(t, 3, src.limit)
		assert.Contains(t, string(body), `"id":"r1"`)
	})

	t.Run("runs bad limit", func(t *testing.T) {
		resp, _ := get(t, srv, "/api/runs?limit=zero")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestSourceError(t *testing.T) {
	srv := httptest.NewServer(New(&fakeSource{err: errors.New("repository offline")}, nil))
	defer srv.Close()

	for _, path := range []string{"/dataset.js", "/api/records", "/api/summary", "/api/runs"} {
		resp, body := get(t, srv, path)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode, path)
		assert.Contains(t, string(body), "repository offline", path)
	}
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(&fakeSource{}, nil).ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
