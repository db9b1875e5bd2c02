package etl_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casetrack/internal/etl"
)

func serveFixtures(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := os.ReadFile(fixture(r.URL.Path[1:]))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExtract_NoInputs(t *testing.T) {
	_, err := etl.Extract{}.RowSets(context.Background())

	var cfgErr *etl.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestExtract_URLsPreserveOrder(t *testing.T) {
	srv := serveFixtures(t)

	sets, err := etl.FromURLs(srv.URL+"/nyt_data_good.csv", srv.URL+"/jh_data_good.csv").RowSets(context.Background())
	require.NoError(t, err)

	require.Len(t, sets, 2)
	assert.Len(t, sets[0], 13)
	assert.Len(t, sets[1], 28)
	assert.Equal(t, "2020-01-22", sets[0][0]["date"])
}

func TestExtract_URLsTakePrecedence(t *testing.T) {
	srv := serveFixtures(t)
	ex := etl.Extract{
		URLs:  []string{srv.URL + "/nyt_data_missing_column.csv"},
		Files: []string{fixture("nyt_data_good.csv"), fixture("jh_data_good.csv")},
	}

	sets, err := ex.RowSets(context.Background())
	require.NoError(t, err)

	require.Len(t, sets, 1)
	assert.NotContains(t, sets[0][0], "deaths")
	assert.Equal(t, ex.URLs, ex.Inputs())
}

func TestExtract_HTTPError(t *testing.T) {
	srv := serveFixtures(t)

	_, err := etl.FromURLs(srv.URL + "/absent.csv").RowSets(context.Background())
	assert.ErrorContains(t, err, "http 404")
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := etl.FromFiles(fixture("absent.csv")).RowSets(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtract_TrimsLeadingSpace(t *testing.T) {
	path := t.TempDir() + "/spaced.csv"
	require.NoError(t, os.WriteFile(path, []byte("date, cases, deaths\n2020-01-22, 4, 1\n"), 0o644))

	sets, err := etl.FromFiles(path).RowSets(context.Background())
	require.NoError(t, err)

	require.Len(t, sets, 1)
	assert.Equal(t, etl.RawRow{"date": "2020-01-22", "cases": "4", "deaths": "1"}, sets[0][0])
}
