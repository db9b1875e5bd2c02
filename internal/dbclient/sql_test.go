package dbclient

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casetrack/internal/domain"
	"casetrack/internal/etl"
)

func openSQLite(t *testing.T) Repository {
	t.Helper()
	repo, err := NewRepository(&domain.RepositoryConnection{
		Driver: domain.RepositoryDriverSQLite,
		Host:   filepath.Join(t.TempDir(), "state", "records.db"),
	}, "")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func items(start string, n int) []etl.Item {
	base, _ := time.Parse(etl.DateLayout, start)
	out := make([]etl.Item, n)
	for i := range out {
		out[i] = etl.Item{
			Dataset:   etl.USDataset,
			Date:      base.AddDate(0, 0, i).Format(etl.DateLayout),
			Cases:     int64(i * 10),
			Deaths:    int64(i),
			Recovered: int64(i * 2),
		}
	}
	return out
}

func writeAll(t *testing.T, repo etl.Repository, all []etl.Item) {
	t.Helper()
	for i := 0; i < len(all); i += etl.MaxBatchSize {
		require.NoError(t, repo.BatchWriteItems(context.Background(), all[i:min(i+etl.MaxBatchSize, len(all))]))
	}
}

func TestSQLite_QueryPagePaginates(t *testing.T) {
	repo := openSQLite(t)
	writeAll(t, repo, items("2020-01-22", 130))

	ctx := context.Background()
	first, err := repo.QueryPage(ctx, etl.USDataset, "")
	require.NoError(t, err)
	require.Len(t, first.Items, pageSize)
	assert.Equal(t, "2020-01-22", first.Items[0].Date)
	assert.Equal(t, first.Items[pageSize-1].Date, first.NextKey)

	second, err := repo.QueryPage(ctx, etl.USDataset, first.NextKey)
	require.NoError(t, err)
	assert.Len(t, second.Items, 30)
	assert.Empty(t, second.NextKey)
	assert.Greater(t, second.Items[0].Date, first.NextKey)
}

func TestSQLite_PartitionsAreIsolated(t *testing.T) {
	repo := openSQLite(t)
	other := items("2020-01-22", 3)
	for i := range other {
		other[i].Dataset = 2
	}
	writeAll(t, repo, other)
	require.NoError(t, repo.PutItem(context.Background(), items("2020-05-01", 1)[0]))

	page, err := repo.QueryPage(context.Background(), etl.USDataset, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, etl.Item{Dataset: 1, Date: "2020-05-01"}, page.Items[0])
}

func TestSQLite_BatchIsAtomic(t *testing.T) {
	repo := openSQLite(t)
	require.NoError(t, repo.PutItem(context.Background(), items("2020-01-25", 1)[0]))

	// The fourth item collides with the stored primary key.
	err := repo.BatchWriteItems(context.Background(), items("2020-01-22", 5))
	require.Error(t, err)

	page, err := repo.QueryPage(context.Background(), etl.USDataset, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestSQLite_RejectsOversizedBatch(t *testing.T) {
	repo := openSQLite(t)
	assert.Error(t, repo.BatchWriteItems(context.Background(), items("2020-01-22", etl.MaxBatchSize+1)))
}

func TestSQLite_LoaderRoundTrip(t *testing.T) {
	repo := openSQLite(t)
	base, _ := time.Parse(etl.DateLayout, "2020-01-22")
	records := make([]etl.Record, 40)
	for i := range records {
		records[i] = etl.Record{Date: base.AddDate(0, 0, i), Cases: int64(i)}
	}

	n, err := etl.NewLoader(repo, nil, nil).Update(context.Background(), records[:30])
	require.NoError(t, err)
	assert.Equal(t, 30, n)

	n, err = etl.NewLoader(repo, nil, nil).Update(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	stored, err := etl.NewLoader(repo, nil, nil).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, records, stored)
}

func TestNewSQLRepository_InvalidTable(t *testing.T) {
	_, err := NewRepository(&domain.RepositoryConnection{
		Driver: domain.RepositoryDriverSQLite,
		Host:   filepath.Join(t.TempDir(), "x.db"),
		Table:  "records; DROP TABLE x",
	}, "")
	assert.ErrorContains(t, err, "invalid table name")
}

func TestNewRepository_UnsupportedDriver(t *testing.T) {
	_, err := NewRepository(&domain.RepositoryConnection{Driver: "oracle"}, "")
	assert.EqualError(t, err, "unsupported driver: oracle")
}

func TestBuildDSNs(t *testing.T) {
	conn := &domain.RepositoryConnection{Host: "db.local", Database: "covid", Username: "etl"}

	assert.Equal(t, "etl:s3cret@tcp(db.local:3306)/covid?charset=utf8mb4", buildMySQLDSN(conn, "s3cret"))
	assert.Equal(t, "host=db.local port=5432 user=etl dbname=covid sslmode=disable password=s3cret", buildPostgresDSN(conn, "s3cret"))
	assert.Equal(t, `host=db.local port=5432 user=etl dbname=covid sslmode=disable password='it\'s'`, buildPostgresDSN(conn, "it's"))

	conn.Port, conn.SSLMode = 6543, "require"
	assert.Equal(t, "etl:pw@tcp(db.local:6543)/covid?charset=utf8mb4&tls=true", buildMySQLDSN(conn, "pw"))
	assert.Equal(t, "host=db.local port=6543 user=etl dbname=covid sslmode=require", buildPostgresDSN(conn, ""))
}

func TestQuoteDSNValue(t *testing.T) {
	assert.Equal(t, "plain", quoteDSNValue("plain"))
	assert.Equal(t, `'with space'`, quoteDSNValue("with space"))
	assert.Equal(t, `'it\'s'`, quoteDSNValue("it's"))
	assert.Equal(t, `'a\\b'`, quoteDSNValue(`a\b`))
}

func TestSQLite_Pragmas(t *testing.T) {
	repo := openSQLite(t).(*sqlRepository)

	var mode string
	require.NoError(t, repo.db.Get(&mode, "PRAGMA journal_mode"))
	assert.Equal(t, "wal", mode)

	var timeout int
	require.NoError(t, repo.db.Get(&timeout, "PRAGMA busy_timeout"))
	assert.Equal(t, 5000, timeout)
}
