package dbclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casetrack/internal/domain"
	"casetrack/internal/etl"
)

func TestMemory_Pagination(t *testing.T) {
	repo := NewMemoryRepository()
	repo.PageSize = 10
	writeAll(t, repo, items("2020-01-22", 25))

	records, err := etl.NewLoader(repo, nil, nil).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 25)

	page, err := repo.QueryPage(context.Background(), etl.USDataset, "")
	require.NoError(t, err)
	assert.Equal(t, "2020-01-31", page.NextKey)
}

func TestMemory_ViaNewRepository(t *testing.T) {
	repo, err := NewRepository(&domain.RepositoryConnection{Driver: domain.RepositoryDriverMemory}, "")
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.PutItem(context.Background(), items("2020-01-22", 1)[0]))
	require.NoError(t, repo.PutItem(context.Background(), items("2020-01-22", 1)[0]))
	assert.Equal(t, 1, repo.(*MemoryRepository).Len())
}
