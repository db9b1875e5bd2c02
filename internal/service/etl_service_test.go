package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"casetrack/internal/artifact"
	"casetrack/internal/dbclient"
	"casetrack/internal/etl"
	_ "casetrack/internal/etl/sources"
	"casetrack/internal/notify"
	"casetrack/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// ETLService tests
// Runs the pipeline against the fixture CSVs with the in-memory
// repository, a file sink and a temporary run log database.
// ─────────────────────────────────────────────────────────────

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, p notify.Payload) error {
	return m.Called(ctx, p).Error(0)
}

// copyFixtures copies the etl fixtures into a temp dir and returns their paths.
func copyFixtures(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	out := make([]string, len(names))
	for i, n := range names {
		data, err := os.ReadFile(filepath.Join("..", "etl", "testdata", n))
		require.NoError(t, err)
		out[i] = filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(out[i], data, 0o644))
	}
	return out
}

func newStore(t *testing.T) *storage.ETLStore {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return storage.NewETLStore(db)
}

func TestRunOnce_StoresRecordsAndPublishes(t *testing.T) {
	files := copyFixtures(t, "jh_data_good.csv", "nyt_data_good.csv")
	repo := dbclient.NewMemoryRepository()
	site := t.TempDir()
	store := newStore(t)

	svc := NewETLService(Options{
		Repo:    repo,
		Sink:    &artifact.FileSink{Dir: site},
		Extract: etl.FromFiles(files...),
		Store:   store,
	})

	result, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, etl.StatusSuccess, result.Status)
	assert.Equal(t, 13, result.Written)
	assert.Equal(t, 13, repo.Len())

	body, err := os.ReadFile(filepath.Join(site, etl.DatasetKey))
	require.NoError(t, err)
	assert.Contains(t, string(body), "Date(2020,1,3)")

	// A second run finds nothing new but still publishes the full table.
	result, err = svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Written)
	assert.Equal(t, 13, result.Total)

	logs, err := svc.ListRunLogs(10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, 0, logs[0].Written)
	assert.Equal(t, 13, logs[1].Written)
	assert.NotEmpty(t, logs[0].ID)

	last, err := svc.LastSuccess()
	require.NoError(t, err)
	assert.False(t, last.IsZero())

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 13, summary.Days)
	assert.EqualValues(t, 7, summary.Cases)
}

func TestRunOnce_FailureIsReportedAndReturned(t *testing.T) {
	files := copyFixtures(t, "nyt_data_good.csv")
	n := new(mockNotifier)
	n.On("Notify", mock.Anything, mock.MatchedBy(func(p notify.Payload) bool {
		return p.ExceptionType == "MissingDatasetError" && p.Source == notify.Source
	})).Return(assert.AnError)

	svc := NewETLService(Options{
		Repo:     dbclient.NewMemoryRepository(),
		Extract:  etl.FromFiles(files...),
		Store:    newStore(t),
		Notifier: n,
	})

	result, runErr := svc.RunOnce(context.Background())

	var missing *etl.MissingDatasetError
	require.ErrorAs(t, runErr, &missing, "notification failure must not mask the run error")
	assert.Equal(t, etl.StatusError, result.Status)
	n.AssertExpectations(t)

	logs, err := svc.ListRunLogs(5)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, etl.StatusError, logs[0].Status)
	assert.Equal(t, runErr.Error(), logs[0].Error)
}

func TestRun_Exclusive(t *testing.T) {
	svc := NewETLService(Options{Repo: dbclient.NewMemoryRepository()})
	require.True(t, svc.running.TryLock(pipelineKey))
	assert.True(t, svc.Running())

	_, err := svc.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	svc.running.Unlock(pipelineKey)
	assert.False(t, svc.Running())
}

func TestListRunLogs_NoStore(t *testing.T) {
	svc := NewETLService(Options{})
	_, err := svc.ListRunLogs(10)
	assert.Error(t, err)
}

func TestWaitRunning_Immediate(t *testing.T) {
	svc := NewETLService(Options{})

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		svc.WaitRunning(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("WaitRunning hung with no running jobs")
	}
}

func TestStop_Idempotent(t *testing.T) {
	svc := NewETLService(Options{})
	svc.Stop()
	svc.Stop()
}

func TestWatch_RunsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	files := copyFixtures(t, "jh_data_good.csv", "nyt_data_good.csv")
	repo := dbclient.NewMemoryRepository()
	svc := NewETLService(Options{Repo: repo, Extract: etl.FromFiles(files...)})

	require.NoError(t, svc.Watch(context.Background(), files))

	data, err := os.ReadFile(files[1])
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(files[1], data, 0o644))

	require.Eventually(t, func() bool { return repo.Len() == 13 }, 5*time.Second, 50*time.Millisecond)

	svc.Stop()
	svc.WaitRunning(context.Background())
}

func TestWatch_NoFiles(t *testing.T) {
	assert.Error(t, NewETLService(Options{}).Watch(context.Background(), nil))
}

func TestStartSchedule(t *testing.T) {
	defer goleak.VerifyNone(t)

	files := copyFixtures(t, "jh_data_good.csv", "nyt_data_good.csv")
	repo := dbclient.NewMemoryRepository()
	svc := NewETLService(Options{Repo: repo, Extract: etl.FromFiles(files...)})

	require.NoError(t, svc.StartSchedule(context.Background(), "@every 1s"))
	require.Eventually(t, func() bool { return repo.Len() == 13 }, 5*time.Second, 50*time.Millisecond)

	svc.Stop()
	svc.WaitRunning(context.Background())
}

func TestStartSchedule_InvalidExpression(t *testing.T) {
	svc := NewETLService(Options{})
	assert.ErrorContains(t, svc.StartSchedule(context.Background(), "every tuesday"), "invalid schedule")
}
