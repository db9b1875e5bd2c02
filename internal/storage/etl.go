package storage

import (
	"database/sql"
	"errors"
	"time"

	"casetrack/internal/etl"

	"github.com/google/uuid"
)

// ETLStore implements persistence for pipeline run logs.
type ETLStore struct {
	db *DB
}

// NewETLStore creates a new ETLStore.
func NewETLStore(db *DB) *ETLStore {
	return &ETLStore{db: db}
}

// ── Run Logs ───────────────────────────────────────────────

// CreateRunLog assigns an ID and inserts the log.
func (s *ETLStore) CreateRunLog(log *etl.RunLog) error {
	log.ID = uuid.New().String()
	_, err := s.db.conn.Exec(
		`INSERT INTO etl_run_logs (id, started_at, finished_at, status, merged, written, total, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.StartedAt.UTC(), log.FinishedAt.UTC(), log.Status, log.Merged, log.Written, log.Total, log.Error,
	)
	return err
}

// ListRunLogs returns the most recent logs first.
func (s *ETLStore) ListRunLogs(limit int) ([]etl.RunLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.conn.Query(
		`SELECT id, started_at, finished_at, status, merged, written, total, error
		 FROM etl_run_logs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []etl.RunLog
	for rows.Next() {
		var l etl.RunLog
		if err := rows.Scan(&l.ID, &l.StartedAt, &l.FinishedAt, &l.Status, &l.Merged, &l.Written, &l.Total, &l.Error); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// LastSuccess returns the finish time of the latest successful run, or
// the zero time when there is none.
func (s *ETLStore) LastSuccess() (time.Time, error) {
	var t time.Time
	err := s.db.conn.QueryRow(
		`SELECT finished_at FROM etl_run_logs WHERE status = ? ORDER BY started_at DESC LIMIT 1`,
		etl.StatusSuccess,
	).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	return t, err
}
