package dbclient

import (
	"fmt"
	"os"
	"path/filepath"

	"casetrack/internal/domain"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func init() {
	// sqlx only knows "sqlite3"; the modernc driver registers as "sqlite".
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// sqlitePragmas is the modernc DSN suffix applied on every new connection.
const sqlitePragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// newSQLiteRepository opens (or creates) the SQLite file named by Host.
// Opens in WAL mode with busy timeout for concurrent access.
func newSQLiteRepository(conn *domain.RepositoryConnection) (*sqlRepository, error) {
	if conn.Host == "" {
		return nil, fmt.Errorf("sqlite: host must be a file path")
	}
	if err := os.MkdirAll(filepath.Dir(conn.Host), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	repo, err := newSQLRepository("sqlite", conn.Host+sqlitePragmas, conn.TableName())
	if err != nil {
		return nil, err
	}
	// SQLite only supports one writer
	repo.db.SetMaxOpenConns(1)
	return repo, nil
}
