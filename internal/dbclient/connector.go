package dbclient

import (
	"fmt"

	"casetrack/internal/domain"
	"casetrack/internal/etl"
)

// pageSize is the number of items returned per QueryPage by the SQL and
// MongoDB repositories.
const pageSize = 100

// Repository is an etl.Repository holding a connection that must be released.
type Repository interface {
	etl.Repository

	// Close closes the connection.
	Close() error
}

// NewRepository creates a Repository for the given connection.
// The password must be provided separately (from SecretStore).
func NewRepository(conn *domain.RepositoryConnection, password string) (Repository, error) {
	switch conn.Driver {
	case domain.RepositoryDriverSQLite:
		return newSQLiteRepository(conn)
	case domain.RepositoryDriverMySQL:
		return newSQLRepository("mysql", buildMySQLDSN(conn, password), conn.TableName())
	case domain.RepositoryDriverPostgres:
		return newSQLRepository("postgres", buildPostgresDSN(conn, password), conn.TableName())
	case domain.RepositoryDriverMongoDB:
		return newMongoRepository(conn, password)
	case domain.RepositoryDriverDynamoDB:
		return newDynamoRepository(conn)
	case domain.RepositoryDriverMemory:
		return NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", conn.Driver)
	}
}
