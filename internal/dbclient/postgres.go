package dbclient

import (
	"fmt"

	"casetrack/internal/domain"

	_ "github.com/lib/pq"
)

// buildPostgresDSN constructs a Postgres connection string from a RepositoryConnection.
func buildPostgresDSN(conn *domain.RepositoryConnection, password string) string {
	port := conn.Port
	if port == 0 {
		port = 5432
	}
	sslMode := conn.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		conn.Host, port, conn.Username, conn.Database, sslMode,
	)
	if password != "" {
		dsn += " password=" + quoteDSNValue(password)
	}
	return dsn
}

// quoteDSNValue quotes a key/value connection string value when it holds
// spaces, quotes or backslashes.
func quoteDSNValue(v string) string {
	needs := v == ""
	for _, r := range v {
		if r == ' ' || r == '\'' || r == '\\' {
			needs = true
			break
		}
	}
	if !needs {
		return v
	}
	out := make([]rune, 0, len(v)+2)
	out = append(out, '\'')
	for _, r := range v {
		if r == '\'' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(append(out, '\''))
}
