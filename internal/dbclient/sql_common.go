package dbclient

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"

	"casetrack/internal/etl"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// sqlRepository is the shared implementation for MySQL, Postgres, and SQLite.
// Items live in one table keyed by (dataset, date); the date column holds
// the YYYY-MM-DD string so lexical order is date order.
type sqlRepository struct {
	driverName string
	table      string
	db         *sqlx.DB
}

// newSQLRepository opens the database and creates the records table.
func newSQLRepository(driverName, dsn, table string) (*sqlRepository, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)

	r := &sqlRepository{driverName: driverName, table: table, db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *sqlRepository) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		dataset INTEGER NOT NULL,
		date VARCHAR(10) NOT NULL,
		cases BIGINT NOT NULL DEFAULT 0,
		deaths BIGINT NOT NULL DEFAULT 0,
		recovered BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (dataset, date)
	)`, r.table)
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", r.table, err)
	}
	return nil
}

func (r *sqlRepository) QueryPage(ctx context.Context, partition int, startKey string) (etl.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	query := r.db.Rebind(fmt.Sprintf(
		`SELECT dataset, date, cases, deaths, recovered FROM %s
		 WHERE dataset = ? AND date > ?
		 ORDER BY date LIMIT %d`, r.table, pageSize))

	var items []etl.Item
	if err := r.db.SelectContext(ctx, &items, query, partition, startKey); err != nil {
		return etl.Page{}, fmt.Errorf("query: %w", err)
	}

	page := etl.Page{Items: items}
	if len(items) == pageSize {
		page.NextKey = items[len(items)-1].Date
	}
	return page, nil
}

func (r *sqlRepository) insertQuery() string {
	return fmt.Sprintf(`INSERT INTO %s (dataset, date, cases, deaths, recovered)
		VALUES (:dataset, :date, :cases, :deaths, :recovered)`, r.table)
}

func (r *sqlRepository) PutItem(ctx context.Context, item etl.Item) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := r.db.NamedExecContext(ctx, r.insertQuery(), item); err != nil {
		return fmt.Errorf("insert %s: %w", item.Date, err)
	}
	return nil
}

// BatchWriteItems inserts all items in one transaction.
func (r *sqlRepository) BatchWriteItems(ctx context.Context, items []etl.Item) error {
	if len(items) > etl.MaxBatchSize {
		return fmt.Errorf("batch of %d items exceeds %d", len(items), etl.MaxBatchSize)
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, r.insertQuery())
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		if _, err := stmt.ExecContext(ctx, it); err != nil {
			return fmt.Errorf("insert %s: %w", it.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *sqlRepository) Close() error {
	return r.db.Close()
}
