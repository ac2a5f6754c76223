// Package database defines the storage handle repositories are written
// against. The postgres subpackage provides the pgx implementation.
package database

import (
	"context"
	"database/sql"
)

// Querier runs statements either on the pool or inside a transaction.
// Exec reports the number of rows affected, which compare-and-set updates
// rely on.
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
}

type DB interface {
	Querier

	Ping(ctx context.Context) error
	Begin(ctx context.Context) (Tx, error)
	Close() error

	// SQLDB exposes a database/sql view of the same pool for the migration
	// runner.
	SQLDB() *sql.DB
}

type Tx interface {
	Querier

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Rows interface {
	Row
	Next() bool
	Err() error
	Close()
}

type Row interface {
	Scan(dest ...any) error
}
