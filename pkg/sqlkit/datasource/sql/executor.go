package sql

import (
	"context"
	"database/sql"
)

// Executor captures the statement operations shared by DB and Tx, so code written against it
// runs the same inside or outside a transaction.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Dialect() string
}

var (
	_ Executor = (*DB)(nil)
	_ Executor = (*Tx)(nil)
)
