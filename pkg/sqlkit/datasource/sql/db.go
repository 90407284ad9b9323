// Package sql provides the connection sqlkit runs against. It wraps sql.DB and sql.Tx to log every
// statement, record its duration and expose the configured dialect.
package sql

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/sllt/sqlkit/pkg/sqlkit/datasource"
)

// DB is a wrapper around sql.DB which logs and measures every statement.
type DB struct {
	// contains unexported or private fields
	*sql.DB
	logger  datasource.Logger
	config  *DBConfig
	metrics Metrics
}

// Log is the structured entry written at DEBUG level for each statement.
type Log struct {
	Type     string `json:"type"`
	Dialect  string `json:"dialect"`
	Query    string `json:"query"`
	Duration int64  `json:"duration"`
	Args     []any  `json:"args,omitempty"`
}

func (l *Log) PrettyPrint(writer io.Writer) {
	fmt.Fprintf(writer, "\u001B[38;5;8m%-24s \u001B[38;5;24m%-8s\u001B[0m %8d\u001B[38;5;8mµs\u001B[0m %s\n",
		l.Type, strings.ToUpper(l.Dialect), l.Duration, clean(l.Query))
}

var whitespace = regexp.MustCompile(`\s+`)

func clean(query string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(query, " "))
}

// NewDB wraps an already opened pool. NewSQL is the usual constructor; NewDB serves callers that
// open the pool themselves, tests with sqlmock included.
func NewDB(db *sql.DB, config *DBConfig, logger datasource.Logger, metrics Metrics) *DB {
	if config == nil {
		config = &DBConfig{}
	}

	return &DB{DB: db, config: config, logger: logger, metrics: metrics}
}

type statsRecorder struct {
	logger  datasource.Logger
	metrics Metrics
	config  *DBConfig
}

func (r statsRecorder) send(ctx context.Context, start time.Time, queryType, query string, args ...any) {
	duration := time.Since(start).Microseconds()

	if r.logger != nil {
		r.logger.Debug(&Log{
			Type:     queryType,
			Dialect:  r.config.Dialect,
			Query:    query,
			Duration: duration,
			Args:     args,
		})
	}

	if r.metrics != nil {
		r.metrics.RecordHistogram(context.WithoutCancel(ctx), "app_sql_stats", float64(duration)/1e3,
			"hostname", r.config.HostName, "database", r.config.Database, "type", getOperationType(query))
	}
}

func getOperationType(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}

	return strings.ToUpper(fields[0])
}

func (d *DB) stats() statsRecorder {
	return statsRecorder{logger: d.logger, metrics: d.metrics, config: d.config}
}

// Dialect reports the configured dialect name, the value qb.FromDB expects.
func (d *DB) Dialect() string {
	return d.config.Dialect
}

func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	defer d.stats().send(ctx, time.Now(), "QueryContext", query, args...)
	return d.DB.QueryContext(ctx, query, args...)
}

func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	defer d.stats().send(ctx, time.Now(), "QueryRowContext", query, args...)
	return d.DB.QueryRowContext(ctx, query, args...)
}

func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	defer d.stats().send(ctx, time.Now(), "ExecContext", query, args...)
	return d.DB.ExecContext(ctx, query, args...)
}

func (d *DB) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	defer d.stats().send(ctx, time.Now(), "PrepareContext", query)
	return d.DB.PrepareContext(ctx, query)
}

// BeginTx starts a transaction whose statements are logged like the pool's.
func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := d.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}

	return &Tx{Tx: tx, recorder: d.stats()}, nil
}

// RecordPoolStats publishes the pool counters as gauges.
func (d *DB) RecordPoolStats() {
	if d.metrics == nil || d.DB == nil {
		return
	}

	s := d.DB.Stats()

	d.metrics.SetGauge("app_sql_open_connections", float64(s.OpenConnections), "database", d.config.Database)
	d.metrics.SetGauge("app_sql_inUse_connections", float64(s.InUse), "database", d.config.Database)
}

func (d *DB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}

	return nil
}

type Tx struct {
	*sql.Tx
	recorder statsRecorder
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	defer t.recorder.send(ctx, time.Now(), "TxQueryContext", query, args...)
	return t.Tx.QueryContext(ctx, query, args...)
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	defer t.recorder.send(ctx, time.Now(), "TxQueryRowContext", query, args...)
	return t.Tx.QueryRowContext(ctx, query, args...)
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	defer t.recorder.send(ctx, time.Now(), "TxExecContext", query, args...)
	return t.Tx.ExecContext(ctx, query, args...)
}

func (t *Tx) Dialect() string {
	return t.recorder.config.Dialect
}

func (t *Tx) Commit() error {
	defer t.recorder.send(context.Background(), time.Now(), "TxCommit", "COMMIT")
	return t.Tx.Commit()
}

func (t *Tx) Rollback() error {
	defer t.recorder.send(context.Background(), time.Now(), "TxRollback", "ROLLBACK")
	return t.Tx.Rollback()
}
