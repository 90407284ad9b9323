// Package dbext layers convenience operations over an established SQL connection: identifier
// quoting for writes, parameter normalization, row/column/pair fetchers, upserts, batched
// delete-by-id and error tolerant execution.
//
// The helper never opens, closes or begins a transaction on the connection. Pass a *sql.Tx (or
// the datasource Tx wrapper) to run its operations inside a transaction.
package dbext

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/sllt/sqlkit/pkg/sqlkit/datasource/sql/qb"
	"github.com/sllt/sqlkit/pkg/sqlkit/logging"
)

const tracerName = "github.com/sllt/sqlkit/pkg/sqlkit/dbext"

// Connection is the established session the helper runs statements on.
type Connection interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Metrics is the part of the metrics manager the helper reports to.
type Metrics interface {
	NewCounter(name, desc string)
	NewHistogram(name, desc string, buckets ...float64)

	IncrementCounter(ctx context.Context, name string, labels ...string)
	RecordHistogram(ctx context.Context, name string, value float64, labels ...string)
}

// RegisterMetrics creates the instruments the helper records. Call it once per metrics manager.
func RegisterMetrics(m Metrics) {
	m.NewCounter("app_sql_ignored_errors", "Errors swallowed by QueryIgnoreError.")
	m.NewCounter("app_sql_delete_batches", "DELETE batches issued by SelectAndDeleteWhere.")
	m.NewCounter("app_sql_cache_hits", "Cached queries answered from the result cache.")
	m.NewCounter("app_sql_cache_misses", "Cached queries that went to the database.")
	m.NewHistogram("app_sql_delete_batch_rows", "Rows removed per SelectAndDeleteWhere batch.",
		1, 10, 50, 100, 250, 500, 1000, 2500, 5000)
}

// Helper decorates a Connection. It is immutable after New and safe for concurrent use when the
// connection is.
type Helper struct {
	conn    Connection
	config  Config
	builder qb.Builder

	logger  logging.Logger
	metrics Metrics
	tracer  trace.Tracer
	cache   ResultCache
}

// Option configures optional collaborators of a Helper.
type Option func(*Helper)

// WithLogger sets the logger for ignored errors, cache failures and purge progress.
func WithLogger(l logging.Logger) Option {
	return func(h *Helper) { h.logger = l }
}

// WithMetrics sets the manager the helper reports to. RegisterMetrics must have been called on it.
func WithMetrics(m Metrics) Option {
	return func(h *Helper) { h.metrics = m }
}

// WithTracer overrides the tracer taken from the global OpenTelemetry provider.
func WithTracer(t trace.Tracer) Option {
	return func(h *Helper) { h.tracer = t }
}

// WithCache enables ExecuteCacheQuery.
func WithCache(c ResultCache) Option {
	return func(h *Helper) { h.cache = c }
}

// New returns a Helper for conn. A zero DeleteBatchSize falls back to 1000.
func New(conn Connection, cfg Config, opts ...Option) (*Helper, error) {
	if conn == nil {
		return nil, errNilConnection
	}

	builder, err := qb.New(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	if cfg.DeleteBatchSize <= 0 {
		cfg.DeleteBatchSize = defaultDeleteBatchSize
	}

	cfg.ConflictColumns = append([]string(nil), cfg.ConflictColumns...)

	h := &Helper{
		conn:    conn,
		config:  cfg,
		builder: builder,
		tracer:  otel.GetTracerProvider().Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

// Config returns the configuration the helper was built with.
func (h *Helper) Config() Config {
	cfg := h.config
	cfg.ConflictColumns = append([]string(nil), h.config.ConflictColumns...)

	return cfg
}

// ExecuteQuery runs a parameterized query and reads the whole result. types[i] declares the
// type of params[i]; missing entries are TypeDefault.
func (h *Helper) ExecuteQuery(ctx context.Context, query string, params []any, types ...ParamType) (*ResultSet, error) {
	stmt, args, err := h.prepare(query, params, types)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}

	rows, err := h.conn.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, &QueryError{Query: stmt, Err: err}
	}

	defer rows.Close()

	rs, err := scanRows(rows)
	if err != nil {
		return nil, &QueryError{Query: stmt, Err: err}
	}

	return rs, nil
}

// ExecuteUpdate runs a parameterized statement and returns the number of affected rows.
func (h *Helper) ExecuteUpdate(ctx context.Context, query string, params []any, types ...ParamType) (int64, error) {
	stmt, args, err := h.prepare(query, params, types)
	if err != nil {
		return 0, &QueryError{Query: query, Err: err}
	}

	res, err := h.conn.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, &QueryError{Query: stmt, Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, &QueryError{Query: stmt, Err: err}
	}

	return affected, nil
}

// Query runs a statement without bind values.
func (h *Helper) Query(ctx context.Context, query string) (*ResultSet, error) {
	return h.ExecuteQuery(ctx, query, nil)
}

// QueryWithParams runs query with params bound positionally. It is ExecuteQuery without types.
func (h *Helper) QueryWithParams(ctx context.Context, query string, params []any) (*ResultSet, error) {
	return h.ExecuteQuery(ctx, query, params)
}

// prepare converts params to their declared types, expands array placeholders, checks the
// placeholder count and rebinds the query for the dialect.
func (h *Helper) prepare(query string, params []any, types []ParamType) (string, []any, error) {
	args := make([]any, 0, len(params))
	counts := make([]int, 0, len(params))
	expanded := false

	for i, p := range params {
		typ := typeAt(types, i)

		if typ.isArray() {
			elems, err := expand(p, typ)
			if err != nil {
				return "", nil, fmt.Errorf("param %d: %w", i, err)
			}

			args = append(args, elems...)
			counts = append(counts, len(elems))
			expanded = true

			continue
		}

		v, err := convert(p, typ)
		if err != nil {
			return "", nil, fmt.Errorf("param %d: %w", i, err)
		}

		args = append(args, v)
		counts = append(counts, 1)
	}

	placeholders := h.builder.CountPlaceholders(query)

	if expanded {
		if placeholders != len(params) {
			return "", nil, fmt.Errorf("%w: %d placeholders, %d params", ErrPlaceholderMismatch, placeholders, len(params))
		}

		var err error

		query, err = h.builder.Expand(query, counts)
		if err != nil {
			return "", nil, err
		}
	} else if placeholders != len(args) {
		return "", nil, fmt.Errorf("%w: %d placeholders, %d params", ErrPlaceholderMismatch, placeholders, len(args))
	}

	return h.builder.Rebind(query), args, nil
}

// log returns a logger carrying the trace id of ctx, or nil when the helper has no logger.
func (h *Helper) log(ctx context.Context) logging.Logger {
	if h.logger == nil {
		return nil
	}

	return logging.NewContextLogger(ctx, h.logger)
}

func (h *Helper) increment(ctx context.Context, name string, labels ...string) {
	if h.metrics != nil {
		h.metrics.IncrementCounter(ctx, name, labels...)
	}
}
