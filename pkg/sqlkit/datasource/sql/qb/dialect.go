package qb

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Dialect represents a SQL dialect that qb can generate queries for.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

var (
	errUnsupportedDialect   = errors.New("[builder] unsupported dialect")
	errEmptyConflictColumns = errors.New("[builder] conflict columns cannot be empty")
	errNilDialectProvider   = errors.New("[builder] dialect provider is nil")
	errEmptyData            = errors.New("[builder] data cannot be empty")
	errPlaceholderCount     = errors.New("[builder] expansion counts do not match placeholders")
)

// Builder renders SQL for a specific dialect.
type Builder struct {
	dialect Dialect
}

// DialectProvider describes a type that can expose SQL dialect.
type DialectProvider interface {
	Dialect() string
}

var defaultBuilder = Builder{dialect: DialectMySQL}

// New returns a Builder for the provided dialect.
//
// Supported values include:
//   - mysql, mariadb (also the default for an empty value)
//   - postgres, postgresql, pgx, supabase, cockroachdb
//   - sqlite, sqlite3
func New(dialect string) (Builder, error) {
	d, err := normalizeDialect(dialect)
	if err != nil {
		return Builder{}, err
	}

	return Builder{dialect: d}, nil
}

// MustNew is New for dialect names known at compile time.
func MustNew(dialect string) Builder {
	b, err := New(dialect)
	if err != nil {
		panic(err)
	}

	return b
}

// Default returns the MySQL builder.
func Default() Builder {
	return defaultBuilder
}

// FromDB creates a Builder from a provider that exposes Dialect().
func FromDB(db DialectProvider) (Builder, error) {
	if db == nil {
		return Builder{}, errNilDialectProvider
	}

	return New(db.Dialect())
}

func normalizeDialect(dialect string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "", string(DialectMySQL), "mariadb":
		return DialectMySQL, nil
	case string(DialectPostgres), "postgresql", "pgx", "supabase", "cockroachdb":
		return DialectPostgres, nil
	case string(DialectSQLite), "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedDialect, dialect)
	}
}

func (b Builder) Dialect() Dialect {
	if b.dialect == "" {
		return DialectMySQL
	}

	return b.dialect
}

// Rebind rewrites ? placeholders to the dialect's native form. Only postgres differs ($1, $2, ...).
func (b Builder) Rebind(query string) string {
	if b.Dialect() != DialectPostgres {
		return query
	}

	positions := b.Placeholders(query)
	if len(positions) == 0 {
		return query
	}

	var out strings.Builder

	out.Grow(len(query) + len(positions)*2)

	last := 0

	for i, pos := range positions {
		out.WriteString(query[last:pos])
		out.WriteByte('$')
		out.WriteString(strconv.Itoa(i + 1))
		last = pos + 1
	}

	out.WriteString(query[last:])

	return out.String()
}

// Expand replaces the i-th placeholder with counts[i] comma separated placeholders. A count of
// zero renders NULL so that "IN (?)" with an empty list matches nothing.
func (b Builder) Expand(query string, counts []int) (string, error) {
	positions := b.Placeholders(query)
	if len(positions) != len(counts) {
		return "", fmt.Errorf("%w: %d placeholders, %d counts", errPlaceholderCount, len(positions), len(counts))
	}

	var out strings.Builder

	last := 0

	for i, pos := range positions {
		out.WriteString(query[last:pos])

		switch counts[i] {
		case 0:
			out.WriteString("NULL")
		case 1:
			out.WriteByte('?')
		default:
			out.WriteString(strings.TrimRight(strings.Repeat("?, ", counts[i]), ", "))
		}

		last = pos + 1
	}

	out.WriteString(query[last:])

	return out.String(), nil
}

// LimitClause renders the LIMIT/OFFSET suffix. Every supported dialect accepts LIMIT n OFFSET m.
// Callers validate count and offset.
func (b Builder) LimitClause(count, offset int) string {
	clause := " LIMIT " + strconv.Itoa(count)
	if offset > 0 {
		clause += " OFFSET " + strconv.Itoa(offset)
	}

	return clause
}
