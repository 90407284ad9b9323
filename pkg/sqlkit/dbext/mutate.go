package dbext

import (
	"context"
	"fmt"
	"slices"

	"github.com/sllt/sqlkit/pkg/sqlkit/datasource/sql/qb"
)

// Insert writes one row. Column names are quoted when AutoQuoteIdentifiers is set; table is used
// as given.
func (h *Helper) Insert(ctx context.Context, table string, data map[string]any, types ColumnTypes) (int64, error) {
	cols, err := h.columns(data, types, h.config.AutoQuoteIdentifiers)
	if err != nil {
		return 0, &QueryError{Query: "INSERT INTO " + table, Err: err}
	}

	query, args, err := h.builder.BuildInsert(table, cols)
	if err != nil {
		return 0, &QueryError{Query: "INSERT INTO " + table, Err: err}
	}

	return h.ExecuteUpdate(ctx, query, args)
}

// Update sets data on the rows matching every identifier column. A nil identifier value matches
// NULL; an empty identifier fails with ErrEmptyIdentifier. Column names of both maps are quoted
// when AutoQuoteIdentifiers is set.
func (h *Helper) Update(ctx context.Context, table string, data, identifier map[string]any, types ColumnTypes) (int64, error) {
	if len(identifier) == 0 {
		return 0, &QueryError{Query: "UPDATE " + table, Err: ErrEmptyIdentifier}
	}

	set, err := h.columns(data, types, h.config.AutoQuoteIdentifiers)
	if err != nil {
		return 0, &QueryError{Query: "UPDATE " + table, Err: err}
	}

	where, err := h.columns(identifier, types, h.config.AutoQuoteIdentifiers)
	if err != nil {
		return 0, &QueryError{Query: "UPDATE " + table, Err: err}
	}

	query, args, err := h.builder.BuildUpdate(table, set, where)
	if err != nil {
		return 0, &QueryError{Query: "UPDATE " + table, Err: err}
	}

	return h.ExecuteUpdate(ctx, query, args)
}

// DeleteWhere runs DELETE FROM table [WHERE where]. An empty where deletes every row.
func (h *Helper) DeleteWhere(ctx context.Context, table, where string) (int64, error) {
	return h.ExecuteUpdate(ctx, h.builder.BuildDeleteWhere(table, where), nil)
}

// UpdateWhere sets data on the rows matching where. Column names are always quoted; where is
// appended verbatim and must be safe.
func (h *Helper) UpdateWhere(ctx context.Context, table string, data map[string]any, where string) (int64, error) {
	set, err := h.columns(data, nil, true)
	if err != nil {
		return 0, &QueryError{Query: "UPDATE " + table, Err: err}
	}

	query, args, err := h.builder.BuildUpdateWhere(table, set, where)
	if err != nil {
		return 0, &QueryError{Query: "UPDATE " + table, Err: err}
	}

	return h.ExecuteUpdate(ctx, query, args)
}

// InsertOrUpdate inserts data or, when the row exists, overwrites all of its columns. The values
// are bound twice, insert list first and update list second. Table and columns are always quoted.
func (h *Helper) InsertOrUpdate(ctx context.Context, table string, data map[string]any) (int64, error) {
	cols, err := h.columns(data, nil, true)
	if err != nil {
		return 0, &QueryError{Query: "INSERT INTO " + table, Err: err}
	}

	conflict := make([]string, 0, len(h.config.ConflictColumns))
	for _, c := range h.config.ConflictColumns {
		conflict = append(conflict, h.builder.QuoteIdentifier(c))
	}

	query, args, err := h.builder.BuildUpsert(h.quotePath(table, true), cols, conflict)
	if err != nil {
		return 0, &QueryError{Query: "INSERT INTO " + table, Err: err}
	}

	return h.ExecuteUpdate(ctx, query, args)
}

// columns turns data into columns sorted by name, converting values with their declared type.
func (h *Helper) columns(data map[string]any, types ColumnTypes, quote bool) ([]qb.Column, error) {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}

	slices.Sort(names)

	cols := make([]qb.Column, 0, len(names))

	for _, name := range names {
		v, err := convert(data[name], types[name])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}

		if quote {
			name = h.builder.QuoteIdentifier(name)
		}

		cols = append(cols, qb.Column{Name: name, Value: v})
	}

	return cols, nil
}
