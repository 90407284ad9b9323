package qb

import (
	"strings"
)

// Column is one column/value pair. Name is emitted verbatim, so callers pass it quoted when it
// needs to be.
type Column struct {
	Name  string
	Value any
}

// The statements below are rendered with ? placeholders; run them through Rebind before
// handing them to a postgres driver.

// BuildInsert renders INSERT INTO table (c1, c2) VALUES (?, ?).
func (b Builder) BuildInsert(table string, cols []Column) (string, []any, error) {
	if len(cols) == 0 {
		return "", nil, errEmptyData
	}

	names, vals := split(cols)

	query := "INSERT INTO " + table + " (" + strings.Join(names, ", ") + ") VALUES (" + placeholders(len(cols)) + ")"

	return query, vals, nil
}

// BuildUpdate renders UPDATE table SET c1 = ?, ... WHERE k1 = ? AND k2 IS NULL. Identifier
// entries with a nil value become IS NULL and bind nothing.
func (b Builder) BuildUpdate(table string, set, identifier []Column) (string, []any, error) {
	if len(set) == 0 {
		return "", nil, errEmptyData
	}

	query, vals := b.setClause(table, set)

	conds := make([]string, 0, len(identifier))

	for _, c := range identifier {
		if c.Value == nil {
			conds = append(conds, c.Name+" IS NULL")
			continue
		}

		conds = append(conds, c.Name+" = ?")
		vals = append(vals, c.Value)
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	return query, vals, nil
}

// BuildUpdateWhere renders UPDATE table SET c1 = ?, ... and appends where verbatim.
func (b Builder) BuildUpdateWhere(table string, set []Column, where string) (string, []any, error) {
	if len(set) == 0 {
		return "", nil, errEmptyData
	}

	query, vals := b.setClause(table, set)

	if where != "" {
		query += " WHERE " + where
	}

	return query, vals, nil
}

// BuildDeleteWhere renders DELETE FROM table [WHERE where]. An empty where deletes every row.
func (b Builder) BuildDeleteWhere(table, where string) string {
	query := "DELETE FROM " + table
	if where != "" {
		query += " WHERE " + where
	}

	return query
}

// BuildSelectColumn renders SELECT column FROM table [WHERE where].
func (b Builder) BuildSelectColumn(column, table, where string) string {
	query := "SELECT " + column + " FROM " + table
	if where != "" {
		query += " WHERE " + where
	}

	return query
}

// BuildInList renders column IN (l1, l2, ...) with every value quoted as a literal.
func (b Builder) BuildInList(column string, values []any) (string, error) {
	literals := make([]string, 0, len(values))

	for _, v := range values {
		lit, err := b.QuoteLiteral(v)
		if err != nil {
			return "", err
		}

		literals = append(literals, lit)
	}

	return column + " IN (" + strings.Join(literals, ", ") + ")", nil
}

func (b Builder) setClause(table string, set []Column) (string, []any) {
	parts := make([]string, 0, len(set))
	vals := make([]any, 0, len(set))

	for _, c := range set {
		parts = append(parts, c.Name+" = ?")
		vals = append(vals, c.Value)
	}

	return "UPDATE " + table + " SET " + strings.Join(parts, ", "), vals
}

func split(cols []Column) ([]string, []any) {
	names := make([]string, 0, len(cols))
	vals := make([]any, 0, len(cols))

	for _, c := range cols {
		names = append(names, c.Name)
		vals = append(vals, c.Value)
	}

	return names, vals
}

func placeholders(n int) string {
	return strings.TrimRight(strings.Repeat("?, ", n), ", ")
}
