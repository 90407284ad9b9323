package qb

import (
	"fmt"
	"strings"
)

// BuildUpsert renders a statement that inserts cols or, when the row already exists, overwrites
// every one of them with the same values.
//
// Bind values are returned twice in column order: once for the VALUES list and once for the
// update list. MySQL uses ON DUPLICATE KEY UPDATE and ignores conflictColumns. SQLite uses
// ON CONFLICT DO UPDATE, with a target only when conflictColumns is given. PostgreSQL requires
// conflictColumns. Table, column and conflict names are emitted verbatim.
func (b Builder) BuildUpsert(table string, cols []Column, conflictColumns []string) (string, []any, error) {
	insert, insertVals, err := b.BuildInsert(table, cols)
	if err != nil {
		return "", nil, err
	}

	sets := make([]string, 0, len(cols))
	for _, c := range cols {
		sets = append(sets, c.Name+" = ?")
	}

	var query string

	switch b.Dialect() {
	case DialectMySQL:
		query = fmt.Sprintf("%s ON DUPLICATE KEY UPDATE %s", insert, strings.Join(sets, ", "))

	case DialectSQLite:
		target, err := buildConflictTarget(conflictColumns)
		if err != nil {
			return "", nil, err
		}

		if target != "" {
			target = " " + target
		}

		query = fmt.Sprintf("%s ON CONFLICT%s DO UPDATE SET %s", insert, target, strings.Join(sets, ", "))

	case DialectPostgres:
		target, err := buildConflictTarget(conflictColumns)
		if err != nil {
			return "", nil, err
		}

		if target == "" {
			return "", nil, errEmptyConflictColumns
		}

		query = fmt.Sprintf("%s ON CONFLICT %s DO UPDATE SET %s", insert, target, strings.Join(sets, ", "))

	default:
		return "", nil, fmt.Errorf("%w: %q", errUnsupportedDialect, b.dialect)
	}

	vals := make([]any, 0, 2*len(insertVals))
	vals = append(vals, insertVals...)
	vals = append(vals, insertVals...)

	return query, vals, nil
}

func buildConflictTarget(conflictColumns []string) (string, error) {
	if len(conflictColumns) == 0 {
		return "", nil
	}

	columns := make([]string, 0, len(conflictColumns))

	for _, col := range conflictColumns {
		c := strings.TrimSpace(col)
		if c == "" {
			return "", errEmptyConflictColumns
		}

		columns = append(columns, c)
	}

	return fmt.Sprintf("(%s)", strings.Join(columns, ", ")), nil
}
