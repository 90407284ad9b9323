package dbext

import (
	"database/sql"
	"slices"
)

// Row maps column names to values.
type Row map[string]any

// ResultSet is a fully read query result. Driver []byte values are stored as strings.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}

	return len(rs.Rows)
}

// Row returns row i keyed by column name, or nil when i is out of range. With duplicate column
// names the rightmost one wins.
func (rs *ResultSet) Row(i int) Row {
	if rs == nil || i < 0 || i >= len(rs.Rows) {
		return nil
	}

	row := make(Row, len(rs.Columns))
	for j, c := range rs.Columns {
		row[c] = rs.Rows[i][j]
	}

	return row
}

// Records returns every row keyed by column name, in result order.
func (rs *ResultSet) Records() []Row {
	out := make([]Row, 0, rs.Len())
	for i := 0; i < rs.Len(); i++ {
		out = append(out, rs.Row(i))
	}

	return out
}

func scanRows(rows *sql.Rows) (*ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rs := &ResultSet{Columns: columns, Rows: [][]any{}}

	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))

		for i := range values {
			dest[i] = &values[i]
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}

		rs.Rows = append(rs.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rs, nil
}

// Pairs is the ordered key/value result of FetchPairs.
type Pairs struct {
	keys   []any
	values map[any]any
}

func newPairs() *Pairs {
	return &Pairs{values: make(map[any]any)}
}

// set stores value under key. A repeated key takes the new value and moves to the end.
func (p *Pairs) set(key, value any) {
	if _, ok := p.values[key]; ok {
		if i := slices.Index(p.keys, key); i >= 0 {
			p.keys = slices.Delete(p.keys, i, i+1)
		}
	}

	p.keys = append(p.keys, key)
	p.values[key] = value
}

// Keys returns the keys in the order they were last seen.
func (p *Pairs) Keys() []any {
	return slices.Clone(p.keys)
}

// Get returns the value stored under key.
func (p *Pairs) Get(key any) (any, bool) {
	v, ok := p.values[key]

	return v, ok
}

// Len returns the number of distinct keys.
func (p *Pairs) Len() int {
	return len(p.keys)
}

// Map returns the pairs as a plain map, losing their order.
func (p *Pairs) Map() map[any]any {
	out := make(map[any]any, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}

	return out
}
