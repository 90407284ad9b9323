package dbext

import (
	"context"
	"fmt"
)

// The fetchers take bind values variadically. A single slice argument ([]byte excepted) is
// spread, so FetchCol(ctx, q, ids) and FetchCol(ctx, q, ids...) bind the same values.

// FetchRow returns the first row of the result, or nil when there is none.
func (h *Helper) FetchRow(ctx context.Context, query string, params ...any) (Row, error) {
	rs, err := h.ExecuteQuery(ctx, query, flatten(params))
	if err != nil {
		return nil, err
	}

	return rs.Row(0), nil
}

// FetchCol returns the first column of every row in result order.
func (h *Helper) FetchCol(ctx context.Context, query string, params ...any) ([]any, error) {
	rs, err := h.ExecuteQuery(ctx, query, flatten(params))
	if err != nil {
		return nil, err
	}

	col := make([]any, 0, rs.Len())

	for _, row := range rs.Rows {
		if len(row) > 0 {
			col = append(col, row[0])
		}
	}

	return col, nil
}

// FetchOne returns the first column of the first row, or nil when there is no row.
func (h *Helper) FetchOne(ctx context.Context, query string, params ...any) (any, error) {
	rs, err := h.ExecuteQuery(ctx, query, flatten(params))
	if err != nil {
		return nil, err
	}

	if rs.Len() == 0 || len(rs.Rows[0]) == 0 {
		return nil, nil
	}

	return rs.Rows[0][0], nil
}

// FetchPairs maps the first column to the second. A key seen again overwrites the earlier value
// and moves to the position of its last occurrence.
func (h *Helper) FetchPairs(ctx context.Context, query string, params ...any) (*Pairs, error) {
	rs, err := h.ExecuteQuery(ctx, query, flatten(params))
	if err != nil {
		return nil, err
	}

	if len(rs.Columns) != 2 {
		return nil, fmt.Errorf("%w: got %d", ErrNotTwoColumns, len(rs.Columns))
	}

	pairs := newPairs()
	for _, row := range rs.Rows {
		pairs.set(row[0], row[1])
	}

	return pairs, nil
}
