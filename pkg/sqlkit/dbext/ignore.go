package dbext

import (
	"context"
)

// QueryIgnoreError runs query for callers that accept failure, such as DDL that may already have
// been applied. An error matching one of exclusions is returned as a *ValidationError; any other
// error is logged and dropped, giving (nil, nil).
func (h *Helper) QueryIgnoreError(ctx context.Context, query string, exclusions ...ErrorMatcher) (*ResultSet, error) {
	rs, err := h.Query(ctx, query)
	if err == nil {
		return rs, nil
	}

	for _, match := range exclusions {
		if match != nil && match(err) {
			return nil, &ValidationError{Err: err}
		}
	}

	h.increment(ctx, "app_sql_ignored_errors")

	if l := h.log(ctx); l != nil {
		l.Warnf("ignoring error: %v", err)
	}

	return nil, nil
}
