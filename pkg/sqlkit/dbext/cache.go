package dbext

import (
	"context"
	"fmt"
	"time"

	"github.com/zeebo/xxh3"
)

// CacheProfile controls how ExecuteCacheQuery caches one query. An empty Key is derived from the
// dialect, the statement and its bind values.
type CacheProfile struct {
	Key string
	TTL time.Duration
}

// ResultCache stores query results. Get reports a miss with ok == false and a nil error.
type ResultCache interface {
	Get(ctx context.Context, key string) (rs *ResultSet, ok bool, err error)
	Set(ctx context.Context, key string, rs *ResultSet, ttl time.Duration) error
}

// ExecuteCacheQuery is ExecuteQuery answered from the result cache when possible. Cache failures
// are logged and the query goes to the database.
func (h *Helper) ExecuteCacheQuery(ctx context.Context, query string, params []any, types []ParamType,
	profile CacheProfile) (*ResultSet, error) {
	if h.cache == nil {
		return nil, ErrNoResultCache
	}

	stmt, args, err := h.prepare(query, params, types)
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}

	key := profile.Key
	if key == "" {
		key = h.cacheKey(stmt, args)
	}

	rs, ok, err := h.cache.Get(ctx, key)

	switch {
	case err != nil:
		if l := h.log(ctx); l != nil {
			l.Warnf("result cache get %s: %v", key, err)
		}
	case ok:
		h.increment(ctx, "app_sql_cache_hits")

		return rs, nil
	}

	h.increment(ctx, "app_sql_cache_misses")

	rs, err = h.ExecuteQuery(ctx, query, params, types...)
	if err != nil {
		return nil, err
	}

	if err := h.cache.Set(ctx, key, rs, profile.TTL); err != nil {
		if l := h.log(ctx); l != nil {
			l.Warnf("result cache set %s: %v", key, err)
		}
	}

	return rs, nil
}

func (h *Helper) cacheKey(stmt string, args []any) string {
	hasher := xxh3.New()

	_, _ = hasher.WriteString(string(h.builder.Dialect()))
	_, _ = hasher.WriteString("\x00")
	_, _ = hasher.WriteString(stmt)

	for _, a := range args {
		_, _ = fmt.Fprintf(hasher, "\x00%T:%v", a, a)
	}

	return fmt.Sprintf("sqlkit:%016x", hasher.Sum64())
}
