package dbext

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	entries map[string]*ResultSet
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]*ResultSet{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (*ResultSet, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}

	rs, ok := c.entries[key]

	return rs, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, rs *ResultSet, ttl time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}

	c.entries[key] = rs
	c.ttls[key] = ttl

	return nil
}

func TestExecuteCacheQuery(t *testing.T) {
	cache := newMemoryCache()
	metrics := newTestMetrics()

	h, mock := newMockHelper(t, DefaultConfig(), WithCache(cache), WithMetrics(metrics))

	mock.ExpectQuery("SELECT name FROM users WHERE id = ?").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("alice"))

	profile := CacheProfile{TTL: time.Minute}

	first, err := h.ExecuteCacheQuery(t.Context(), "SELECT name FROM users WHERE id = ?", []any{1}, nil, profile)
	require.NoError(t, err)

	second, err := h.ExecuteCacheQuery(t.Context(), "SELECT name FROM users WHERE id = ?", []any{1}, nil, profile)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, metrics.counters["app_sql_cache_hits"])
	assert.Equal(t, 1, metrics.counters["app_sql_cache_misses"])
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, cache.entries, 1)

	for key, ttl := range cache.ttls {
		assert.True(t, strings.HasPrefix(key, "sqlkit:"))
		assert.Equal(t, time.Minute, ttl)
	}
}

func TestExecuteCacheQuery_KeyDependsOnParams(t *testing.T) {
	h, _ := newMockHelper(t, DefaultConfig())

	a := h.cacheKey("SELECT ?", []any{1})
	b := h.cacheKey("SELECT ?", []any{"1"})
	c := h.cacheKey("SELECT ?", []any{2})

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, h.cacheKey("SELECT ?", []any{1}))
}

func TestExecuteCacheQuery_ExplicitKeyAndCacheFailures(t *testing.T) {
	cache := newMemoryCache()
	cache.getErr = errors.New("cache down")
	cache.setErr = errors.New("cache down")

	h, mock := newMockHelper(t, DefaultConfig(), WithCache(cache))

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	rs, err := h.ExecuteCacheQuery(t.Context(), "SELECT 1", nil, nil, CacheProfile{Key: "one"})
	require.NoError(t, err)
	assert.Equal(t, 1, rs.Len())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteCacheQuery_Errors(t *testing.T) {
	h, _ := newMockHelper(t, DefaultConfig())

	_, err := h.ExecuteCacheQuery(t.Context(), "SELECT 1", nil, nil, CacheProfile{})
	require.ErrorIs(t, err, ErrNoResultCache)

	h, _ = newMockHelper(t, DefaultConfig(), WithCache(newMemoryCache()))

	_, err = h.ExecuteCacheQuery(t.Context(), "SELECT ?", nil, nil, CacheProfile{})
	require.ErrorIs(t, err, ErrPlaceholderMismatch)
}
