package dbext

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	sqlds "github.com/sllt/sqlkit/pkg/sqlkit/datasource/sql"
)

func newSQLiteHelper(t *testing.T, cfg Config) *Helper {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	// every connection to :memory: opens its own database
	db.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(t.Context(),
		`CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT, hits INTEGER NOT NULL DEFAULT 0)`)
	require.NoError(t, err)

	cfg.Dialect = "sqlite"

	h, err := New(sqlds.NewDB(db, &sqlds.DBConfig{Dialect: "sqlite"}, nil, nil), cfg)
	require.NoError(t, err)

	return h
}

func TestSQLite_InsertUpsertAndFetch(t *testing.T) {
	h := newSQLiteHelper(t, DefaultConfig())
	ctx := t.Context()

	n, err := h.Insert(ctx, "kv", map[string]any{"k": "a", "v": "one", "hits": "1"}, ColumnTypes{"hits": TypeInteger})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = h.Insert(ctx, "kv", map[string]any{"k": "b", "v": nil}, nil)
	require.NoError(t, err)

	_, err = h.InsertOrUpdate(ctx, "kv", map[string]any{"k": "a", "v": "uno", "hits": 2})
	require.NoError(t, err)

	_, err = h.InsertOrUpdate(ctx, "kv", map[string]any{"k": "c", "v": "three", "hits": 3})
	require.NoError(t, err)

	v, err := h.FetchOne(ctx, "SELECT v FROM kv WHERE k = ?", "a")
	require.NoError(t, err)
	assert.Equal(t, "uno", v)

	pairs, err := h.FetchPairs(ctx, "SELECT k, hits FROM kv ORDER BY k")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c"}, pairs.Keys())

	hits, _ := pairs.Get("a")
	assert.Equal(t, int64(2), hits)

	n, err = h.Update(ctx, "kv", map[string]any{"v": "two"}, map[string]any{"v": nil}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	row, err := h.FetchRow(ctx, "SELECT k, v FROM kv WHERE k = ?", []any{"b"})
	require.NoError(t, err)
	assert.Equal(t, Row{"k": "b", "v": "two"}, row)

	rs, err := h.ExecuteQuery(ctx, "SELECT k FROM kv WHERE k IN (?) ORDER BY k", []any{[]string{"a", "b"}}, TypeStringArray)
	require.NoError(t, err)
	assert.Equal(t, []Row{{"k": "a"}, {"k": "b"}}, rs.Records())
}

func TestSQLite_SelectAndDeleteWhere(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DeleteBatchSize = 1000

	h := newSQLiteHelper(t, cfg)
	ctx := t.Context()

	for i := range 2600 {
		hits := 0
		if i < 2500 {
			hits = 1
		}

		_, err := h.ExecuteUpdate(ctx, "INSERT INTO kv (k, hits) VALUES (?, ?)", []any{fmt.Sprintf("key-%04d", i), hits})
		require.NoError(t, err)
	}

	require.NoError(t, h.SelectAndDeleteWhere(ctx, "kv", "k", "hits = 1"))

	left, err := h.FetchOne(ctx, "SELECT COUNT(*) FROM kv")
	require.NoError(t, err)
	assert.Equal(t, int64(100), left)

	n, err := h.UpdateWhere(ctx, "kv", map[string]any{"hits": 9}, "k >= 'key-2550'")
	require.NoError(t, err)
	assert.Equal(t, int64(50), n)

	n, err = h.DeleteWhere(ctx, "kv", "")
	require.NoError(t, err)
	assert.Equal(t, int64(100), n)
}

func TestSQLite_QueryIgnoreError(t *testing.T) {
	h := newSQLiteHelper(t, DefaultConfig())

	rs, err := h.QueryIgnoreError(t.Context(), "SELECT * FROM missing_table")
	require.NoError(t, err)
	assert.Nil(t, rs)

	_, err = h.QueryIgnoreError(t.Context(), "SELECT * FROM missing_table", KindOf[*QueryError]())

	var ve *ValidationError

	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Error(), "missing_table")
}
