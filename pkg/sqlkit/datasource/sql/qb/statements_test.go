package qb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInsert(t *testing.T) {
	query, vals, err := Default().BuildInsert("users", []Column{{Name: "`id`", Value: 1}, {Name: "`name`", Value: "alice"}})

	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (`id`, `name`) VALUES (?, ?)", query)
	assert.Equal(t, []any{1, "alice"}, vals)

	_, _, err = Default().BuildInsert("users", nil)
	assert.ErrorIs(t, err, errEmptyData)
}

func TestBuildUpdate(t *testing.T) {
	query, vals, err := Default().BuildUpdate("users",
		[]Column{{Name: "`name`", Value: "alice"}},
		[]Column{{Name: "`id`", Value: 3}, {Name: "`deleted_at`", Value: nil}})

	require.NoError(t, err)
	assert.Equal(t, "UPDATE users SET `name` = ? WHERE `id` = ? AND `deleted_at` IS NULL", query)
	assert.Equal(t, []any{"alice", 3}, vals)

	query, _, err = Default().BuildUpdate("users", []Column{{Name: "a", Value: 1}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE users SET a = ?", query)
}

func TestBuildUpdateWhere(t *testing.T) {
	query, vals, err := Default().BuildUpdateWhere("users", []Column{{Name: "`a`", Value: 1}, {Name: "`b`", Value: 2}}, "id > 10")

	require.NoError(t, err)
	assert.Equal(t, "UPDATE users SET `a` = ?, `b` = ? WHERE id > 10", query)
	assert.Equal(t, []any{1, 2}, vals)

	_, _, err = Default().BuildUpdateWhere("users", nil, "")
	assert.ErrorIs(t, err, errEmptyData)
}

func TestBuildDeleteWhere(t *testing.T) {
	assert.Equal(t, "DELETE FROM users", Default().BuildDeleteWhere("users", ""))
	assert.Equal(t, "DELETE FROM users WHERE id = 1", Default().BuildDeleteWhere("users", "id = 1"))
}

func TestBuildSelectColumn(t *testing.T) {
	assert.Equal(t, "SELECT `id` FROM users WHERE active = 0", Default().BuildSelectColumn("`id`", "users", "active = 0"))
}

func TestBuildInList(t *testing.T) {
	clause, err := Default().BuildInList("`id`", []any{1, "x'y", nil})

	require.NoError(t, err)
	assert.Equal(t, "`id` IN (1, 'x\\'y', NULL)", clause)

	_, err = Default().BuildInList("`id`", []any{struct{}{}})
	assert.ErrorIs(t, err, errUnsupportedLiteral)
}
