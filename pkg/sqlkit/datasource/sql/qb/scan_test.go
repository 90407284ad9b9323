package qb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		query   string
		want    int
	}{
		{"none", "mysql", "SELECT 1", 0},
		{"plain", "mysql", "SELECT * FROM t WHERE a = ? AND b = ?", 2},
		{"single quoted", "mysql", "SELECT '?' , ?", 1},
		{"doubled quote", "mysql", "SELECT 'it''s ?', ?", 1},
		{"backslash escaped quote", "mysql", `SELECT 'it\'s ?', ?`, 1},
		{"double quoted", "sqlite", `SELECT "col?" FROM t WHERE x = ?`, 1},
		{"backtick", "mysql", "SELECT `a?b` FROM t WHERE x = ?", 1},
		{"line comment", "mysql", "SELECT ? -- why?\n, ?", 2},
		{"hash comment", "mysql", "SELECT ? # why?\n", 1},
		{"hash is not a comment in postgres", "postgres", "SELECT ? # ?", 2},
		{"block comment", "postgres", "SELECT /* ? */ ?", 1},
		{"unterminated string", "mysql", "SELECT ?, 'abc ?", 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MustNew(tc.dialect).CountPlaceholders(tc.query))
		})
	}
}

func TestPlaceholders_Positions(t *testing.T) {
	assert.Equal(t, []int{7, 10}, Default().Placeholders("SELECT ?, ?"))
}

func TestPlaceholders_PostgresBackslashIsLiteral(t *testing.T) {
	// In standard conforming strings the backslash does not escape the closing quote.
	assert.Equal(t, 1, MustNew("postgres").CountPlaceholders(`SELECT 'a\', ?`))
}
