package dbext

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteIdentifier_DoublesDelimiter(t *testing.T) {
	names := []string{"plain", "we`ird", "``", "a\"b", `"quoted"`, "mixed`\"`"}

	for _, dialect := range []string{"mysql", "postgres", "sqlite"} {
		cfg := DefaultConfig()
		cfg.Dialect = dialect

		h, _ := newMockHelper(t, cfg)

		delim := "`"
		if dialect != "mysql" {
			delim = `"`
		}

		for _, name := range names {
			quoted := h.QuoteIdentifier(name)

			require.True(t, strings.HasPrefix(quoted, delim) && strings.HasSuffix(quoted, delim), "%s: %s", dialect, quoted)
			assert.Equal(t, strings.ReplaceAll(name, delim, delim+delim), quoted[1:len(quoted)-1], "%s: %s", dialect, name)
		}
	}
}

func TestQuoteIdentifierAs(t *testing.T) {
	h, _ := newMockHelper(t, DefaultConfig())

	tests := []struct {
		ident string
		alias string
		want  string
	}{
		{"users", "", "`users`"},
		{"users", "u", "`users` AS `u`"},
		{"users.name", "", "`users`.`name`"},
		{"users.name", "name", "`users`.`name`"},
		{"users.name", "user_name", "`users`.`name` AS `user_name`"},
	}

	for i, tc := range tests {
		assert.Equal(t, tc.want, h.QuoteIdentifierAs(tc.ident, tc.alias), "TEST[%d]", i)
	}

	assert.Equal(t, "`shop`.`users` AS `u`", h.QuoteTableAs("shop.users", "u"))
	assert.Equal(t, "`u`.`id` AS `user_id`", h.QuoteColumnAs("u.id", "user_id"))
}

func TestQuoteIdentifierAs_WithoutAutoQuote(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoQuoteIdentifiers = false

	h, _ := newMockHelper(t, cfg)

	assert.Equal(t, "users.name AS n", h.QuoteIdentifierAs("users.name", "n"))
	assert.Equal(t, "users.name", h.QuoteColumnAs("users.name", "name"))
}

func TestQuote(t *testing.T) {
	h, _ := newMockHelper(t, DefaultConfig())

	tests := []struct {
		desc  string
		value any
		typ   ParamType
		want  string
	}{
		{"string", "it's", TypeDefault, `'it\'s'`},
		{"integer from string", "42", TypeInteger, "42"},
		{"string from integer", 42, TypeString, "'42'"},
		{"null type", "ignored", TypeNull, "NULL"},
		{"nil", nil, TypeString, "NULL"},
		{"bool", true, TypeBool, "1"},
		{"time", time.Date(2005, 1, 2, 0, 0, 0, 0, time.UTC), TypeDefault, "'2005-01-02 00:00:00'"},
		{"integer array", []any{1, "2"}, TypeIntegerArray, "1, 2"},
		{"string array", []string{"a", "b"}, TypeStringArray, "'a', 'b'"},
		{"empty array", []int{}, TypeIntegerArray, "NULL"},
	}

	for i, tc := range tests {
		got, err := h.Quote(tc.value, tc.typ)

		require.NoError(t, err, "TEST[%d]: %s failed", i, tc.desc)
		assert.Equal(t, tc.want, got, "TEST[%d]: %s failed", i, tc.desc)
	}

	_, err := h.Quote(struct{}{}, TypeDefault)
	require.Error(t, err)

	_, err = h.Quote("x", TypeIntegerArray)
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestQuoteInto(t *testing.T) {
	h, _ := newMockHelper(t, DefaultConfig())

	got, err := h.QuoteInto("WHERE date < ?", "2005-01-02", TypeDefault, ReplaceAll)
	require.NoError(t, err)
	assert.Equal(t, "WHERE date < '2005-01-02'", got)

	got, err = h.QuoteInto("a = ? OR b = ? OR c = ?", 7, TypeDefault, ReplaceAll)
	require.NoError(t, err)
	assert.Equal(t, "a = 7 OR b = 7 OR c = 7", got)

	got, err = h.QuoteInto("a = ? OR b = ? OR c = ?", 7, TypeString, 2)
	require.NoError(t, err)
	assert.Equal(t, "a = '7' OR b = '7' OR c = ?", got)

	got, err = h.QuoteInto("id IN (?)", []int{1, 2}, TypeIntegerArray, 1)
	require.NoError(t, err)
	assert.Equal(t, "id IN (1, 2)", got)

	got, err = h.QuoteInto("a = ?", 1, TypeDefault, 0)
	require.NoError(t, err)
	assert.Equal(t, "a = ?", got)
}

func TestLimit(t *testing.T) {
	h, _ := newMockHelper(t, DefaultConfig())

	got, err := h.Limit("SELECT * FROM t", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t LIMIT 10", got)

	got, err = h.Limit("SELECT * FROM t", 10, 5)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t LIMIT 10 OFFSET 5", got)

	tests := []struct {
		count, offset int
		argument      string
	}{
		{0, 0, "count"},
		{-1, 0, "count"},
		{10, -1, "offset"},
	}

	for i, tc := range tests {
		_, err := h.Limit("SELECT * FROM t", tc.count, tc.offset)

		var ae *ArgumentError

		require.ErrorAs(t, err, &ae, "TEST[%d]", i)
		assert.Equal(t, tc.argument, ae.Argument, "TEST[%d]", i)
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%\_off`, EscapeLike("100%_off"))
	assert.Equal(t, "plain", EscapeLike("plain"))

	h, _ := newMockHelper(t, DefaultConfig())
	assert.Equal(t, `a\_b`, h.EscapeLike("a_b"))
}
