package dbext

import (
	"strings"
)

// ReplaceAll makes QuoteInto replace every placeholder.
const ReplaceAll = -1

var likeEscaper = strings.NewReplacer("_", `\_`, "%", `\%`)

// QuoteIdentifier wraps name in the dialect's delimiters, doubling any delimiter inside it.
func (h *Helper) QuoteIdentifier(name string) string {
	return h.builder.QuoteIdentifier(name)
}

// QuoteIdentifierAs quotes every dot separated segment of ident and appends " AS alias" unless
// alias is empty or equals the last segment. With AutoQuoteIdentifiers off nothing is quoted.
func (h *Helper) QuoteIdentifierAs(ident, alias string) string {
	quoted := h.quotePath(ident, h.config.AutoQuoteIdentifiers)

	segments := strings.Split(ident, ".")
	if alias == "" || segments[len(segments)-1] == alias {
		return quoted
	}

	if h.config.AutoQuoteIdentifiers {
		alias = h.builder.QuoteIdentifier(alias)
	}

	return quoted + " AS " + alias
}

// QuoteColumnAs is QuoteIdentifierAs for a column reference.
func (h *Helper) QuoteColumnAs(ident, alias string) string {
	return h.QuoteIdentifierAs(ident, alias)
}

// QuoteTableAs is QuoteIdentifierAs for a table reference.
func (h *Helper) QuoteTableAs(ident, alias string) string {
	return h.QuoteIdentifierAs(ident, alias)
}

func (h *Helper) quotePath(ident string, quote bool) string {
	if !quote {
		return ident
	}

	segments := strings.Split(ident, ".")
	for i, s := range segments {
		segments[i] = h.builder.QuoteIdentifier(s)
	}

	return strings.Join(segments, ".")
}

// Quote renders value as a SQL literal after converting it to typ. Array types render a comma
// separated list of literals, or NULL when empty.
func (h *Helper) Quote(value any, typ ParamType) (string, error) {
	if typ.isArray() {
		elems, err := expand(value, typ)
		if err != nil {
			return "", err
		}

		if len(elems) == 0 {
			return "NULL", nil
		}

		literals := make([]string, 0, len(elems))

		for _, e := range elems {
			lit, err := h.builder.QuoteLiteral(e)
			if err != nil {
				return "", err
			}

			literals = append(literals, lit)
		}

		return strings.Join(literals, ", "), nil
	}

	v, err := convert(value, typ)
	if err != nil {
		return "", err
	}

	return h.builder.QuoteLiteral(v)
}

// QuoteInto replaces the first count ? in text with the quoted value, left to right. ReplaceAll
// replaces all of them. Every ? counts, including those inside string literals.
func (h *Helper) QuoteInto(text string, value any, typ ParamType, count int) (string, error) {
	quoted, err := h.Quote(value, typ)
	if err != nil {
		return "", err
	}

	return strings.Replace(text, "?", quoted, count), nil
}

// Limit appends LIMIT count and, for a positive offset, OFFSET offset.
func (h *Helper) Limit(query string, count, offset int) (string, error) {
	if count <= 0 {
		return "", &ArgumentError{Argument: "count", Value: count}
	}

	if offset < 0 {
		return "", &ArgumentError{Argument: "offset", Value: offset}
	}

	return query + h.builder.LimitClause(count, offset), nil
}

// EscapeLike backslash-escapes the LIKE wildcards _ and %.
func EscapeLike(pattern string) string {
	return likeEscaper.Replace(pattern)
}

// EscapeLike is the package level EscapeLike, for callers holding only a Helper.
func (*Helper) EscapeLike(pattern string) string {
	return EscapeLike(pattern)
}
