package qb

// Placeholders returns the byte offsets of every ? placeholder in query. Question marks inside
// string literals, quoted identifiers and comments are not placeholders.
func (b Builder) Placeholders(query string) []int {
	var (
		positions []int
		backslash = b.Dialect() == DialectMySQL
	)

	for i := 0; i < len(query); i++ {
		switch c := query[i]; c {
		case '?':
			positions = append(positions, i)
		case '\'', '"', '`':
			i = skipQuoted(query, i, c, backslash && c != '`')
		case '-':
			if i+1 < len(query) && query[i+1] == '-' {
				i = skipLine(query, i)
			}
		case '#':
			if backslash {
				i = skipLine(query, i)
			}
		case '/':
			if i+1 < len(query) && query[i+1] == '*' {
				i = skipBlock(query, i)
			}
		}
	}

	return positions
}

// CountPlaceholders is len(Placeholders(query)).
func (b Builder) CountPlaceholders(query string) int {
	return len(b.Placeholders(query))
}

// skipQuoted returns the offset of the closing quote, treating a doubled quote as an escaped one.
func skipQuoted(query string, start int, quote byte, backslash bool) int {
	for i := start + 1; i < len(query); i++ {
		switch query[i] {
		case '\\':
			if backslash {
				i++
			}
		case quote:
			if i+1 < len(query) && query[i+1] == quote {
				i++
				continue
			}

			return i
		}
	}

	return len(query)
}

func skipLine(query string, start int) int {
	for i := start; i < len(query); i++ {
		if query[i] == '\n' {
			return i
		}
	}

	return len(query)
}

func skipBlock(query string, start int) int {
	for i := start + 2; i+1 < len(query); i++ {
		if query[i] == '*' && query[i+1] == '/' {
			return i + 1
		}
	}

	return len(query)
}
