package qb

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

const timeLiteralLayout = "2006-01-02 15:04:05.999999"

var (
	errUnsupportedLiteral = errors.New("[builder] value cannot be rendered as a SQL literal")
	errNonFiniteLiteral   = errors.New("[builder] non-finite float cannot be rendered as a SQL literal")
)

// QuoteIdentifier wraps name in the dialect's identifier delimiters and doubles any embedded
// delimiter: backticks for MySQL, double quotes for PostgreSQL and SQLite.
func (b Builder) QuoteIdentifier(name string) string {
	switch b.Dialect() {
	case DialectPostgres:
		return pq.QuoteIdentifier(name)
	case DialectSQLite:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	default:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
}

// QuoteLiteral renders v as a SQL literal. Supported values are nil, booleans, integers, finite
// floats, strings, byte slices, time.Time and driver.Valuer implementations returning one of those.
func (b Builder) QuoteLiteral(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "NULL", nil
	case driver.Valuer:
		inner, err := val.Value()
		if err != nil {
			return "", err
		}

		return b.QuoteLiteral(inner)
	case bool:
		return b.boolLiteral(val), nil
	case int:
		return strconv.FormatInt(int64(val), 10), nil
	case int8:
		return strconv.FormatInt(int64(val), 10), nil
	case int16:
		return strconv.FormatInt(int64(val), 10), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float32:
		return floatLiteral(float64(val), 32)
	case float64:
		return floatLiteral(val, 64)
	case string:
		return b.stringLiteral(val), nil
	case []byte:
		return b.stringLiteral(string(val)), nil
	case time.Time:
		return b.stringLiteral(val.Format(timeLiteralLayout)), nil
	default:
		return "", fmt.Errorf("%w: %T", errUnsupportedLiteral, v)
	}
}

func (b Builder) boolLiteral(v bool) string {
	if b.Dialect() == DialectPostgres {
		if v {
			return "TRUE"
		}

		return "FALSE"
	}

	if v {
		return "1"
	}

	return "0"
}

func floatLiteral(f float64, bits int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", errNonFiniteLiteral
	}

	return strconv.FormatFloat(f, 'g', -1, bits), nil
}

func (b Builder) stringLiteral(s string) string {
	switch b.Dialect() {
	case DialectPostgres:
		return pq.QuoteLiteral(s)
	case DialectSQLite:
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	default:
		return "'" + mysqlEscaper.Replace(s) + "'"
	}
}

// mysqlEscaper mirrors mysql_real_escape_string for connections without NO_BACKSLASH_ESCAPES.
var mysqlEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	"\x00", `\0`,
	"\n", `\n`,
	"\r", `\r`,
	"\x1a", `\Z`,
)
