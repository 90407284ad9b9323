package dbext

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sllt/sqlkit/pkg/sqlkit/config"
)

const defaultDeleteBatchSize = 1000

// Config is fixed when the Helper is built; two helpers over the same connection may differ.
type Config struct {
	// AutoQuoteIdentifiers makes Insert, Update and the QuoteXxxAs helpers quote column names.
	AutoQuoteIdentifiers bool
	// Dialect selects quoting, placeholder and upsert syntax: mysql (default), postgres or sqlite.
	Dialect string
	// DeleteBatchSize is the number of ids per DELETE issued by SelectAndDeleteWhere.
	DeleteBatchSize int
	// DeleteBatchRate caps SelectAndDeleteWhere at this many batches per second. Zero disables it.
	DeleteBatchRate float64
	// ConflictColumns is the unique key InsertOrUpdate resolves conflicts on. Postgres requires it.
	ConflictColumns []string
}

// DefaultConfig returns auto-quoting MySQL settings with batches of 1000 ids.
func DefaultConfig() Config {
	return Config{
		AutoQuoteIdentifiers: true,
		Dialect:              "mysql",
		DeleteBatchSize:      defaultDeleteBatchSize,
	}
}

// ConfigFromEnv overlays the DB_* helper keys on DefaultConfig.
func ConfigFromEnv(c config.Config) (Config, error) {
	cfg := DefaultConfig()

	if d := c.Get("DB_DIALECT"); d != "" {
		cfg.Dialect = d
	}

	if v := c.Get("DB_AUTO_QUOTE_IDENTIFIERS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, errors.Wrap(err, "invalid DB_AUTO_QUOTE_IDENTIFIERS")
		}

		cfg.AutoQuoteIdentifiers = b
	}

	if v := c.Get("DB_DELETE_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, errors.Errorf("invalid DB_DELETE_BATCH_SIZE %q", v)
		}

		cfg.DeleteBatchSize = n
	}

	if v := c.Get("DB_DELETE_BATCH_RATE"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r < 0 {
			return Config{}, errors.Errorf("invalid DB_DELETE_BATCH_RATE %q", v)
		}

		cfg.DeleteBatchRate = r
	}

	if v := c.Get("DB_CONFLICT_COLUMNS"); v != "" {
		for _, col := range strings.Split(v, ",") {
			if col = strings.TrimSpace(col); col != "" {
				cfg.ConflictColumns = append(cfg.ConflictColumns, col)
			}
		}
	}

	return cfg, nil
}
