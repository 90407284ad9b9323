package dbext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sllt/sqlkit/pkg/sqlkit/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.AutoQuoteIdentifiers)
	assert.Equal(t, "mysql", cfg.Dialect)
	assert.Equal(t, 1000, cfg.DeleteBatchSize)
	assert.Zero(t, cfg.DeleteBatchRate)
	assert.Empty(t, cfg.ConflictColumns)
}

func TestConfigFromEnv(t *testing.T) {
	cfg, err := ConfigFromEnv(config.NewMockConfig(map[string]string{
		"DB_DIALECT":                "postgres",
		"DB_AUTO_QUOTE_IDENTIFIERS": "false",
		"DB_DELETE_BATCH_SIZE":      "250",
		"DB_DELETE_BATCH_RATE":      "2.5",
		"DB_CONFLICT_COLUMNS":       "tenant_id, id,,",
	}))
	require.NoError(t, err)

	assert.Equal(t, Config{
		AutoQuoteIdentifiers: false,
		Dialect:              "postgres",
		DeleteBatchSize:      250,
		DeleteBatchRate:      2.5,
		ConflictColumns:      []string{"tenant_id", "id"},
	}, cfg)

	cfg, err = ConfigFromEnv(config.NewMockConfig(map[string]string{}))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfigFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"DB_AUTO_QUOTE_IDENTIFIERS", "sometimes"},
		{"DB_DELETE_BATCH_SIZE", "0"},
		{"DB_DELETE_BATCH_SIZE", "lots"},
		{"DB_DELETE_BATCH_RATE", "-1"},
	}

	for i, tc := range tests {
		_, err := ConfigFromEnv(config.NewMockConfig(map[string]string{tc.key: tc.value}))

		require.Error(t, err, "TEST[%d]", i)
		assert.Contains(t, err.Error(), tc.key, "TEST[%d]", i)
	}
}
