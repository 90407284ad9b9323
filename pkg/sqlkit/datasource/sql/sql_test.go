package sql

import (
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sllt/sqlkit/pkg/sqlkit/config"
	"github.com/sllt/sqlkit/pkg/sqlkit/logging"
)

func TestDBConfig_DSN(t *testing.T) {
	tests := []struct {
		desc   string
		config DBConfig
		driver string
		dsn    string
	}{
		{
			desc:   "postgres",
			config: DBConfig{Dialect: "postgres", HostName: "db", Port: "5432", User: "u", Password: "p", Database: "shop", SSLMode: "disable"},
			driver: "postgres",
			dsn:    "host='db' port='5432' user='u' password='p' dbname='shop' sslmode='disable'",
		},
		{
			desc:   "postgres password with quote and space",
			config: DBConfig{Dialect: "postgres", HostName: "db", Port: "5432", User: "u", Password: `it's a \secret`, Database: "shop", SSLMode: "disable"},
			driver: "postgres",
			dsn:    `host='db' port='5432' user='u' password='it\'s a \\secret' dbname='shop' sslmode='disable'`,
		},
		{
			desc:   "pgx",
			config: DBConfig{Dialect: "pgx", HostName: "db", Port: "5432", User: "u", Password: "p@ss", Database: "shop", SSLMode: "require"},
			driver: "pgx",
			dsn:    "postgres://u:p%40ss@db:5432/shop?sslmode=require",
		},
		{
			desc:   "sqlite",
			config: DBConfig{Dialect: "sqlite", Database: ":memory:"},
			driver: "sqlite",
			dsn:    ":memory:",
		},
	}

	for i, tc := range tests {
		driver, dsn, err := tc.config.DSN()

		require.NoError(t, err, "TEST[%d]: %s failed", i, tc.desc)
		assert.Equal(t, tc.driver, driver, "TEST[%d]: %s failed", i, tc.desc)
		assert.Equal(t, tc.dsn, dsn, "TEST[%d]: %s failed", i, tc.desc)
	}
}

func TestDBConfig_MySQLSessionDefaults(t *testing.T) {
	c := DBConfig{Dialect: "mysql", HostName: "localhost", Port: "3306", User: "root", Password: "pw", Database: "shop", Charset: "utf8mb4"}

	driver, dsn, err := c.DSN()
	require.NoError(t, err)
	assert.Equal(t, "mysql", driver)

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)

	assert.Equal(t, "localhost:3306", parsed.Addr)
	assert.Equal(t, "shop", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, "InnoDB", parsed.Params["default_storage_engine"])
	assert.Equal(t, "''", parsed.Params["sql_mode"])
}

func TestDBConfig_UnsupportedDialect(t *testing.T) {
	_, _, err := (&DBConfig{Dialect: "oracle"}).DSN()

	require.Error(t, err)
	assert.ErrorIs(t, err, errUnsupportedDialect)
}

func TestDBConfig_Validate(t *testing.T) {
	tests := []struct {
		desc   string
		config DBConfig
		field  string
	}{
		{"missing dialect", DBConfig{Database: "shop"}, "Dialect"},
		{"unknown dialect", DBConfig{Dialect: "oracle", Database: "shop"}, "Dialect"},
		{"mysql without host", DBConfig{Dialect: "mysql", User: "root", Database: "shop"}, "HostName"},
		{"non numeric port", DBConfig{Dialect: "postgres", HostName: "h", User: "u", Port: "abc", Database: "shop"}, "Port"},
		{"missing database", DBConfig{Dialect: "sqlite"}, "Database"},
		{"bad ssl mode", DBConfig{Dialect: "postgres", HostName: "h", User: "u", Database: "d", SSLMode: "maybe"}, "SSLMode"},
	}

	for i, tc := range tests {
		err := tc.config.Validate()

		require.Error(t, err, "TEST[%d]: %s failed", i, tc.desc)
		assert.Contains(t, err.Error(), tc.field, "TEST[%d]: %s failed", i, tc.desc)
	}

	require.NoError(t, (&DBConfig{Dialect: "sqlite", Database: ":memory:"}).Validate())
}

func TestGetDBConfig_Defaults(t *testing.T) {
	c := getDBConfig(config.NewMockConfig(map[string]string{
		"DB_DIALECT": "PgX",
		"DB_HOST":    "db",
		"DB_NAME":    "shop",
	}))

	assert.Equal(t, "pgx", c.Dialect)
	assert.Equal(t, "5432", c.Port)
	assert.Equal(t, "disable", c.SSLMode)
	assert.Equal(t, 2, c.MaxIdleConn)
	assert.Equal(t, 0, c.MaxOpenConn)

	c = getDBConfig(config.NewMockConfig(map[string]string{"DB_DIALECT": "sqlite", "DB_NAME": ":memory:"}))
	assert.Equal(t, 1, c.MaxOpenConn)
}

func TestNewSQL_SQLite(t *testing.T) {
	ctrl := gomock.NewController(t)
	metrics := NewMockMetrics(ctrl)

	metrics.EXPECT().NewHistogram("app_sql_stats", gomock.Any(), gomock.Any()).AnyTimes()
	metrics.EXPECT().NewGauge(gomock.Any(), gomock.Any()).Times(2)
	metrics.EXPECT().RecordHistogram(gomock.Any(), "app_sql_stats", gomock.Any(), gomock.Any(), gomock.Any(),
		gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	buf := &logging.Buffer{}

	db, err := NewSQL(config.NewMockConfig(map[string]string{"DB_DIALECT": "sqlite", "DB_NAME": ":memory:"}),
		logging.NewBufferLogger(logging.INFO, buf), metrics)
	require.NoError(t, err)

	defer db.Close()

	assert.Equal(t, "sqlite", db.Dialect())
	assert.Contains(t, buf.String(), "connected to ':memory:' database")

	_, err = db.ExecContext(t.Context(), "CREATE TABLE t (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	var count int

	require.NoError(t, db.QueryRowContext(t.Context(), "SELECT COUNT(*) FROM t").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestNewSQL_InvalidConfig(t *testing.T) {
	db, err := NewSQL(config.NewMockConfig(map[string]string{"DB_DIALECT": "mysql"}), nil, nil)

	assert.Nil(t, db)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid database configuration"))
}
