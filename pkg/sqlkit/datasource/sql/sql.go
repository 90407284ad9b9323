package sql

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/lib/pq"              // registers the "postgres" driver
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/sllt/sqlkit/pkg/sqlkit/config"
	"github.com/sllt/sqlkit/pkg/sqlkit/datasource"
)

const (
	dialectMySQL    = "mysql"
	dialectPostgres = "postgres"
	dialectPGX      = "pgx"
	dialectSQLite   = "sqlite"

	defaultPingTimeout = 5 * time.Second
)

var errUnsupportedDialect = errors.New("unsupported dialect")

// DBConfig has those fields which are required to connect to a database.
type DBConfig struct {
	Dialect     string `validate:"required,oneof=mysql postgres pgx sqlite"`
	HostName    string `validate:"required_unless=Dialect sqlite"`
	User        string `validate:"required_unless=Dialect sqlite"`
	Password    string
	Port        string `validate:"omitempty,number"`
	Database    string `validate:"required"`
	SSLMode     string `validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	Charset     string
	MaxIdleConn int `validate:"gte=0"`
	MaxOpenConn int `validate:"gte=0"`
}

// Metrics is the part of the metrics manager the connection reports to.
type Metrics interface {
	NewHistogram(name, desc string, buckets ...float64)
	NewGauge(name, desc string)

	RecordHistogram(ctx context.Context, name string, value float64, labels ...string)
	SetGauge(name string, value float64, labels ...string)
}

// NewSQL reads the DB_* keys, opens an instrumented pool for the configured dialect and verifies
// it with a ping.
func NewSQL(configs config.Config, logger datasource.Logger, metrics Metrics) (*DB, error) {
	dbConfig := getDBConfig(configs)

	if err := dbConfig.Validate(); err != nil {
		return nil, err
	}

	registerMetrics(metrics)

	driver, dsn, err := dbConfig.DSN()
	if err != nil {
		return nil, err
	}

	db, err := otelsql.Open(driver, dsn, otelsql.WithAttributes(attribute.String("db.system", dbConfig.system())))
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s connection to %s", dbConfig.Dialect, dbConfig.target())
	}

	db.SetMaxIdleConns(dbConfig.MaxIdleConn)
	db.SetMaxOpenConns(dbConfig.MaxOpenConn)

	ctx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, errors.Wrapf(err, "could not connect to %s at %s", dbConfig.Dialect, dbConfig.target())
	}

	if logger != nil {
		logger.Infof("connected to '%s' database at '%s'", dbConfig.Database, dbConfig.target())
	}

	return NewDB(db, dbConfig, logger, metrics), nil
}

func registerMetrics(metrics Metrics) {
	if metrics == nil {
		return
	}

	metrics.NewHistogram("app_sql_stats", "Response time of SQL queries in milliseconds.",
		.05, .075, .1, .125, .15, .2, .3, .5, .75, 1, 2, 3, 4, 5, 7.5, 10)
	metrics.NewGauge("app_sql_open_connections", "Number of open SQL connections.")
	metrics.NewGauge("app_sql_inUse_connections", "Number of in-use SQL connections.")
}

func getDBConfig(configs config.Config) *DBConfig {
	dialect := strings.ToLower(strings.TrimSpace(configs.Get("DB_DIALECT")))

	c := &DBConfig{
		Dialect:  dialect,
		HostName: configs.Get("DB_HOST"),
		User:     configs.Get("DB_USER"),
		Password: configs.Get("DB_PASSWORD"),
		Port:     configs.GetOrDefault("DB_PORT", defaultPort(dialect)),
		Database: configs.Get("DB_NAME"),
		SSLMode:  configs.GetOrDefault("DB_SSL_MODE", "disable"),
		Charset:  configs.Get("DB_CHARSET"),
	}

	c.MaxIdleConn, _ = strconv.Atoi(configs.GetOrDefault("DB_MAX_IDLE_CONNECTION", "2"))
	c.MaxOpenConn, _ = strconv.Atoi(configs.GetOrDefault("DB_MAX_OPEN_CONNECTION", "0"))

	// every connection to an in-memory sqlite database sees its own database
	if dialect == dialectSQLite && c.MaxOpenConn == 0 {
		c.MaxOpenConn = 1
	}

	return c
}

func defaultPort(dialect string) string {
	switch dialect {
	case dialectMySQL:
		return "3306"
	case dialectPostgres, dialectPGX:
		return "5432"
	default:
		return ""
	}
}

// Validate checks the configuration with the struct tags above.
func (c *DBConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid database configuration")
	}

	return nil
}

// DSN returns the database/sql driver name and data source name for the configured dialect.
// MySQL sessions start with default_storage_engine=InnoDB and an empty sql_mode.
func (c *DBConfig) DSN() (driver, dsn string, err error) {
	switch c.Dialect {
	case dialectMySQL:
		cfg := mysql.NewConfig()
		cfg.User = c.User
		cfg.Passwd = c.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(c.HostName, c.Port)
		cfg.DBName = c.Database
		cfg.ParseTime = true
		cfg.InterpolateParams = false
		cfg.Params = map[string]string{
			"default_storage_engine": "InnoDB",
			"sql_mode":               "''",
		}

		if c.Charset != "" {
			cfg.Params["charset"] = c.Charset
		}

		return "mysql", cfg.FormatDSN(), nil

	case dialectPostgres:
		return "postgres", fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			pqValue(c.HostName), pqValue(c.Port), pqValue(c.User), pqValue(c.Password),
			pqValue(c.Database), pqValue(c.SSLMode)), nil

	case dialectPGX:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     net.JoinHostPort(c.HostName, c.Port),
			Path:     "/" + c.Database,
			RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
		}

		return "pgx", u.String(), nil

	case dialectSQLite:
		return "sqlite", c.Database, nil

	default:
		return "", "", fmt.Errorf("%w: %q", errUnsupportedDialect, c.Dialect)
	}
}

// pqEscaper escapes a keyword/value connection string value for single quoting.
var pqEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func pqValue(v string) string {
	return "'" + pqEscaper.Replace(v) + "'"
}

// system is the OpenTelemetry db.system value.
func (c *DBConfig) system() string {
	switch c.Dialect {
	case dialectPostgres, dialectPGX:
		return "postgresql"
	default:
		return c.Dialect
	}
}

func (c *DBConfig) target() string {
	if c.Dialect == dialectSQLite {
		return c.Database
	}

	return net.JoinHostPort(c.HostName, c.Port)
}
