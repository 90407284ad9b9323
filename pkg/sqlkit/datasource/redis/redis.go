// Package redis connects to the Redis instance that backs the query result cache.
package redis

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/sllt/sqlkit/pkg/sqlkit/config"
	"github.com/sllt/sqlkit/pkg/sqlkit/datasource"
)

const (
	defaultRedisPort = 6379
	pingTimeout      = 5 * time.Second
)

var errMissingHost = errors.New("REDIS_HOST is not set")

// Config holds the connection settings read from REDIS_* keys.
type Config struct {
	HostName string
	Port     int
	DB       int
	Password string
	Options  *redis.Options
}

// Metrics is the part of the metrics manager the client reports to.
type Metrics interface {
	NewHistogram(name, desc string, buckets ...float64)
	RecordHistogram(ctx context.Context, name string, value float64, labels ...string)
}

// Redis is a redis.Client whose commands are logged, measured and traced.
type Redis struct {
	*redis.Client
	logger datasource.Logger
	config *Config
}

// NewClient returns a connected client. A missing REDIS_HOST yields an error so callers can run
// without a cache.
func NewClient(c config.Config, logger datasource.Logger, metrics Metrics) (*Redis, error) {
	redisConfig, err := getRedisConfig(c)
	if err != nil {
		return nil, err
	}

	if metrics != nil {
		metrics.NewHistogram("app_redis_stats", "Response time of Redis commands in milliseconds.",
			.05, .075, .1, .125, .15, .2, .3, .5, .75, 1, 1.25, 1.5, 2, 2.5, 3)
	}

	rc := redis.NewClient(redisConfig.Options)
	rc.AddHook(&redisHook{config: redisConfig, logger: logger, metrics: metrics})

	if err := redisotel.InstrumentTracing(rc); err != nil && logger != nil {
		logger.Errorf("could not add tracing instrumentation to redis, error: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()

		return nil, errors.Wrapf(err, "could not connect to redis at '%s'", redisConfig.Options.Addr)
	}

	if logger != nil {
		logger.Infof("connected to redis at %s on database %d", redisConfig.Options.Addr, redisConfig.DB)
	}

	return &Redis{Client: rc, logger: logger, config: redisConfig}, nil
}

func getRedisConfig(c config.Config) (*Config, error) {
	redisConfig := &Config{
		HostName: c.Get("REDIS_HOST"),
		Password: c.Get("REDIS_PASSWORD"),
	}

	if redisConfig.HostName == "" {
		return nil, errMissingHost
	}

	port, err := strconv.Atoi(c.GetOrDefault("REDIS_PORT", strconv.Itoa(defaultRedisPort)))
	if err != nil {
		return nil, errors.Wrap(err, "invalid REDIS_PORT")
	}

	db, err := strconv.Atoi(c.GetOrDefault("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid REDIS_DB")
	}

	redisConfig.Port = port
	redisConfig.DB = db
	redisConfig.Options = &redis.Options{
		Addr:     net.JoinHostPort(redisConfig.HostName, strconv.Itoa(port)),
		Password: redisConfig.Password,
		DB:       db,
	}

	return redisConfig, nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}

	return r.Client.Close()
}
