package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/sllt/sqlkit/pkg/sqlkit/config"
	"github.com/sllt/sqlkit/pkg/sqlkit/datasource/redis"
	sqlds "github.com/sllt/sqlkit/pkg/sqlkit/datasource/sql"
	"github.com/sllt/sqlkit/pkg/sqlkit/dbext"
	"github.com/sllt/sqlkit/pkg/sqlkit/logging"
	"github.com/sllt/sqlkit/pkg/sqlkit/metrics"
	"github.com/sllt/sqlkit/pkg/sqlkit/querycache"
)

const shutdownTimeout = 5 * time.Second

// app holds the process wide dependencies every command shares.
type app struct {
	config  config.Config
	logger  logging.Logger
	metrics metrics.Manager
	db      *sqlds.DB
	redis   *redis.Redis

	helperConfig   dbext.Config
	shutdownTracer shutdownFunc
}

func newApp(ctx context.Context, configDir string) (*app, error) {
	logger := logging.NewLogger(logging.INFO)

	c := config.NewEnvFile(configDir, logger)
	logger.ChangeLevel(logging.GetLevelFromString(c.Get("LOG_LEVEL")))

	m, err := metrics.NewMetricsManager(serviceName, logger)
	if err != nil {
		return nil, errors.Wrap(err, "could not create metrics manager")
	}

	dbext.RegisterMetrics(m)

	shutdown, err := initTracer(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	helperConfig, err := dbext.ConfigFromEnv(c)
	if err != nil {
		_ = shutdown(ctx)

		return nil, err
	}

	db, err := sqlds.NewSQL(c, logger, m)
	if err != nil {
		_ = shutdown(ctx)

		return nil, err
	}

	helperConfig.Dialect = db.Dialect()

	return &app{
		config:         c,
		logger:         logger,
		metrics:        m,
		db:             db,
		helperConfig:   helperConfig,
		shutdownTracer: shutdown,
	}, nil
}

// helper returns a Helper over conn. withCache connects to Redis on first use.
func (a *app) helper(conn dbext.Connection, withCache bool) (*dbext.Helper, error) {
	opts := []dbext.Option{dbext.WithLogger(a.logger), dbext.WithMetrics(a.metrics)}

	if withCache {
		if a.redis == nil {
			rc, err := redis.NewClient(a.config, a.logger, a.metrics)
			if err != nil {
				return nil, err
			}

			a.redis = rc
		}

		opts = append(opts, dbext.WithCache(querycache.NewRedis(a.redis, a.config.Get("REDIS_CACHE_PREFIX"))))
	}

	return dbext.New(conn, a.helperConfig, opts...)
}

func (a *app) close() {
	a.db.RecordPoolStats()

	if err := a.db.Close(); err != nil {
		a.logger.Errorf("error closing database: %v", err)
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Errorf("error closing redis: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.shutdownTracer(ctx); err != nil {
		a.logger.Errorf("error shutting down tracer: %v", err)
	}
}
