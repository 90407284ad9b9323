package redis

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sllt/sqlkit/pkg/sqlkit/datasource"
)

// QueryLog is the structured entry written at DEBUG level for each command or pipeline.
type QueryLog struct {
	Query    string `json:"query"`
	Duration int64  `json:"duration"`
	Args     any    `json:"args,omitempty"`
}

func (ql *QueryLog) PrettyPrint(writer io.Writer) {
	fmt.Fprintf(writer, "\u001B[38;5;8m%-32s \u001B[38;5;24m%-6s\u001B[0m %8d\u001B[38;5;8mµs\u001B[0m %s\n",
		ql.Query, "REDIS", ql.Duration, ql.String())
}

func (ql *QueryLog) String() string {
	switch args := ql.Args.(type) {
	case []any:
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, fmt.Sprint(a))
		}

		return strings.Join(parts, " ")
	case string:
		return args
	default:
		return ""
	}
}

type redisHook struct {
	config  *Config
	logger  datasource.Logger
	metrics Metrics
}

func (h *redisHook) sendOperationStats(ctx context.Context, start time.Time, query string, args any) {
	duration := time.Since(start).Microseconds()

	if h.logger != nil {
		h.logger.Debug(&QueryLog{Query: query, Duration: duration, Args: args})
	}

	if h.metrics != nil {
		h.metrics.RecordHistogram(context.WithoutCancel(ctx), "app_redis_stats", float64(duration)/1e3,
			"hostname", h.config.HostName, "type", query)
	}
}

func (*redisHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *redisHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.sendOperationStats(ctx, start, cmd.Name(), cmd.Args()[1:])

		return err
	}
}

func (h *redisHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)

		names := make([]string, 0, len(cmds))
		for _, c := range cmds {
			names = append(names, c.Name())
		}

		h.sendOperationStats(ctx, start, "pipeline", strings.Join(names, " "))

		return err
	}
}
