package redis

import (
	"bytes"
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sllt/sqlkit/pkg/sqlkit/config"
	"github.com/sllt/sqlkit/pkg/sqlkit/logging"
)

type recordedHistogram struct {
	name   string
	labels []string
}

type fakeMetrics struct {
	histograms []string
	records    []recordedHistogram
}

func (f *fakeMetrics) NewHistogram(name, _ string, _ ...float64) {
	f.histograms = append(f.histograms, name)
}

func (f *fakeMetrics) RecordHistogram(_ context.Context, name string, _ float64, labels ...string) {
	f.records = append(f.records, recordedHistogram{name: name, labels: labels})
}

func miniConfig(t *testing.T) (*miniredis.Miniredis, config.Config) {
	t.Helper()

	s := miniredis.RunT(t)

	return s, config.NewMockConfig(map[string]string{
		"REDIS_HOST": s.Host(),
		"REDIS_PORT": s.Port(),
	})
}

func TestNewClient_RunsCommands(t *testing.T) {
	s, cfg := miniConfig(t)
	metrics := &fakeMetrics{}
	buf := &logging.Buffer{}

	client, err := NewClient(cfg, logging.NewBufferLogger(logging.DEBUG, buf), metrics)
	require.NoError(t, err)

	defer client.Close()

	require.NoError(t, client.Set(t.Context(), "k", "v", time.Minute).Err())

	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	assert.Equal(t, []string{"app_redis_stats"}, metrics.histograms)
	require.NotEmpty(t, metrics.records)

	last := metrics.records[len(metrics.records)-1]
	assert.Equal(t, "app_redis_stats", last.name)
	assert.Equal(t, []string{"hostname", s.Host(), "type", "set"}, last.labels)
	assert.Contains(t, buf.String(), `"query":"set"`)
}

func TestNewClient_Pipeline(t *testing.T) {
	_, cfg := miniConfig(t)
	metrics := &fakeMetrics{}

	client, err := NewClient(cfg, nil, metrics)
	require.NoError(t, err)

	defer client.Close()

	_, err = client.Pipelined(t.Context(), func(p redis.Pipeliner) error {
		p.Incr(t.Context(), "a")
		p.Incr(t.Context(), "b")

		return nil
	})
	require.NoError(t, err)

	last := metrics.records[len(metrics.records)-1]
	assert.Equal(t, []string{"hostname", "127.0.0.1", "type", "pipeline"}, last.labels)
}

func TestNewClient_Errors(t *testing.T) {
	_, err := NewClient(config.NewMockConfig(map[string]string{}), nil, nil)
	require.ErrorIs(t, err, errMissingHost)

	_, err = NewClient(config.NewMockConfig(map[string]string{"REDIS_HOST": "localhost", "REDIS_PORT": "x"}), nil, nil)
	require.ErrorContains(t, err, "invalid REDIS_PORT")

	s := miniredis.RunT(t)
	port := s.Port()
	s.Close()

	_, err = NewClient(config.NewMockConfig(map[string]string{"REDIS_HOST": "127.0.0.1", "REDIS_PORT": port}), nil, nil)
	require.ErrorContains(t, err, "could not connect to redis")
}

func TestGetRedisConfig_Defaults(t *testing.T) {
	c, err := getRedisConfig(config.NewMockConfig(map[string]string{"REDIS_HOST": "cache", "REDIS_DB": "3"}))

	require.NoError(t, err)
	assert.Equal(t, "cache:"+strconv.Itoa(defaultRedisPort), c.Options.Addr)
	assert.Equal(t, 3, c.Options.DB)
}

func TestQueryLog_PrettyPrint(t *testing.T) {
	var out bytes.Buffer

	(&QueryLog{Query: "get", Duration: 42, Args: []any{"key"}}).PrettyPrint(&out)

	assert.Contains(t, out.String(), "REDIS")
	assert.Contains(t, out.String(), "key")
}
