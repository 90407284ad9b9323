// Package metrics registers and records the counters and histograms emitted by the SQL datasource and
// the access helper. Instruments are created through the OpenTelemetry metric API and exported in
// Prometheus format.
package metrics

import (
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

var (
	errMetricDoesNotExist = errors.New("metric with given name is not registered")
	errMetricExists       = errors.New("metric with given name is already registered")
	errInvalidLabels      = errors.New("labels must be given as key/value pairs")
)

// Manager creates and records metrics by name.
type Manager interface {
	NewCounter(name, desc string)
	NewHistogram(name, desc string, buckets ...float64)
	NewGauge(name, desc string)

	IncrementCounter(ctx context.Context, name string, labels ...string)
	RecordHistogram(ctx context.Context, name string, value float64, labels ...string)
	SetGauge(name string, value float64, labels ...string)
}

type logger interface {
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type metricsManager struct {
	meter    metric.Meter
	registry prometheus.Gatherer
	logger   logger

	mu         sync.RWMutex
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
	gauges     map[string]metric.Float64Gauge
}

// NewMetricsManager builds a Manager backed by a dedicated Prometheus registry.
func NewMetricsManager(appName string, l logger) (Manager, error) {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry), otelprom.WithoutTargetInfo())
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	return &metricsManager{
		meter:      provider.Meter(appName),
		registry:   registry,
		logger:     l,
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
		gauges:     make(map[string]metric.Float64Gauge),
	}, nil
}

func (m *metricsManager) NewCounter(name, desc string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.counters[name]; ok {
		m.logger.Warnf("%v: %s", errMetricExists, name)
		return
	}

	c, err := m.meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		m.logger.Errorf("error creating counter %s: %v", name, err)
		return
	}

	m.counters[name] = c
}

func (m *metricsManager) NewHistogram(name, desc string, buckets ...float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.histograms[name]; ok {
		m.logger.Warnf("%v: %s", errMetricExists, name)
		return
	}

	opts := []metric.Float64HistogramOption{metric.WithDescription(desc)}
	if len(buckets) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(buckets...))
	}

	h, err := m.meter.Float64Histogram(name, opts...)
	if err != nil {
		m.logger.Errorf("error creating histogram %s: %v", name, err)
		return
	}

	m.histograms[name] = h
}

func (m *metricsManager) NewGauge(name, desc string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.gauges[name]; ok {
		m.logger.Warnf("%v: %s", errMetricExists, name)
		return
	}

	g, err := m.meter.Float64Gauge(name, metric.WithDescription(desc))
	if err != nil {
		m.logger.Errorf("error creating gauge %s: %v", name, err)
		return
	}

	m.gauges[name] = g
}

func (m *metricsManager) IncrementCounter(ctx context.Context, name string, labels ...string) {
	m.mu.RLock()
	c, ok := m.counters[name]
	m.mu.RUnlock()

	if !ok {
		m.logger.Errorf("%v: %s", errMetricDoesNotExist, name)
		return
	}

	attrs, ok := m.attributes(name, labels)
	if !ok {
		return
	}

	c.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *metricsManager) RecordHistogram(ctx context.Context, name string, value float64, labels ...string) {
	m.mu.RLock()
	h, ok := m.histograms[name]
	m.mu.RUnlock()

	if !ok {
		m.logger.Errorf("%v: %s", errMetricDoesNotExist, name)
		return
	}

	attrs, ok := m.attributes(name, labels)
	if !ok {
		return
	}

	h.Record(ctx, value, metric.WithAttributes(attrs...))
}

func (m *metricsManager) SetGauge(name string, value float64, labels ...string) {
	m.mu.RLock()
	g, ok := m.gauges[name]
	m.mu.RUnlock()

	if !ok {
		m.logger.Errorf("%v: %s", errMetricDoesNotExist, name)
		return
	}

	attrs, ok := m.attributes(name, labels)
	if !ok {
		return
	}

	g.Record(context.Background(), value, metric.WithAttributes(attrs...))
}

func (m *metricsManager) attributes(name string, labels []string) ([]attribute.KeyValue, bool) {
	if len(labels)%2 != 0 {
		m.logger.Errorf("%v: metric %s got %d labels", errInvalidLabels, name, len(labels))
		return nil, false
	}

	attrs := make([]attribute.KeyValue, 0, len(labels)/2)
	for i := 0; i < len(labels); i += 2 {
		attrs = append(attrs, attribute.String(labels[i], labels[i+1]))
	}

	return attrs, true
}
