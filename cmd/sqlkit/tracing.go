package main

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/sllt/sqlkit/pkg/sqlkit/config"
	"github.com/sllt/sqlkit/pkg/sqlkit/logging"
)

const serviceName = "sqlkit"

var errUnknownExporter = errors.New("unknown TRACE_EXPORTER")

type shutdownFunc func(context.Context) error

// initTracer installs a global tracer provider exporting to TRACER_URL with the exporter named by
// TRACE_EXPORTER (zipkin or otlp). Without an exporter spans stay in-process.
func initTracer(ctx context.Context, c config.Config, logger logging.Logger) (shutdownFunc, error) {
	name := strings.ToLower(c.Get("TRACE_EXPORTER"))
	url := c.Get("TRACER_URL")

	if name == "" || url == "" {
		return func(context.Context) error { return nil }, nil
	}

	var (
		exporter sdktrace.SpanExporter
		err      error
	)

	switch name {
	case "zipkin":
		exporter, err = zipkin.New(url)
	case "otlp", "jaeger":
		exporter, err = otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(url), otlptracegrpc.WithInsecure())
	default:
		return nil, errors.Wrapf(errUnknownExporter, "%q", name)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "could not create %s exporter", name)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)

	logger.Infof("exporting traces to '%s' using %s", url, name)

	return tp.Shutdown, nil
}
