// Package telemetry configures OpenTelemetry tracing for the API.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"agrigenie/internal/config"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(ctx context.Context) error

// Setup installs the global tracer provider and propagator. When tracing is
// disabled the no-op provider stays in place and the returned shutdown does
// nothing.
func Setup(cfg config.TracingConfig, logger zerolog.Logger) (ShutdownFunc, error) {
	return setup(cfg, os.Stdout, logger)
}

func setup(cfg config.TracingConfig, w io.Writer, logger zerolog.Logger) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled {
		logger.Info().Msg("tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
		)),
	)
	otel.SetTracerProvider(tp)

	logger.Info().Str("service_name", cfg.ServiceName).Msg("tracing enabled")
	return tp.Shutdown, nil
}
