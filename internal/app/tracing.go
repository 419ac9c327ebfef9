package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/adanyl0v/go-tasklists/internal/config"
)

var globalTracerProvider *sdktrace.TracerProvider

// MustInitTracing installs an OTLP/HTTP tracer provider. Without an endpoint
// the global no-op provider stays in place.
func MustInitTracing() {
	cfg := config.Global().Tracing
	if cfg.Endpoint == "" {
		globalLogger.Debug().Msg("tracing disabled")
		return
	}

	ctx := context.Background()
	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("endpoint", cfg.Endpoint).
			Msg("failed to create otlp exporter")
		panic(err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to build tracing resource")
		panic(err)
	}

	globalTracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(globalTracerProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	globalLogger.Info().
		Str("endpoint", cfg.Endpoint).
		Str("service", cfg.ServiceName).
		Msg("initialized tracing")
}

func ShutdownTracing() {
	if globalTracerProvider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := globalTracerProvider.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown tracer provider")
		return
	}
	globalLogger.Info().Msg("shut down tracing")
}
