// Package telemetry wires OpenTelemetry providers for sift.
//
// Telemetry failures never fail the caller; providers degrade to no-ops.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const serviceName = "sift"

// Config holds telemetry configuration.
type Config struct {
	// Enabled turns OTLP export on. Disabled means no-op providers.
	Enabled bool `koanf:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint, host:port.
	Endpoint string `koanf:"endpoint"`
}

// DefaultConfig returns telemetry defaults (disabled).
func DefaultConfig() *Config {
	return &Config{
		Enabled:  false,
		Endpoint: "localhost:4317",
	}
}

// Telemetry owns the tracer and meter providers and their shutdown.
type Telemetry struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

// New initializes global OTel providers per config.
//
// When disabled, the returned instance is a no-op whose Shutdown is safe
// to call.
func New(ctx context.Context, cfg *Config) (*Telemetry, error) {
	t := &Telemetry{}
	if cfg == nil || !cfg.Enabled {
		return t, nil
	}

	// Standalone resource to avoid schema URL conflicts with
	// resource.Default(), which uses a different semconv version.
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	)

	traceExp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	t.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(t.tracerProvider)

	metricExp, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}
	t.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(t.meterProvider)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return t, nil
}

// Shutdown flushes and stops the providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var first error
	if t.tracerProvider != nil {
		if err := t.tracerProvider.Shutdown(ctx); err != nil {
			first = err
		}
	}
	if t.meterProvider != nil {
		if err := t.meterProvider.Shutdown(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
