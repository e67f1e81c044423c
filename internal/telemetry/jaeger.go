package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"
)

/*
LEARNING: JAEGER INTEGRATION FOR DISTRIBUTED TRACING

Every HTTP request, websocket message and background job opens a span
through middleware.StartSpan. This package decides where those spans go:

  Storefront → OpenTelemetry SDK → Jaeger Exporter → Jaeger Collector → Jaeger UI

Without InitJaeger the global provider is a no-op, so spans cost nothing.
*/

// Shutdown flushes buffered spans.
type Shutdown func(context.Context) error

// Options identifies the service in the Jaeger UI.
type Options struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	// SampleRatio is the fraction of root spans kept. 0 or less keeps
	// none, 1 or more keeps all.
	SampleRatio float64
}

// InitJaeger initializes Jaeger tracing exporter
// Returns a cleanup function that should be called on shutdown
func InitJaeger(opts Options, log *zap.Logger) (Shutdown, error) {
	exp, err := jaeger.New(
		jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(opts.Endpoint)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Jaeger exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(opts.ServiceName),
			semconv.ServiceVersion(opts.ServiceVersion),
			semconv.DeploymentEnvironment(opts.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(opts.SampleRatio)),
	)

	// Set global tracer provider
	// Learning: This makes the tracer available throughout your app
	otel.SetTracerProvider(tp)

	log.Info("✓ Jaeger tracing initialized",
		zap.String("endpoint", opts.Endpoint),
		zap.String("service", opts.ServiceName))

	return tp.Shutdown, nil
}

// sampler follows the parent's decision so a trace is kept or dropped
// as a whole.
func sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

// Noop is used when tracing is disabled or the exporter cannot start.
func Noop(context.Context) error { return nil }
