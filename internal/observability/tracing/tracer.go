package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "threatfeed"

var tracer = otel.Tracer(instrumentationName)

// Config configures the tracer provider.
type Config struct {
	ServiceName string
	Version     string

	// SampleRatio is the fraction of root spans recorded, between 0 and 1.
	SampleRatio float64
}

// Init installs a global tracer provider and the W3C trace context propagator.
// Spans are not exported anywhere; they exist so trace ids flow into logs and
// response headers. Call the returned provider's Shutdown on exit.
func Init(cfg Config) *sdktrace.TracerProvider {
	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.Version),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	tracer = tp.Tracer(instrumentationName)
	return tp
}

// GetTracer returns the application tracer.
func GetTracer() trace.Tracer {
	return tracer
}

// StartSpan starts an internal span named name.
//
//	ctx, span := tracing.StartSpan(ctx, "fetch.source", attribute.String("feed.source", name))
//	defer span.End()
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// TraceID returns the hex trace id of the span in ctx, or "" when there is none.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
