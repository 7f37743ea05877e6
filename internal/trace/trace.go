package trace

import (
	"context"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// The tracer provider is owned by the logger package; this package is the
// span facade the rest of the codebase uses. The tracer is resolved lazily
// from the global provider, so spans started before logger.Init become
// no-ops and spans started after are exported normally.
var (
	tracer  trace.Tracer
	once    sync.Once
	enabled = getEnv("LOG_TRACING_ENABLED", "true") == "true"
)

func StartSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if !enabled {
		return ctx, trace.SpanFromContext(ctx)
	}
	once.Do(func() {
		tracer = otel.Tracer("asx-auto-trader")
	})
	return tracer.Start(ctx, spanName, opts...)
}

func Enabled() bool {
	return enabled
}

func GetTraceFields(ctx context.Context) (traceID, spanID string, ok bool) {
	if !enabled {
		return "", "", false
	}
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return "", "", false
	}
	return span.SpanContext().TraceID().String(),
		span.SpanContext().SpanID().String(),
		true
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
