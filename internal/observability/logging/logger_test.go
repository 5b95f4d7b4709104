package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"threatfeed/internal/handler/http/requestid"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "output should be valid JSON")
	return entry
}

/* ───────── Level parsing ───────── */

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "", want: slog.LevelInfo},
		{in: "info", want: slog.LevelInfo},
		{in: "DEBUG", want: slog.LevelDebug},
		{in: " warn ", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "verbose", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Info("hidden")
	logger.Warn("shown", slog.String("source_name", "SANS ISC"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")

	entry := decode(t, &buf)
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "SANS ISC", entry["source_name"])
}

func TestNewLogger(t *testing.T) {
	assert.NotNil(t, NewLogger("debug"))
	assert.NotNil(t, NewTextLogger("info"))
}

/* ───────── Context enrichment ───────── */

func TestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, "info")

	ctx := requestid.WithRequestID(context.Background(), "550e8400-e29b-41d4-a716-446655440000")
	WithRequestID(ctx, base).Info("test message")

	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", decode(t, &buf)["request_id"])
}

func TestWithRequestID_Missing(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, "info")

	logger := WithRequestID(context.Background(), base)
	assert.Same(t, base, logger)

	logger.Info("test message")
	assert.NotContains(t, buf.String(), "request_id")
}

func TestWithTraceID(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	var buf bytes.Buffer
	WithTraceID(ctx, New(&buf, "info")).Info("traced")

	assert.Equal(t, span.SpanContext().TraceID().String(), decode(t, &buf)["trace_id"])
}

func TestWithTraceID_Missing(t *testing.T) {
	base := New(&bytes.Buffer{}, "info")
	assert.Same(t, base, WithTraceID(context.Background(), base))
}
