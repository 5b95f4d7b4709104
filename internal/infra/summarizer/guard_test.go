package summarizer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threatfeed/internal/resilience/circuitbreaker"
	"threatfeed/internal/resilience/retry"
)

type nopRecorder struct{}

func (nopRecorder) RecordRequest(string, string, time.Duration) {}
func (nopRecorder) RecordOutputLength(string, int)              {}

func testGuard(cfg Config) *guard {
	cfg.Retry = retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 1}
	return newGuard("test", circuitbreaker.Config{
		Name:             "test-api",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      2,
	}, cfg, []Option{WithMetricsRecorder(nopRecorder{})})
}

func TestGuard_BreakerOpensAndFailsFast(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestsPerSecond = 0
	g := testGuard(cfg)

	var calls atomic.Int32
	failing := func(context.Context) (string, error) {
		calls.Add(1)
		return "", &retry.HTTPError{StatusCode: 503, Message: "down"}
	}

	_, err := g.run(context.Background(), failing)
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load(), "breaker trips after two failures")
	assert.Contains(t, err.Error(), "circuit breaker open")

	_, err = g.run(context.Background(), failing)
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGuard_NonRetryableStopsImmediately(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestsPerSecond = 0
	g := testGuard(cfg)

	var calls atomic.Int32
	_, err := g.run(context.Background(), func(context.Context) (string, error) {
		calls.Add(1)
		return "", errors.New("invalid prompt")
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGuard_AppliesTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestsPerSecond = 0
	cfg.Timeout = 20 * time.Millisecond
	g := testGuard(cfg)

	_, err := g.run(context.Background(), func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGuard_RateLimiterHonoursContext(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 1
	g := testGuard(cfg)

	ok := func(context.Context) (string, error) { return "fine", nil }

	out, err := g.run(context.Background(), ok)
	require.NoError(t, err)
	assert.Equal(t, "fine", out)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.run(ctx, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}
