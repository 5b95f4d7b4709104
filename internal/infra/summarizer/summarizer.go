// Package summarizer provides language model adapters for brief generation.
// It includes adapters for Claude (Anthropic), OpenAI and Gemini, each guarded
// by a token bucket, retry with backoff and a circuit breaker, with
// observability through structured logging and Prometheus metrics.
package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"threatfeed/internal/resilience/circuitbreaker"
	"threatfeed/internal/resilience/retry"
	"threatfeed/internal/usecase/brief"
	"threatfeed/internal/utils/text"
)

// New builds the generator selected by cfg.Provider. Without an API key it
// returns a Noop generator that reports itself unconfigured.
func New(ctx context.Context, cfg Config, opts ...Option) (brief.Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.APIKey == "" {
		slog.Warn("no API key configured for brief provider, AI routes disabled",
			slog.String("provider", cfg.Provider))
		return NewNoop(cfg.Provider), nil
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAI(cfg, opts...), nil
	case ProviderGemini:
		return NewGemini(ctx, cfg, opts...)
	default:
		return NewClaude(cfg, opts...), nil
	}
}

// Option customizes a provider adapter.
type Option func(*guard)

// WithMetricsRecorder replaces the Prometheus recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(g *guard) { g.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *guard) { g.logger = logger }
}

// guard runs provider calls through the limiter, retry policy and breaker.
type guard struct {
	name        string
	breaker     *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
	limiter     *RateLimiter
	timeout     time.Duration
	metrics     MetricsRecorder
	logger      *slog.Logger
}

func newGuard(name string, cbConfig circuitbreaker.Config, cfg Config, opts []Option) *guard {
	g := &guard{
		name:        name,
		breaker:     circuitbreaker.New(cbConfig),
		retryConfig: cfg.retryConfig(),
		limiter:     NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
		timeout:     cfg.Timeout,
		metrics:     NewPrometheusMetrics(),
		logger:      slog.Default(),
	}
	if g.timeout <= 0 {
		g.timeout = 60 * time.Second
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *guard) run(ctx context.Context, call func(ctx context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	cfg := g.retryConfig
	cfg.Logger = g.logger.With(slog.String("provider", g.name))

	result, retryErr := retry.Do(ctx, cfg, func() (string, error) {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", retry.Permanent(fmt.Errorf("rate limiter: %w", err))
		}

		out, err := circuitbreaker.Run(g.breaker, func() (string, error) {
			return call(ctx)
		})
		if circuitbreaker.IsRejection(err) {
			g.logger.WarnContext(ctx, "api circuit breaker open, request rejected",
				slog.String("service", g.breaker.Name()),
				slog.String("state", g.breaker.State().String()))
			return "", retry.Permanent(fmt.Errorf("%s api unavailable: circuit breaker open", g.name))
		}
		return out, err
	})

	duration := time.Since(start)
	if retryErr != nil {
		g.metrics.RecordRequest(g.name, statusError, duration)
		return "", fmt.Errorf("%s generate failed: %w", g.name, retryErr)
	}

	g.metrics.RecordRequest(g.name, statusSuccess, duration)
	g.metrics.RecordOutputLength(g.name, text.CountRunes(result))
	return result, nil
}

// httpStatusError converts an SDK error carrying an HTTP status into a
// retry.HTTPError so the retry policy can classify it.
func httpStatusError(provider string, status int, retryAfter string, err error) error {
	return &retry.HTTPError{
		StatusCode: status,
		Message:    fmt.Sprintf("%s api error: %v", provider, err),
		RetryAfter: retry.ParseRetryAfter(retryAfter, time.Now()),
	}
}
