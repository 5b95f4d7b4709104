// Package circuitbreaker guards feed servers and text-generation APIs with
// github.com/sony/gobreaker breakers.
package circuitbreaker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Config describes one breaker. It trips once MinRequests calls have been seen
// in the current Interval and the failure ratio reaches FailureThreshold.
type Config struct {
	Name string

	// MaxRequests is the number of probes let through while half-open.
	MaxRequests uint32

	// Interval clears the closed-state counts. Zero never clears them.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	FailureThreshold float64
	MinRequests      uint32

	// Logger receives state transitions. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a breaker tuned for a remote API that should recover
// within a minute.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// ProviderConfig returns the breaker for a text-generation provider such as
// "claude", "openai" or "gemini".
func ProviderConfig(provider string) Config {
	return DefaultConfig(provider + "-api")
}

// FeedFetchConfig returns the breaker for one feed URL. Feed servers fail
// often and briefly, so it trips only on a sustained failure ratio and
// probes with a single request after five minutes.
func FeedFetchConfig(feedURL string) Config {
	return Config{
		Name:             "feed-fetch:" + feedURL,
		MaxRequests:      1,
		Interval:         10 * time.Minute,
		Timeout:          5 * time.Minute,
		FailureThreshold: 0.8,
		MinRequests:      6,
	}
}

// CircuitBreaker is a named gobreaker breaker.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New builds a breaker from cfg.
func New(cfg Config) *CircuitBreaker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	minRequests, threshold := cfg.MinRequests, cfg.FailureThreshold

	return &CircuitBreaker{
		name: cfg.Name,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				if c.Requests < minRequests {
					return false
				}
				return float64(c.TotalFailures)/float64(c.Requests) >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed",
					slog.String("circuit", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			},
		}),
	}
}

// Execute runs fn through the breaker. While open it returns
// gobreaker.ErrOpenState without calling fn.
func (cb *CircuitBreaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	return cb.breaker.Execute(fn)
}

// Run is Execute with a typed result.
func Run[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	out, err := cb.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}

// IsRejection reports whether err came from the breaker refusing the call
// rather than from the guarded function.
func IsRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func (cb *CircuitBreaker) State() gobreaker.State { return cb.breaker.State() }

func (cb *CircuitBreaker) Name() string { return cb.name }

func (cb *CircuitBreaker) IsOpen() bool { return cb.breaker.State() == gobreaker.StateOpen }
