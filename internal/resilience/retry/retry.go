// Package retry runs an operation a bounded number of times with fixed or
// exponential delays. Waits honour context cancellation and a server's
// Retry-After hint.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// Config is a retry policy.
type Config struct {
	// MaxAttempts counts the first attempt. Values below 1 mean 1.
	MaxAttempts int

	InitialDelay time.Duration

	// MaxDelay caps computed delays and Retry-After hints. Zero means no cap.
	MaxDelay time.Duration

	// Multiplier grows the delay after each retry; 1 keeps it fixed.
	Multiplier float64

	// JitterFraction adds up to this fraction of the delay at random.
	JitterFraction float64

	// RetryIf decides whether an error is worth another attempt.
	// Nil means IsRetryable.
	RetryIf func(error) bool

	// Logger receives one line per retry. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultConfig is three attempts with exponential backoff from one second.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2,
		JitterFraction: 0.1,
	}
}

// FeedFetchConfig is the feed download policy: maxRetries extra attempts, a
// fixed delay and no jitter. Everything but cancellation and Permanent errors
// is retried.
func FeedFetchConfig(maxRetries int, delay time.Duration) Config {
	return Config{
		MaxAttempts:  max(maxRetries, 0) + 1,
		InitialDelay: delay,
		MaxDelay:     30 * time.Second,
		Multiplier:   1,
		RetryIf:      RetryUnlessPermanent,
	}
}

// AIAPIConfig is the text-generation policy. Calls are billed, so it stops
// after three attempts and never waits longer than ten seconds.
func AIAPIConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   2 * time.Second,
		MaxDelay:       10 * time.Second,
		Multiplier:     2,
		JitterFraction: 0.1,
	}
}

// Do calls fn until it succeeds, returns an error RetryIf rejects, or
// MaxAttempts is reached. The last error is returned wrapped along with the
// zero value of T.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = IsRetryable
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attempts := max(cfg.MaxAttempts, 1)
	multiplier := cfg.Multiplier
	if multiplier <= 0 {
		multiplier = 1
	}

	var zero T
	delay := cfg.InitialDelay
	for attempt := 1; ; attempt++ {
		out, err := fn()
		if err == nil {
			if attempt > 1 {
				logger.InfoContext(ctx, "operation succeeded after retry", slog.Int("attempt", attempt))
			}
			return out, nil
		}
		if !retryIf(err) {
			return zero, err
		}
		if attempt >= attempts {
			return zero, fmt.Errorf("max retry attempts (%d) exceeded: %w", attempts, err)
		}

		wait := delay
		if hint := retryAfter(err); hint > 0 {
			wait = capDelay(hint, cfg.MaxDelay)
		}
		logger.WarnContext(ctx, "operation failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("delay", wait),
			slog.Any("error", err))

		if err := sleep(ctx, wait); err != nil {
			return zero, fmt.Errorf("retry aborted: %w", err)
		}

		delay = capDelay(time.Duration(float64(delay)*multiplier), cfg.MaxDelay)
		delay = addJitter(delay, cfg.JitterFraction)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func capDelay(d, limit time.Duration) time.Duration {
	if limit > 0 && d > limit {
		return limit
	}
	return d
}

// IsRetryable accepts network timeouts, refused or reset connections, and HTTP
// 408, 429 and 5xx. Cancellation, deadlines and Permanent errors are never
// retried.
func IsRetryable(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		IsPermanent(err):
		return false
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ETIMEDOUT),
		errors.Is(err, syscall.ENETUNREACH):
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		code := httpErr.StatusCode
		return code >= 500 && code < 600 ||
			code == http.StatusTooManyRequests ||
			code == http.StatusRequestTimeout
	}
	return false
}

// RetryUnlessPermanent retries everything except caller cancellation and
// Permanent errors. Per-attempt deadlines are retried.
func RetryUnlessPermanent(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled) && !IsPermanent(err)
}

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	Message    string

	// RetryAfter is the server's Retry-After hint, zero when absent.
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// ParseRetryAfter reads a Retry-After value in delta-seconds or HTTP-date form.
// Empty, invalid and past values give zero.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(max(secs, 0)) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		return max(t.Sub(now), 0)
	}
	return 0
}

func retryAfter(err error) time.Duration {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.RetryAfter
	}
	return 0
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Permanent(nil) is nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err, or anything it wraps, came from Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

func addJitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 || d <= 0 {
		return d
	}
	fraction = min(fraction, 1)
	// #nosec G404 -- jitter does not need a cryptographic source.
	return d + time.Duration(rand.Float64()*float64(d)*fraction)
}
