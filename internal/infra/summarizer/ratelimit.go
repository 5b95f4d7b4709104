package summarizer

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket shared by all calls to one provider.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a RateLimiter allowing requestsPerSecond sustained
// requests with bursts of up to burst. A non-positive rate never blocks.
//
// Example:
//
//	limiter := NewRateLimiter(1.0, 3)  // 1 req/s with burst of 3
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a token is available or the context is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
