package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"threatfeed/internal/handler/http/respond"
	"threatfeed/internal/observability/metrics"
)

// ClientRateLimiterConfig configures ClientRateLimiter.
type ClientRateLimiterConfig struct {
	// RequestsPerSecond is the refill rate of each client's bucket. Zero or
	// less disables limiting.
	RequestsPerSecond float64

	// Burst is the bucket size.
	Burst int

	// IdleTTL is how long an untouched client bucket is kept.
	IdleTTL time.Duration

	Extractor IPExtractor
	Logger    *slog.Logger
	Now       func() time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter keeps one token bucket per client IP. It guards the AI
// routes, which spend provider quota on every cache miss.
type ClientRateLimiter struct {
	cfg ClientRateLimiterConfig

	mu        sync.Mutex
	buckets   map[string]*clientBucket
	lastSweep time.Time
}

// NewClientRateLimiter creates a ClientRateLimiter.
func NewClientRateLimiter(cfg ClientRateLimiterConfig) *ClientRateLimiter {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.Extractor == nil {
		cfg.Extractor = RemoteAddrExtractor{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ClientRateLimiter{
		cfg:       cfg,
		buckets:   make(map[string]*clientBucket),
		lastSweep: cfg.Now(),
	}
}

// Enabled reports whether requests are limited at all.
func (rl *ClientRateLimiter) Enabled() bool {
	return rl.cfg.RequestsPerSecond > 0
}

// Len returns the number of tracked clients.
func (rl *ClientRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// Middleware rejects requests over the client's rate with 429 and a
// Retry-After header. Requests whose client address cannot be determined are
// allowed through.
func (rl *ClientRateLimiter) Middleware(next http.Handler) http.Handler {
	if !rl.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, err := rl.cfg.Extractor.ExtractIP(r)
		if err != nil {
			rl.cfg.Logger.Warn("rate limiter: failed to extract client ip, allowing request",
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("path", r.URL.Path),
				slog.Any("error", err))
			next.ServeHTTP(w, r)
			return
		}

		allowed, remaining, retryAfter := rl.take(ip)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Burst))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if allowed {
			next.ServeHTTP(w, r)
			return
		}

		seconds := int(math.Ceil(retryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		metrics.RecordRateLimited(r.URL.Path)
		rl.cfg.Logger.Warn("rate limit exceeded",
			slog.String("client_ip", ip),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("retry_after", seconds))
		respond.JSON(w, http.StatusTooManyRequests, respond.ErrorBody{
			Error:   "Rate limit exceeded",
			Message: "Too many AI requests from this client, retry in " + strconv.Itoa(seconds) + "s",
		})
	})
}

// take consumes one token from ip's bucket. On denial it reports how long
// until a token is available.
func (rl *ClientRateLimiter) take(ip string) (allowed bool, remaining int, retryAfter time.Duration) {
	now := rl.cfg.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.sweepLocked(now)

	b, ok := rl.buckets[ip]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)}
		rl.buckets[ip] = b
	}
	b.lastSeen = now

	if b.limiter.AllowN(now, 1) {
		return true, int(b.limiter.TokensAt(now)), 0
	}

	res := b.limiter.ReserveN(now, 1)
	retryAfter = res.DelayFrom(now)
	res.CancelAt(now)
	return false, 0, retryAfter
}

// sweepLocked drops idle buckets at most once per IdleTTL.
func (rl *ClientRateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.cfg.IdleTTL {
		return
	}
	rl.lastSweep = now
	for ip, b := range rl.buckets {
		if now.Sub(b.lastSeen) >= rl.cfg.IdleTTL {
			delete(rl.buckets, ip)
		}
	}
}
