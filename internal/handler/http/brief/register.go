// Package brief serves AI article summaries, daily threat briefs and the
// brief cache administration routes over HTTP.
package brief

import (
	"net/http"

	"threatfeed/internal/handler/http/middleware"
	briefUC "threatfeed/internal/usecase/brief"
)

// Register registers the brief routes with the given mux. The generation
// routes are wrapped by limiter when it is non-nil.
func Register(mux *http.ServeMux, svc *briefUC.Service, limiter *middleware.ClientRateLimiter) {
	limit := func(h http.Handler) http.Handler {
		if limiter == nil {
			return h
		}
		return limiter.Middleware(h)
	}

	mux.Handle("POST /api/summarize", limit(SummarizeHandler{svc}))
	mux.Handle("POST /api/daily-brief", limit(DailyBriefHandler{svc}))

	mux.Handle("GET /api/cache/stats", CacheStatsHandler{svc})
	mux.Handle("POST /api/cache/clear", CacheClearHandler{svc})
}
