// Package http provides the service's HTTP handlers and middleware: health
// probes, the status endpoint, request logging, panic recovery and metrics.
// Feed and brief routes live in the feed and brief subpackages.
package http

import (
	"log/slog"
	"net/http"
	"sort"
	"time"

	"threatfeed/internal/handler/http/respond"
	"threatfeed/internal/utils/timeutil"
)

// Check statuses.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// FeedStatus describes the feed side of the service.
// *fetch.CachedAggregator implements it.
type FeedStatus interface {
	SourceCount() int
	CacheLen() int
}

// BriefStatus describes the brief generator.
// *brief.Service implements it.
type BriefStatus interface {
	Configured() bool
	Provider() string
	CacheLen() int
}

// HealthHandler reports feed configuration, cache sizes, the brief provider
// and open circuit breakers. Only a missing feed list makes it unhealthy;
// an unconfigured provider or open breakers degrade it.
type HealthHandler struct {
	Feeds   FeedStatus
	Brief   BriefStatus
	Version string

	// Breakers returns breaker name to state ("closed", "open", "half-open").
	Breakers func() map[string]string

	Now func() time.Time
}

// ServeHTTP implements http.Handler.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := map[string]CheckStatus{
		"feeds": h.checkFeeds(),
	}
	if h.Brief != nil {
		checks["brief_provider"] = h.checkBrief()
	}
	if h.Breakers != nil {
		checks["circuit_breakers"] = h.checkBreakers()
	}

	status, code := StatusHealthy, http.StatusOK
	for _, c := range checks {
		switch c.Status {
		case StatusUnhealthy:
			status, code = StatusUnhealthy, http.StatusServiceUnavailable
		case StatusDegraded:
			if status == StatusHealthy {
				status = StatusDegraded
			}
		}
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: timeutil.Format(h.now()),
		Checks:    checks,
		Version:   h.Version,
	})
}

func (h *HealthHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *HealthHandler) checkFeeds() CheckStatus {
	if h.Feeds == nil || h.Feeds.SourceCount() == 0 {
		return CheckStatus{Status: StatusUnhealthy, Message: "no feeds configured"}
	}
	return CheckStatus{
		Status: StatusHealthy,
		Details: map[string]any{
			"total_feeds":        h.Feeds.SourceCount(),
			"feed_cache_entries": h.Feeds.CacheLen(),
		},
	}
}

func (h *HealthHandler) checkBrief() CheckStatus {
	details := map[string]any{
		"provider":      h.Brief.Provider(),
		"cache_entries": h.Brief.CacheLen(),
	}
	if !h.Brief.Configured() {
		return CheckStatus{Status: StatusDegraded, Message: "provider not configured", Details: details}
	}
	return CheckStatus{Status: StatusHealthy, Details: details}
}

func (h *HealthHandler) checkBreakers() CheckStatus {
	states := h.Breakers()
	var open []string
	for name, state := range states {
		if state == "open" {
			open = append(open, name)
		}
	}
	sort.Strings(open)

	details := map[string]any{"total": len(states), "open": len(open)}
	if len(open) > 0 {
		details["open_names"] = open
		return CheckStatus{Status: StatusDegraded, Message: "some circuit breakers are open", Details: details}
	}
	return CheckStatus{Status: StatusHealthy, Details: details}
}

// ReadyHandler handles readiness probes. The service is ready once at least
// one feed is configured.
type ReadyHandler struct {
	Feeds FeedStatus
}

// ServeHTTP implements http.Handler.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Feeds == nil || h.Feeds.SourceCount() == 0 {
		http.Error(w, "no feeds configured", http.StatusServiceUnavailable)
		return
	}
	writeText(w, "ready")
}

// LiveHandler handles liveness probes and always answers 200.
type LiveHandler struct{}

// ServeHTTP implements http.Handler.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeText(w, "alive")
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Default().Warn("probe: failed to write response", slog.Any("error", err))
	}
}
