package http

import (
	"net/http"
	"time"

	"threatfeed/internal/handler/http/respond"
	"threatfeed/internal/utils/timeutil"
)

// StatusResponse is the body of GET /api/test.
type StatusResponse struct {
	Status           string `json:"status"`
	Message          string `json:"message"`
	ClaudeConfigured bool   `json:"claude_configured"`
	Provider         string `json:"provider"`
	CacheEntries     int    `json:"cache_entries"`
	FeedCacheEntries int    `json:"feed_cache_entries"`
	TotalFeeds       int    `json:"total_feeds"`
	Timestamp        string `json:"timestamp"`
}

// StatusHandler lets the dashboard check that the backend is up.
// claude_configured keeps its historical name and reports whether the selected
// provider, whichever it is, has a credential.
type StatusHandler struct {
	Feeds FeedStatus
	Brief BriefStatus
	Now   func() time.Time
}

// ServeHTTP implements http.Handler.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	respond.JSON(w, http.StatusOK, StatusResponse{
		Status:           "ok",
		Message:          "Threat feed backend is running",
		ClaudeConfigured: h.Brief.Configured(),
		Provider:         h.Brief.Provider(),
		CacheEntries:     h.Brief.CacheLen(),
		FeedCacheEntries: h.Feeds.CacheLen(),
		TotalFeeds:       h.Feeds.SourceCount(),
		Timestamp:        timeutil.Format(now()),
	})
}
