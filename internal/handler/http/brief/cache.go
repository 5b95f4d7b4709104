package brief

import (
	"fmt"
	"net/http"

	"threatfeed/internal/handler/http/respond"
	briefUC "threatfeed/internal/usecase/brief"
	"threatfeed/internal/utils/timeutil"
)

// CacheStatsHandler describes the brief cache after dropping expired entries.
type CacheStatsHandler struct{ Svc *briefUC.Service }

func (h CacheStatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stats := h.Svc.CacheStats()

	entries := make([]CacheEntryDTO, 0, len(stats.Entries))
	for _, e := range stats.Entries {
		entries = append(entries, CacheEntryDTO{
			ArticleID:      e.Key,
			Timestamp:      timeutil.Format(e.GeneratedAt),
			GenerationTime: e.GenerationTime.Seconds(),
			IsValid:        e.Valid,
		})
	}

	respond.JSON(w, http.StatusOK, CacheStatsResponse{
		TotalEntries:     stats.TotalEntries,
		CacheExpiryHours: stats.TTL.Hours(),
		Entries:          entries,
	})
}

// CacheClearHandler drops every cached summary and brief.
type CacheClearHandler struct{ Svc *briefUC.Service }

func (h CacheClearHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := h.Svc.ClearCache()
	respond.JSON(w, http.StatusOK, CacheClearResponse{
		Message:      fmt.Sprintf("Cleared %d cache entries", n),
		ClearedCount: n,
	})
}
