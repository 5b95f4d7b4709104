package feed

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"threatfeed/internal/handler/http/respond"
	"threatfeed/internal/observability/logging"
	fetchUC "threatfeed/internal/usecase/fetch"
	"threatfeed/internal/utils/timeutil"
)

// Aggregator serves feed snapshots. *fetch.CachedAggregator implements it.
type Aggregator interface {
	Get(ctx context.Context, refresh bool) (fetchUC.Snapshot, error)
}

// ListHandler serves the aggregated article list.
type ListHandler struct{ Agg Aggregator }

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	snap, err := h.Agg.Get(r.Context(), refresh)
	if err != nil {
		logging.WithRequestID(r.Context(), slog.Default()).Error("feed aggregation failed",
			slog.Bool("refresh", refresh),
			slog.String("error", respond.SanitizeError(err)))
		respond.JSON(w, http.StatusInternalServerError, FailureResponse{
			Success: false,
			Error:   "Failed to fetch RSS feeds",
			Message: "Unable to fetch feeds at this time",
		})
		return
	}

	respond.JSON(w, http.StatusOK, toListResponse(snap))
}

func toListResponse(snap fetchUC.Snapshot) ListResponse {
	articles := make([]ArticleDTO, 0, len(snap.Articles))
	for _, a := range snap.Articles {
		articles = append(articles, toDTO(a))
	}

	sources := snap.SourceNames
	if sources == nil {
		sources = []string{}
	}

	resp := ListResponse{
		Success:         true,
		Cached:          snap.Cached,
		FetchTime:       math.Round(snap.Duration.Seconds()*100) / 100,
		FetchedAt:       timeutil.Format(snap.FetchedAt),
		Articles:        articles,
		SuccessfulFeeds: snap.SuccessfulCount,
		TotalFeeds:      snap.TotalCount,
		Sources:         sources,
	}
	if snap.Cached {
		minutes := int(snap.Age.Minutes())
		resp.CacheAgeMinutes = &minutes
	}
	return resp
}
