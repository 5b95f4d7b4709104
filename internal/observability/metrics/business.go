package metrics

import "time"

// Feed fetch results.
const (
	FetchResultSuccess     = "success"
	FetchResultUnavailable = "unavailable"
	FetchResultMalformed   = "malformed"
	FetchResultEmpty       = "empty"
)

// RecordFeedFetch records one source fetch with its result and duration.
func RecordFeedFetch(source, result string, duration time.Duration, articles int) {
	FeedFetchTotal.WithLabelValues(source, result).Inc()
	FeedFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	if articles > 0 {
		ArticlesParsedTotal.WithLabelValues(source).Add(float64(articles))
	}
}

// RecordAggregation records the outcome of a fan-out over all sources.
func RecordAggregation(duration time.Duration, successfulSources, articles int) {
	AggregationDuration.Observe(duration.Seconds())
	AggregationSuccessfulSources.Set(float64(successfulSources))
	AggregationArticles.Set(float64(articles))
}

// RecordBriefGeneration records a summary or daily brief request.
// Status should be "success", "cached" or "failure"; duration is only observed on success.
func RecordBriefGeneration(kind, status string, duration time.Duration) {
	BriefGenerationsTotal.WithLabelValues(kind, status).Inc()
	if status == "success" {
		BriefGenerationDuration.WithLabelValues(kind).Observe(duration.Seconds())
	}
}

// CacheObserver reports cache events to Prometheus.
// It satisfies ttlcache.Observer.
type CacheObserver struct{}

// Hit records a cache hit.
func (CacheObserver) Hit(cache string) {
	CacheRequestsTotal.WithLabelValues(cache, "hit").Inc()
}

// Miss records a cache miss.
func (CacheObserver) Miss(cache string) {
	CacheRequestsTotal.WithLabelValues(cache, "miss").Inc()
}

// Evicted records n expired entries removed from cache.
func (CacheObserver) Evicted(cache string, n int) {
	CacheEvictionsTotal.WithLabelValues(cache).Add(float64(n))
}
