// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestSize measures HTTP request body size in bytes
	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// ActiveConnections tracks the number of active HTTP connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	// HTTPRateLimitedTotal counts requests rejected by the per-client limiter
	HTTPRateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Total number of requests rejected with 429",
		},
		[]string{"path"},
	)
)

// Feed metrics track fetching and parsing of configured sources
var (
	// FeedFetchTotal counts fetch attempts per source by result
	FeedFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fetch_total",
			Help: "Total number of feed fetches by source and result",
		},
		[]string{"source", "result"}, // result: success, unavailable, malformed, empty
	)

	// FeedFetchDuration measures time to fetch and parse one source
	FeedFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_fetch_duration_seconds",
			Help:    "Time taken to fetch and parse a feed source",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"source"},
	)

	// ArticlesParsedTotal counts articles parsed from each source
	ArticlesParsedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_articles_parsed_total",
			Help: "Total number of articles parsed from feed sources",
		},
		[]string{"source"},
	)

	// AggregationDuration measures a full fan-out over all sources
	AggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_aggregation_duration_seconds",
			Help:    "Time taken to aggregate all feed sources",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
	)

	// AggregationSuccessfulSources reports how many sources yielded articles in the last aggregation
	AggregationSuccessfulSources = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_aggregation_successful_sources",
			Help: "Number of sources that yielded at least one article in the last aggregation",
		},
	)

	// AggregationArticles reports the merged article count of the last aggregation
	AggregationArticles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_aggregation_articles",
			Help: "Number of merged articles in the last aggregation",
		},
	)
)

// Cache metrics track the in-memory result caches
var (
	// CacheRequestsTotal counts cache lookups by cache and result
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Total number of cache lookups",
		},
		[]string{"cache", "result"}, // result: hit, miss
	)

	// CacheEvictionsTotal counts entries removed because their TTL elapsed
	CacheEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of expired cache entries removed",
		},
		[]string{"cache"},
	)
)

// Brief metrics track text generation requests
var (
	// BriefGenerationsTotal counts generation requests by kind and status
	BriefGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brief_generations_total",
			Help: "Total number of summary and daily brief generations",
		},
		[]string{"kind", "status"}, // kind: summary, daily_brief; status: success, cached, failure
	)

	// BriefGenerationDuration measures generation time, cache hits excluded
	BriefGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "brief_generation_duration_seconds",
			Help:    "Time taken to generate a summary or daily brief",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"kind"},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration, requestSize, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if requestSize > 0 {
		HTTPRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	}
	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

// RecordRateLimited records a request rejected by the per-client limiter
func RecordRateLimited(path string) {
	HTTPRateLimitedTotal.WithLabelValues(path).Inc()
}
