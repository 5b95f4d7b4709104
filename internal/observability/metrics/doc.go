// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics (duration, count, size)
//   - Feed fetch and aggregation metrics
//   - Cache hit, miss and eviction counters
//   - Summary and daily brief generation metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "threatfeed/internal/observability/metrics"
//
//	start := time.Now()
//	articles, err := parse(raw)
//	metrics.RecordFeedFetch(source.Name, metrics.FetchResultSuccess, time.Since(start), len(articles))
package metrics
