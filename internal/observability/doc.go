// Package observability groups the service's logging, metrics and tracing.
//
// Subpackages:
//   - logging: slog construction and context enrichment (request id, trace id)
//   - metrics: Prometheus collectors for HTTP, feeds, caches and briefs
//   - tracing: OpenTelemetry tracer provider and HTTP middleware
//
// Example usage:
//
//	import (
//	    "threatfeed/internal/observability/logging"
//	    "threatfeed/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger("info")
//	    logger.Info("application started")
//
//	    metrics.RecordFeedFetch("SANS ISC", metrics.FetchResultSuccess, time.Second, 10)
//	}
package observability
