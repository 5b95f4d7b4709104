// Package feed serves the aggregated security news feed over HTTP.
package feed

import "net/http"

// Register registers the feed routes with the given mux.
func Register(mux *http.ServeMux, agg Aggregator) {
	mux.Handle("GET /api/feeds", ListHandler{agg})
}
