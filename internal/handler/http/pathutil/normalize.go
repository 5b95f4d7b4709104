// Package pathutil maps request paths to metric labels.
package pathutil

import (
	"strings"
)

// Unmatched is the label for any path outside the route table.
const Unmatched = "/unmatched"

// routes are the only path labels that reach Prometheus.
var routes = map[string]struct{}{
	"/api/feeds":       {},
	"/api/test":        {},
	"/api/summarize":   {},
	"/api/daily-brief": {},
	"/api/cache/stats": {},
	"/api/cache/clear": {},
	"/health":          {},
	"/live":            {},
	"/ready":           {},
	"/metrics":         {},
}

// NormalizePath returns path without query and trailing slash when it is a
// known route, and Unmatched otherwise, so scanners probing random URLs
// cannot grow the label set.
//
//	NormalizePath("/api/feeds?refresh=true") // "/api/feeds"
//	NormalizePath("/api/summarize/")         // "/api/summarize"
//	NormalizePath("/wp-login.php")           // "/unmatched"
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	if _, ok := routes[path]; ok {
		return path
	}
	return Unmatched
}

// Cardinality returns the number of distinct labels NormalizePath can produce.
func Cardinality() int {
	return len(routes) + 1
}
