// Package fetch aggregates articles from the configured feed sources.
// It fans fetch and parse out over every source, merges the results newest
// first and reports partial success. A failing source never fails the batch.
package fetch

import "errors"

// Sentinel errors for fetch use case operations.
var (
	// ErrSourceUnavailable indicates that a feed could not be downloaded.
	// This covers network failures, timeouts, non-2xx statuses and an open circuit breaker.
	ErrSourceUnavailable = errors.New("feed source unavailable")

	// ErrMalformedFeed indicates that the feed content could not be parsed.
	// This typically happens when the payload is not valid RSS or Atom.
	ErrMalformedFeed = errors.New("malformed feed")

	// ErrInvalidURL indicates that a feed URL was rejected before dialing.
	ErrInvalidURL = errors.New("invalid feed url")

	// ErrBodyTooLarge indicates that a feed response exceeded the size limit.
	ErrBodyTooLarge = errors.New("feed response too large")
)
