// Package brief generates AI summaries of single articles and daily threat
// briefs over a set of articles, caching every generated text by content key.
package brief

import "errors"

var (
	// ErrInvalidRequest is returned for missing or malformed inputs.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrGeneratorUnavailable is returned when no provider credential is configured.
	ErrGeneratorUnavailable = errors.New("generator not configured")

	// ErrUpstream wraps any failure reported by the provider.
	ErrUpstream = errors.New("upstream generator failure")
)
