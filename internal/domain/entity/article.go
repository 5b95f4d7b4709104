// Package entity defines the core domain entities of the feed aggregator:
// normalized articles and the feed sources they come from.
package entity

import (
	"strconv"
	"strings"
	"time"
)

// Article is a normalized feed entry.
// Articles are created fresh on every aggregation and never mutated afterwards.
type Article struct {
	// ID is derived from the source name and the entry's position in that
	// source's batch. It is not unique across refreshes.
	ID string

	Title   string
	Summary string
	Link    string
	Source  string

	// Published is always a UTC instant.
	Published time.Time

	// PublishedAgo is rendered once at parse time and goes stale while cached.
	PublishedAgo string
}

// ArticleID returns the id of the index-th (zero-based) entry of a source batch:
// the lowercased source name with spaces replaced by underscores, then "_" and index.
func ArticleID(sourceName string, index int) string {
	return strings.ReplaceAll(strings.ToLower(sourceName), " ", "_") + "_" + strconv.Itoa(index)
}

// Identity returns a stable identity for cache keys: the ID when present,
// otherwise title, source and link joined.
func (a Article) Identity() string {
	if a.ID != "" {
		return a.ID
	}
	return a.Title + "|" + a.Source + "|" + a.Link
}
