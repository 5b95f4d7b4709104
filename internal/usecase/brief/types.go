package brief

import (
	"time"

	"threatfeed/internal/domain/entity"
)

// ArticleInput is an article as submitted by the dashboard. Published is
// passed through verbatim; Severity, CVSS and Threats are optional
// enrichments added client-side.
type ArticleInput struct {
	ID        string
	Title     string
	Summary   string
	Link      string
	Source    string
	Published string
	Severity  string
	CVSS      string
	Threats   []string
}

// Identity returns the article's id, or title, source and link when the id is empty.
func (a ArticleInput) Identity() string {
	return entity.Article{ID: a.ID, Title: a.Title, Source: a.Source, Link: a.Link}.Identity()
}

// SummaryRequest asks for a summary of one article.
type SummaryRequest struct {
	Article ArticleInput
}

// SeverityBreakdown counts articles per severity level.
type SeverityBreakdown struct {
	Critical int
	High     int
	Medium   int
	Low      int
}

// DailyBriefRequest asks for a brief over a set of articles.
type DailyBriefRequest struct {
	// Articles must be non-nil. An empty list is valid.
	Articles []ArticleInput

	// Date is the briefing date. Empty means today in UTC.
	Date string

	// TotalThreats overrides the article count in the prompt when non-nil.
	TotalThreats *int

	Severity SeverityBreakdown
}

// Result is a generated text, fresh or from the cache.
type Result struct {
	Text           string
	Cached         bool
	GeneratedAt    time.Time
	GenerationTime time.Duration

	// Key is the cache key the text is stored under.
	Key string

	// Date is the resolved briefing date. Empty for single-article summaries.
	Date string
}

// CacheStats describes the brief cache.
type CacheStats struct {
	TotalEntries int
	TTL          time.Duration
	Entries      []CacheEntry
}

// CacheEntry describes one cached text.
type CacheEntry struct {
	Key            string
	GeneratedAt    time.Time
	GenerationTime time.Duration
	Valid          bool
}
