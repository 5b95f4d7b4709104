package feed

import (
	"threatfeed/internal/domain/entity"
	"threatfeed/internal/utils/timeutil"
)

// ArticleDTO is one article as the dashboard expects it.
type ArticleDTO struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Summary      string `json:"summary"`
	Link         string `json:"link"`
	Source       string `json:"source"`
	Published    string `json:"published"`
	PublishedAgo string `json:"published_ago"`
}

// ListResponse is the body of GET /api/feeds.
type ListResponse struct {
	Success bool `json:"success"`
	Cached  bool `json:"cached"`

	// CacheAgeMinutes is set only for cached responses.
	CacheAgeMinutes *int `json:"cache_age_minutes,omitempty"`

	// FetchTime is the aggregation duration in seconds.
	FetchTime float64 `json:"fetch_time"`

	FetchedAt       string       `json:"fetched_at"`
	Articles        []ArticleDTO `json:"articles"`
	SuccessfulFeeds int          `json:"successful_feeds"`
	TotalFeeds      int          `json:"total_feeds"`
	Sources         []string     `json:"sources"`
}

// FailureResponse is the body written when aggregation itself fails.
type FailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func toDTO(a entity.Article) ArticleDTO {
	return ArticleDTO{
		ID:           a.ID,
		Title:        a.Title,
		Summary:      a.Summary,
		Link:         a.Link,
		Source:       a.Source,
		Published:    timeutil.Format(a.Published),
		PublishedAgo: a.PublishedAgo,
	}
}
