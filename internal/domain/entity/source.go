package entity

import (
	"net/url"
	"strings"
)

// maxFeedURLLength bounds configured feed URLs.
const maxFeedURLLength = 2048

// FeedSource is a configured feed: a display name and the feed URL.
// Sources are fixed at process start.
type FeedSource struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// Validate checks that the source has a name and a well-formed http(s) URL.
func (s FeedSource) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	return validateFeedURL(s.URL)
}

func validateFeedURL(raw string) error {
	switch {
	case raw == "":
		return &ValidationError{Field: "url", Reason: "is required"}
	case len(raw) > maxFeedURLLength:
		return &ValidationError{Field: "url", Reason: "is longer than 2048 characters"}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Field: "url", Reason: "is malformed"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "url", Reason: "must use http or https"}
	}
	if u.Host == "" {
		return &ValidationError{Field: "url", Reason: "has no host"}
	}
	return nil
}

// SourceNames returns the names of sources in order.
func SourceNames(sources []FeedSource) []string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name
	}
	return names
}

// DefaultFeedSources returns the built-in security news feeds.
func DefaultFeedSources() []FeedSource {
	return []FeedSource{
		{Name: "SANS ISC", URL: "https://isc.sans.edu/rssfeed.xml"},
		{Name: "Bleeping Computer", URL: "https://www.bleepingcomputer.com/feed/"},
		{Name: "The Record", URL: "https://therecord.media/feed/"},
		{Name: "Security Affairs", URL: "https://securityaffairs.com/feed"},
		{Name: "CISA Advisories", URL: "https://www.cisa.gov/cybersecurity-advisories/all.xml"},
		{Name: "Infosecurity Magazine", URL: "https://www.infosecurity-magazine.com/rss/news/"},
		{Name: "Krebs on Security", URL: "https://krebsonsecurity.com/feed/"},
		{Name: "Cyber Security News", URL: "https://cybersecuritynews.com/feed/"},
	}
}
