package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"threatfeed/internal/domain/entity"
)

// FeedsFile is the YAML layout of a feeds file:
//
//	feeds:
//	  - name: SANS ISC
//	    url: https://isc.sans.edu/rssfeed.xml
type FeedsFile struct {
	Feeds []entity.FeedSource `yaml:"feeds"`
}

// LoadFeedsFile reads the feed list from a YAML file.
// The path parameter is expected to come from a trusted source (environment or command-line flag).
func LoadFeedsFile(path string) ([]entity.FeedSource, error) {
	// #nosec G304 -- path is provided by trusted source (env var or CLI flag), not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feeds file: %w", err)
	}

	var file FeedsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse feeds file: %w", err)
	}

	if err := validateFeeds(file.Feeds); err != nil {
		return nil, fmt.Errorf("feeds file validation failed: %w", err)
	}

	return file.Feeds, nil
}

// validateFeeds requires at least one feed, valid entries and unique names.
func validateFeeds(feeds []entity.FeedSource) error {
	if len(feeds) == 0 {
		return fmt.Errorf("at least one feed is required")
	}

	seen := make(map[string]bool, len(feeds))
	for i, f := range feeds {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("feed %d (%q): %w", i, f.Name, err)
		}
		key := strings.ToLower(strings.TrimSpace(f.Name))
		if seen[key] {
			return fmt.Errorf("duplicate feed name %q", f.Name)
		}
		seen[key] = true
	}

	return nil
}
