package fetcher

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// BrowserUserAgent is sent by default; several feed hosts reject bare clients.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// FeedFetchConfig holds the configuration for feed downloads.
//
// Per-call fetch.FetchOptions override Timeout and MaxRetries; the values here
// are used when an option is left unset.
type FeedFetchConfig struct {
	// Timeout bounds a single HTTP attempt.
	// Default: 20s
	Timeout time.Duration

	// MaxRetries is the number of extra attempts after a failure.
	// Default: 2
	MaxRetries int

	// RetryDelay is the fixed wait between attempts.
	// Default: 2s
	RetryDelay time.Duration

	// MaxBodySize is the maximum response body size in bytes.
	// This is enforced during response reading, not based on Content-Length header.
	// Default: 10485760 (10MB)
	MaxBodySize int64

	// MaxRedirects is the maximum number of HTTP redirects to follow.
	// Each redirect target is validated like the original URL.
	// Default: 5
	MaxRedirects int

	// UserAgent is the User-Agent header value.
	// Default: BrowserUserAgent
	UserAgent string

	// DenyPrivateIPs blocks feed URLs resolving to private, loopback or link-local addresses.
	// Default: true
	DenyPrivateIPs bool
}

// DefaultConfig returns the default configuration for feed downloads.
func DefaultConfig() FeedFetchConfig {
	return FeedFetchConfig{
		Timeout:        20 * time.Second,
		MaxRetries:     2,
		RetryDelay:     2 * time.Second,
		MaxBodySize:    10 * 1024 * 1024, // 10MB
		MaxRedirects:   5,
		UserAgent:      BrowserUserAgent,
		DenyPrivateIPs: true,
	}
}

// Validate checks if the configuration values are valid and safe.
//
// Validation rules:
//   - Timeout: > 0
//   - MaxRetries: 0-10
//   - RetryDelay: >= 0
//   - MaxBodySize: 1KB-100MB
//   - MaxRedirects: 0-10
func (c *FeedFetchConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("max retries must be between 0 and 10, got %d", c.MaxRetries)
	}

	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay must be non-negative, got %v", c.RetryDelay)
	}

	minBodySize := int64(1024)              // 1KB
	maxBodySize := int64(100 * 1024 * 1024) // 100MB
	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBodySize, maxBodySize, c.MaxBodySize)
	}

	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}

	return nil
}

// LoadConfigFromEnv loads configuration from environment variables.
// If a variable is not set the default value is used; a malformed value is an error.
//
// Environment variables:
//   - FEED_FETCH_TIMEOUT: duration string, e.g., "20s" (default: 20s)
//   - FEED_FETCH_MAX_RETRIES: integer (default: 2)
//   - FEED_FETCH_RETRY_DELAY: duration string (default: 2s)
//   - FEED_MAX_BODY_SIZE: integer in bytes (default: 10485760)
//   - FEED_MAX_REDIRECTS: integer (default: 5)
//   - FEED_USER_AGENT: string (default: BrowserUserAgent)
//   - FEED_DENY_PRIVATE_IPS: boolean accepted by strconv.ParseBool (default: true)
func LoadConfigFromEnv() (FeedFetchConfig, error) {
	cfg := DefaultConfig()

	if val := os.Getenv("FEED_FETCH_TIMEOUT"); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid FEED_FETCH_TIMEOUT: %v (expected format: '20s', '1m')", err)
		}
		cfg.Timeout = parsed
	}

	if val := os.Getenv("FEED_FETCH_MAX_RETRIES"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid FEED_FETCH_MAX_RETRIES: %v", err)
		}
		cfg.MaxRetries = parsed
	}

	if val := os.Getenv("FEED_FETCH_RETRY_DELAY"); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid FEED_FETCH_RETRY_DELAY: %v (expected format: '2s')", err)
		}
		cfg.RetryDelay = parsed
	}

	if val := os.Getenv("FEED_MAX_BODY_SIZE"); val != "" {
		parsed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid FEED_MAX_BODY_SIZE: %v", err)
		}
		cfg.MaxBodySize = parsed
	}

	if val := os.Getenv("FEED_MAX_REDIRECTS"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid FEED_MAX_REDIRECTS: %v", err)
		}
		cfg.MaxRedirects = parsed
	}

	if val := os.Getenv("FEED_USER_AGENT"); val != "" {
		cfg.UserAgent = val
	}

	if val := os.Getenv("FEED_DENY_PRIVATE_IPS"); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid FEED_DENY_PRIVATE_IPS: %v", err)
		}
		cfg.DenyPrivateIPs = parsed
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
