// Package config assembles the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"threatfeed/internal/domain/entity"
	"threatfeed/internal/infra/fetcher"
	"threatfeed/internal/infra/summarizer"
	"threatfeed/internal/infra/worker"
	pkgconfig "threatfeed/pkg/config"
)

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig
	Feeds     []entity.FeedSource
	Fetch     FetchConfig
	Cache     CacheConfig
	Brief     summarizer.Config
	CORS      CORSConfig
	RateLimit RateLimitConfig

	// RefreshCron is the cron spec of the feed cache warmer. Empty disables it.
	RefreshCron string

	// RefreshTimezone is the timezone RefreshCron is evaluated in.
	RefreshTimezone string

	// RefreshOnStart warms the feed cache once at start-up.
	RefreshOnStart bool

	// LogLevel is one of debug, info, warn or error.
	LogLevel string
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// FetchConfig configures feed downloads.
type FetchConfig struct {
	fetcher.FeedFetchConfig

	// Parallelism bounds how many sources are fetched at once.
	Parallelism int
}

// CacheConfig holds the cache TTLs.
type CacheConfig struct {
	FeedTTL  time.Duration
	BriefTTL time.Duration
}

// CORSConfig configures cross-origin access.
type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig configures the per-client limiter on AI routes.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int

	// TrustedProxies lists proxy CIDRs whose X-Forwarded-For is honoured.
	TrustedProxies []string
}

// Load reads the configuration from the environment and validates it.
//
// Environment variables:
//   - PORT (default 5001)
//   - LOG_LEVEL (default info)
//   - FEEDS_CONFIG: YAML feeds file, built-in feeds when unset
//   - FEED_FETCH_*, FEED_MAX_*, FEED_USER_AGENT, FEED_DENY_PRIVATE_IPS: see fetcher.LoadConfigFromEnv
//   - FEED_FETCH_PARALLELISM (default 4)
//   - FEED_CACHE_TTL (default 30m), BRIEF_CACHE_TTL (default 24h)
//   - FEED_REFRESH_CRON (default "*/25 * * * *", "off" disables), FEED_REFRESH_TIMEZONE (default UTC),
//     FEED_REFRESH_ON_START (default true)
//   - BRIEF_PROVIDER (claude, openai or gemini) and the matching API key and model
//   - CORS_ALLOWED_ORIGINS (default *)
//   - AI_RATE_LIMIT_RPS (default 0.2), AI_RATE_LIMIT_BURST (default 5)
//   - TRUSTED_PROXIES: comma separated CIDRs or IPs of reverse proxies
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            pkgconfig.GetEnvInt("PORT", 5001),
			ReadTimeout:     pkgconfig.GetEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    pkgconfig.GetEnvDuration("SERVER_WRITE_TIMEOUT", 180*time.Second),
			ShutdownTimeout: pkgconfig.GetEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Cache: CacheConfig{
			FeedTTL:  pkgconfig.GetEnvDuration("FEED_CACHE_TTL", 30*time.Minute),
			BriefTTL: pkgconfig.GetEnvDuration("BRIEF_CACHE_TTL", 24*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: pkgconfig.GetEnvStringList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: pkgconfig.GetEnvFloat("AI_RATE_LIMIT_RPS", 0.2),
			Burst:             pkgconfig.GetEnvInt("AI_RATE_LIMIT_BURST", 5),
			TrustedProxies:    pkgconfig.GetEnvStringList("TRUSTED_PROXIES", nil),
		},
		RefreshCron:     pkgconfig.GetEnvString("FEED_REFRESH_CRON", "*/25 * * * *"),
		RefreshTimezone: pkgconfig.GetEnvString("FEED_REFRESH_TIMEZONE", "UTC"),
		RefreshOnStart:  pkgconfig.GetEnvBool("FEED_REFRESH_ON_START", true),
		LogLevel:        strings.ToLower(pkgconfig.GetEnvString("LOG_LEVEL", "info")),
	}
	if strings.EqualFold(cfg.RefreshCron, "off") {
		cfg.RefreshCron = ""
	}

	feeds, err := LoadFeeds("")
	if err != nil {
		return nil, err
	}
	cfg.Feeds = feeds

	fetchCfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("fetch config: %w", err)
	}
	cfg.Fetch = FetchConfig{
		FeedFetchConfig: fetchCfg,
		Parallelism:     pkgconfig.GetEnvInt("FEED_FETCH_PARALLELISM", 4),
	}

	cfg.Brief = loadBriefConfig()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFeeds returns the feeds from FEEDS_CONFIG or path when non-empty,
// falling back to the built-in list.
func LoadFeeds(path string) ([]entity.FeedSource, error) {
	if path == "" {
		path = pkgconfig.GetEnvString("FEEDS_CONFIG", "")
	}
	if path == "" {
		return entity.DefaultFeedSources(), nil
	}
	feeds, err := LoadFeedsFile(path)
	if err != nil {
		return nil, err
	}
	slog.Info("loaded feeds file",
		slog.String("path", path),
		slog.Int("feeds", len(feeds)))
	return feeds, nil
}

func loadBriefConfig() summarizer.Config {
	cfg := summarizer.DefaultConfig()
	cfg.Provider = strings.ToLower(pkgconfig.GetEnvString("BRIEF_PROVIDER", summarizer.ProviderClaude))
	cfg.Timeout = pkgconfig.GetEnvDuration("BRIEF_TIMEOUT", cfg.Timeout)
	cfg.RequestsPerSecond = pkgconfig.GetEnvFloat("BRIEF_PROVIDER_RPS", cfg.RequestsPerSecond)
	cfg.Burst = pkgconfig.GetEnvInt("BRIEF_PROVIDER_BURST", cfg.Burst)

	switch cfg.Provider {
	case summarizer.ProviderOpenAI:
		cfg.APIKey = pkgconfig.GetEnvString("OPENAI_API_KEY", "")
		cfg.Model = pkgconfig.GetEnvString("OPENAI_MODEL", summarizer.DefaultModel(cfg.Provider))
		cfg.BaseURL = pkgconfig.GetEnvString("OPENAI_BASE_URL", "")
	case summarizer.ProviderGemini:
		cfg.APIKey = pkgconfig.GetEnvString("GEMINI_API_KEY", "")
		cfg.Model = pkgconfig.GetEnvString("GEMINI_MODEL", summarizer.DefaultModel(cfg.Provider))
	default:
		cfg.APIKey = pkgconfig.GetEnvString("ANTHROPIC_API_KEY", "")
		cfg.Model = pkgconfig.GetEnvString("CLAUDE_MODEL", summarizer.DefaultModel(summarizer.ProviderClaude))
		cfg.BaseURL = pkgconfig.GetEnvString("ANTHROPIC_BASE_URL", "")
	}

	return cfg
}

// Warmer returns the feed cache warmer configuration.
func (c *Config) Warmer() worker.Config {
	cfg := worker.DefaultConfig()
	cfg.Schedule = c.RefreshCron
	cfg.Timezone = c.RefreshTimezone
	cfg.RunOnStart = c.RefreshOnStart
	return cfg
}

// Validate checks the assembled configuration and reports every problem
// found, joined with errors.Join.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		fail("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if err := pkgconfig.ValidatePositiveDuration(c.Server.ShutdownTimeout); err != nil {
		fail("invalid SERVER_SHUTDOWN_TIMEOUT: %w", err)
	}
	if err := pkgconfig.ValidateDurationRange(c.Cache.FeedTTL, time.Minute, 24*time.Hour); err != nil {
		fail("invalid FEED_CACHE_TTL: %w", err)
	}
	if err := pkgconfig.ValidateDurationRange(c.Cache.BriefTTL, time.Minute, 7*24*time.Hour); err != nil {
		fail("invalid BRIEF_CACHE_TTL: %w", err)
	}
	if c.Fetch.Parallelism < 1 || c.Fetch.Parallelism > 64 {
		fail("FEED_FETCH_PARALLELISM must be between 1 and 64, got %d", c.Fetch.Parallelism)
	}
	if err := c.Fetch.FeedFetchConfig.Validate(); err != nil {
		fail("fetch config: %w", err)
	}
	if err := c.Brief.Validate(); err != nil {
		fail("brief config: %w", err)
	}
	if c.RefreshCron != "" {
		if err := c.Warmer().Validate(); err != nil {
			fail("invalid FEED_REFRESH_CRON or FEED_REFRESH_TIMEZONE: %w", err)
		}
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		fail("AI_RATE_LIMIT_RPS must be non-negative, got %v", c.RateLimit.RequestsPerSecond)
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst < 1 {
		fail("AI_RATE_LIMIT_BURST must be at least 1, got %d", c.RateLimit.Burst)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		fail("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return errors.Join(errs...)
}
