package brief

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"threatfeed/internal/observability/metrics"
	"threatfeed/internal/utils/timeutil"
	"threatfeed/pkg/ttlcache"
)

// Generation kinds, used as metric labels.
const (
	KindSummary    = "summary"
	KindDailyBrief = "daily_brief"
)

var (
	summaryOptions    = GenerateOptions{MaxTokens: 1500, Temperature: 0.3}
	dailyBriefOptions = GenerateOptions{MaxTokens: 2500, Temperature: 0.2}
)

// Service generates and caches article summaries and daily briefs.
type Service struct {
	generator Generator
	cache     *ttlcache.Cache[string]
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithNow sets the clock used to resolve the default briefing date.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a Service storing generated texts in cache.
func NewService(generator Generator, cache *ttlcache.Cache[string], opts ...Option) *Service {
	s := &Service{
		generator: generator,
		cache:     cache,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports whether the generator has a credential.
func (s *Service) Configured() bool {
	return s.generator.Configured()
}

// Provider returns the generator name.
func (s *Service) Provider() string {
	return s.generator.Name()
}

// Summarize returns the summary of one article, keyed by its id.
func (s *Service) Summarize(ctx context.Context, req SummaryRequest) (Result, error) {
	id := strings.TrimSpace(req.Article.ID)
	if id == "" {
		return Result{}, fmt.Errorf("%w: article id is required", ErrInvalidRequest)
	}

	prompt, err := renderSummaryPrompt(req.Article)
	if err != nil {
		return Result{}, fmt.Errorf("render summary prompt: %w", err)
	}

	return s.generate(ctx, KindSummary, id, prompt, summaryOptions)
}

// DailyBrief returns the brief over req.Articles. The cache key is derived
// from the date and the sorted article identities, so the same set in any
// order maps to the same brief. A nil article list is rejected; an empty
// one yields a brief over zero articles.
func (s *Service) DailyBrief(ctx context.Context, req DailyBriefRequest) (Result, error) {
	if req.Articles == nil {
		return Result{}, fmt.Errorf("%w: articles is required", ErrInvalidRequest)
	}

	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = s.now().UTC().Format(timeutil.DateLayout)
	}

	total := len(req.Articles)
	if req.TotalThreats != nil {
		total = *req.TotalThreats
	}

	prompt, err := renderDailyBriefPrompt(dailyBriefData{
		Date:         date,
		TotalThreats: total,
		Severity:     req.Severity,
		Articles:     req.Articles,
	})
	if err != nil {
		return Result{}, fmt.Errorf("render daily brief prompt: %w", err)
	}

	res, err := s.generate(ctx, KindDailyBrief, DailyBriefKey(date, req.Articles), prompt, dailyBriefOptions)
	if err != nil {
		return Result{}, err
	}
	res.Date = date
	return res, nil
}

func (s *Service) generate(ctx context.Context, kind, key, prompt string, opts GenerateOptions) (Result, error) {
	if !s.generator.Configured() {
		return Result{}, ErrGeneratorUnavailable
	}

	start := time.Now()
	entry, cached, err := s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (string, error) {
		s.logger.InfoContext(ctx, "generating text",
			slog.String("kind", kind),
			slog.String("key", key),
			slog.String("provider", s.generator.Name()))
		return s.generator.Generate(ctx, prompt, opts)
	})
	if err != nil {
		metrics.RecordBriefGeneration(kind, "failure", time.Since(start))
		s.logger.ErrorContext(ctx, "text generation failed",
			slog.String("kind", kind),
			slog.String("key", key),
			slog.Any("error", err))
		if errors.Is(err, ErrGeneratorUnavailable) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	status := "success"
	if cached {
		status = "cached"
	}
	metrics.RecordBriefGeneration(kind, status, time.Since(start))

	return Result{
		Text:           entry.Value,
		Cached:         cached,
		GeneratedAt:    entry.StoredAt,
		GenerationTime: entry.ComputeDuration,
		Key:            key,
	}, nil
}

// CacheStats sweeps expired texts and describes the remaining ones.
func (s *Service) CacheStats() CacheStats {
	s.cache.SweepExpired()
	infos := s.cache.Snapshot()

	entries := make([]CacheEntry, len(infos))
	for i, info := range infos {
		entries[i] = CacheEntry{
			Key:            info.Key,
			GeneratedAt:    info.StoredAt,
			GenerationTime: info.ComputeDuration,
			Valid:          info.Valid,
		}
	}

	return CacheStats{
		TotalEntries: len(entries),
		TTL:          s.cache.TTL(),
		Entries:      entries,
	}
}

// ClearCache drops every cached text and returns how many were dropped.
func (s *Service) ClearCache() int {
	n := s.cache.Clear()
	s.logger.Info("brief cache cleared", slog.Int("cleared_count", n))
	return n
}

// CacheLen returns the number of cached texts.
func (s *Service) CacheLen() int {
	return s.cache.Len()
}

// DailyBriefKey returns "daily_brief_<date>_<hash>" where hash covers the
// sorted identities of articles.
func DailyBriefKey(date string, articles []ArticleInput) string {
	ids := make([]string, len(articles))
	for i, a := range articles {
		ids[i] = a.Identity()
	}
	sort.Strings(ids)

	sum := sha256.Sum256([]byte(strings.Join(ids, "\n")))
	return "daily_brief_" + date + "_" + hex.EncodeToString(sum[:8])
}
