package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"threatfeed/internal/domain/entity"
	"threatfeed/internal/observability/metrics"
	"threatfeed/internal/observability/tracing"
)

const defaultParallelism = 4

// FetchOptions configures a single feed download.
type FetchOptions struct {
	// Timeout bounds one HTTP attempt.
	Timeout time.Duration

	// MaxRetries is the number of extra attempts after the first failure.
	MaxRetries int
}

// AggregateOptions returns the defaults used when aggregating all feeds.
func AggregateOptions() FetchOptions {
	return FetchOptions{Timeout: 20 * time.Second, MaxRetries: 2}
}

// DiagnosticOptions returns the tighter defaults used for one-off checks.
func DiagnosticOptions() FetchOptions {
	return FetchOptions{Timeout: 10 * time.Second, MaxRetries: 0}
}

// FeedFetcher downloads the raw bytes of a feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string, opts FetchOptions) ([]byte, error)
}

// FeedParser turns a raw feed payload into normalized articles.
// now is the fallback timestamp for entries without a usable date.
type FeedParser interface {
	Parse(raw []byte, sourceName string, now time.Time) ([]entity.Article, error)
}

// SourceReport is the outcome of fetching one source.
type SourceReport struct {
	Source   entity.FeedSource
	Articles []entity.Article
	Err      error
	Duration time.Duration
}

// OK reports whether the source yielded at least one article.
func (r SourceReport) OK() bool {
	return len(r.Articles) > 0
}

// Result is the merged outcome of one aggregation.
type Result struct {
	// Articles are sorted by Published, newest first.
	Articles []entity.Article

	// SuccessfulCount is the number of sources that yielded at least one article.
	SuccessfulCount int

	// TotalCount is the number of configured sources.
	TotalCount int

	SourceNames []string
	FetchedAt   time.Time
	Duration    time.Duration
	Reports     []SourceReport
}

// Service aggregates articles from feed sources.
type Service struct {
	Fetcher     FeedFetcher
	Parser      FeedParser
	Options     FetchOptions
	Parallelism int

	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithNow sets the clock used for fallback timestamps and relative ages.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithParallelism bounds how many sources are fetched at once.
func WithParallelism(n int) Option {
	return func(s *Service) { s.Parallelism = n }
}

// WithFetchOptions overrides the per-source fetch options.
func WithFetchOptions(opts FetchOptions) Option {
	return func(s *Service) { s.Options = opts }
}

// NewService creates an aggregation Service.
func NewService(fetcher FeedFetcher, parser FeedParser, opts ...Option) *Service {
	s := &Service{
		Fetcher:     fetcher,
		Parser:      parser,
		Options:     AggregateOptions(),
		Parallelism: defaultParallelism,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Parallelism < 1 {
		s.Parallelism = 1
	}
	return s
}

// AggregateAll fetches and parses every source, then merges the articles
// newest first. Sources run concurrently but each writes to its own slot, so
// the merged order does not depend on completion order. A source failing at
// either stage contributes zero articles. The only error returned is the
// caller's context error.
func (s *Service) AggregateAll(ctx context.Context, sources []entity.FeedSource) (*Result, error) {
	start := s.now()
	reports := make([]SourceReport, len(sources))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.Parallelism)
	for i, src := range sources {
		eg.Go(func() error {
			reports[i] = s.FetchSource(egCtx, src, s.Options)
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("aggregate feeds: %w", err)
	}

	result := &Result{
		TotalCount:  len(sources),
		SourceNames: entity.SourceNames(sources),
		FetchedAt:   start.UTC(),
		Reports:     reports,
	}
	for _, r := range reports {
		if r.OK() {
			result.SuccessfulCount++
		}
		result.Articles = append(result.Articles, r.Articles...)
	}
	SortNewestFirst(result.Articles)
	result.Duration = s.now().Sub(start)

	metrics.RecordAggregation(result.Duration, result.SuccessfulCount, len(result.Articles))
	s.logger.InfoContext(ctx, "feed aggregation completed",
		slog.Int("successful_feeds", result.SuccessfulCount),
		slog.Int("total_feeds", result.TotalCount),
		slog.Int("articles", len(result.Articles)),
		slog.Duration("duration", result.Duration))

	return result, nil
}

// FetchSource fetches and parses a single source. Failures are logged and
// reported in the returned SourceReport rather than returned.
func (s *Service) FetchSource(ctx context.Context, src entity.FeedSource, opts FetchOptions) SourceReport {
	ctx, span := tracing.StartSpan(ctx, "feed.fetch_source",
		attribute.String("feed.source", src.Name),
		attribute.String("feed.url", src.URL))
	defer span.End()

	start := s.now()
	report := SourceReport{Source: src}

	raw, err := s.Fetcher.Fetch(ctx, src.URL, opts)
	if err != nil {
		if !errors.Is(err, ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		report.Err = err
		report.Duration = s.now().Sub(start)
		span.SetStatus(codes.Error, err.Error())
		s.logger.WarnContext(ctx, "failed to fetch feed",
			slog.String("source", src.Name),
			slog.String("feed_url", src.URL),
			slog.Any("error", err))
		metrics.RecordFeedFetch(src.Name, metrics.FetchResultUnavailable, report.Duration, 0)
		return report
	}

	articles, err := s.Parser.Parse(raw, src.Name, s.now())
	report.Duration = s.now().Sub(start)
	if err != nil {
		if !errors.Is(err, ErrMalformedFeed) {
			err = fmt.Errorf("%w: %w", ErrMalformedFeed, err)
		}
		report.Err = err
		span.SetStatus(codes.Error, err.Error())
		s.logger.WarnContext(ctx, "failed to parse feed",
			slog.String("source", src.Name),
			slog.String("feed_url", src.URL),
			slog.Any("error", err))
		metrics.RecordFeedFetch(src.Name, metrics.FetchResultMalformed, report.Duration, 0)
		return report
	}

	report.Articles = articles
	result := metrics.FetchResultSuccess
	if len(articles) == 0 {
		result = metrics.FetchResultEmpty
		s.logger.InfoContext(ctx, "feed is empty",
			slog.String("source", src.Name),
			slog.String("feed_url", src.URL))
	}
	metrics.RecordFeedFetch(src.Name, result, report.Duration, len(articles))
	span.SetAttributes(attribute.Int("feed.articles", len(articles)))
	s.logger.DebugContext(ctx, "source fetch completed",
		slog.String("source", src.Name),
		slog.Int("articles", len(articles)),
		slog.Duration("duration", report.Duration))

	return report
}

// SortNewestFirst sorts articles by Published descending. Ties keep their
// relative order.
func SortNewestFirst(articles []entity.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Published.After(articles[j].Published)
	})
}
