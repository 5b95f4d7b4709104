// Package fetcher downloads raw feed payloads over HTTP.
//
// Each download sends browser-like headers, retries failures with a fixed
// delay, honours Retry-After on 429 responses and runs through a circuit
// breaker dedicated to the feed URL.
package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"threatfeed/internal/resilience/circuitbreaker"
	"threatfeed/internal/resilience/retry"
	"threatfeed/internal/usecase/fetch"
)

const (
	acceptHeader         = "application/rss+xml, application/xml, text/xml, */*"
	acceptLanguageHeader = "en-US,en;q=0.9"
)

// HTTPFetcher implements fetch.FeedFetcher.
type HTTPFetcher struct {
	client   *http.Client
	breakers *circuitbreaker.Group
	config   FeedFetchConfig
	logger   *slog.Logger
}

// New creates an HTTPFetcher with its own HTTP client and breaker group.
func New(config FeedFetchConfig) *HTTPFetcher {
	f := &HTTPFetcher{
		breakers: circuitbreaker.NewGroup(circuitbreaker.FeedFetchConfig),
		config:   config,
		logger:   slog.Default(),
	}

	f.client = &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12, // Enforce TLS 1.2+
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= f.config.MaxRedirects {
				return retry.Permanent(fmt.Errorf("%w: stopped after %d redirects", fetch.ErrInvalidURL, len(via)))
			}
			if err := checkFeedURL(req.Context(), req.URL.String(), f.config.DenyPrivateIPs); err != nil {
				return retry.Permanent(fmt.Errorf("redirect target validation failed: %w", err))
			}
			return nil
		},
	}

	return f
}

// WithLogger returns f logging to logger.
func (f *HTTPFetcher) WithLogger(logger *slog.Logger) *HTTPFetcher {
	f.logger = logger
	return f
}

// BreakerStates reports the state of every per-feed circuit breaker created so far.
func (f *HTTPFetcher) BreakerStates() map[string]string {
	return f.breakers.States()
}

// Fetch downloads feedURL. A zero Timeout or negative MaxRetries in opts falls
// back to the fetcher config.
// Any network error or non-2xx status is retried up to opts.MaxRetries times.
// The returned error wraps fetch.ErrSourceUnavailable and the last cause.
func (f *HTTPFetcher) Fetch(ctx context.Context, feedURL string, opts fetch.FetchOptions) ([]byte, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = f.config.Timeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = f.config.MaxRetries
	}

	if err := checkFeedURL(ctx, feedURL, f.config.DenyPrivateIPs); err != nil {
		return nil, fmt.Errorf("%w: %w", fetch.ErrSourceUnavailable, err)
	}

	cb := f.breakers.Get(feedURL)
	cfg := retry.FeedFetchConfig(opts.MaxRetries, f.config.RetryDelay)
	cfg.Logger = f.logger.With(slog.String("url", feedURL))

	attempts := 0
	body, retryErr := retry.Do(ctx, cfg, func() ([]byte, error) {
		attempts++
		b, err := circuitbreaker.Run(cb, func() ([]byte, error) {
			return f.doFetch(ctx, feedURL, opts.Timeout)
		})
		if circuitbreaker.IsRejection(err) {
			f.logger.WarnContext(ctx, "feed fetch circuit breaker open, request rejected",
				slog.String("service", "feed-fetch"),
				slog.String("url", feedURL),
				slog.String("state", cb.State().String()))
			return nil, retry.Permanent(err)
		}
		return b, err
	})

	if retryErr != nil {
		f.logger.WarnContext(ctx, "feed fetch failed",
			slog.String("url", feedURL),
			slog.Int("attempts", attempts),
			slog.Any("error", retryErr))
		return nil, fmt.Errorf("%w: %s: %w", fetch.ErrSourceUnavailable, feedURL, retryErr)
	}

	return body, nil
}

// doFetch performs one GET without retry or circuit breaker.
func (f *HTTPFetcher) doFetch(ctx context.Context, feedURL string, timeout time.Duration) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("%w: failed to create request: %v", fetch.ErrInvalidURL, err))
	}

	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguageHeader)

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("request exceeded %v: %w", timeout, err)
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		httpErr := &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			httpErr.RetryAfter = retry.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		}
		return nil, httpErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.config.MaxBodySize {
		return nil, retry.Permanent(fmt.Errorf("%w: exceeds %d bytes", fetch.ErrBodyTooLarge, f.config.MaxBodySize))
	}

	return body, nil
}
