package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"threatfeed/internal/config"
	"threatfeed/internal/infra/feedparser"
	"threatfeed/internal/infra/fetcher"
	"threatfeed/internal/infra/summarizer"
	"threatfeed/internal/infra/worker"
	"threatfeed/internal/observability/logging"
	"threatfeed/internal/observability/metrics"
	"threatfeed/internal/observability/tracing"
	"threatfeed/pkg/ttlcache"

	briefUC "threatfeed/internal/usecase/brief"
	fetchUC "threatfeed/internal/usecase/fetch"

	hhttp "threatfeed/internal/handler/http"
	hbrief "threatfeed/internal/handler/http/brief"
	hfeed "threatfeed/internal/handler/http/feed"
	"threatfeed/internal/handler/http/middleware"
	"threatfeed/internal/handler/http/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := initLogger(cfg.LogLevel)
	version := getVersion()

	tp := tracing.Init(tracing.Config{
		ServiceName: "threatfeed",
		Version:     version,
		SampleRatio: 1.0,
	})

	components, err := setupServer(cfg, logger, version)
	if err != nil {
		logger.Error("failed to set up server", slog.Any("error", err))
		os.Exit(1)
	}

	runServer(cfg, logger, components, tp, version)
}

// initLogger installs the JSON logger as the process default.
func initLogger(level string) *slog.Logger {
	logger := logging.NewLogger(level)
	slog.SetDefault(logger)
	return logger
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// ServerComponents holds components needed for server operation and cleanup.
type ServerComponents struct {
	Handler http.Handler
	Feeds   *fetchUC.CachedAggregator
	Warmer  *worker.Warmer

	// Closer releases the brief provider client, if it holds one.
	Closer io.Closer
}

// setupServer wires caches, services, handlers and the middleware chain.
func setupServer(cfg *config.Config, logger *slog.Logger, version string) (*ServerComponents, error) {
	feedCache := ttlcache.New[*fetchUC.Result](cfg.Cache.FeedTTL,
		ttlcache.WithName("feeds"),
		ttlcache.WithObserver(metrics.CacheObserver{}))
	briefCache := ttlcache.New[string](cfg.Cache.BriefTTL,
		ttlcache.WithName("briefs"),
		ttlcache.WithObserver(metrics.CacheObserver{}))

	httpFetcher := fetcher.New(cfg.Fetch.FeedFetchConfig).WithLogger(logger)
	fetchSvc := fetchUC.NewService(httpFetcher, feedparser.New(),
		fetchUC.WithLogger(logger),
		fetchUC.WithParallelism(cfg.Fetch.Parallelism),
		fetchUC.WithFetchOptions(fetchUC.FetchOptions{
			Timeout:    cfg.Fetch.Timeout,
			MaxRetries: cfg.Fetch.MaxRetries,
		}))
	feeds := fetchUC.NewCachedAggregator(fetchSvc, feedCache, cfg.Feeds)

	generator, err := summarizer.New(context.Background(), cfg.Brief, summarizer.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	briefSvc := briefUC.NewService(generator, briefCache, briefUC.WithLogger(logger))

	logger.Info("brief provider selected",
		slog.String("provider", generator.Name()),
		slog.Bool("configured", generator.Configured()))

	limiter, err := newAIRateLimiter(cfg, logger)
	if err != nil {
		return nil, err
	}

	mux := setupRoutes(feeds, briefSvc, limiter, httpFetcher.BreakerStates, version)
	handler := applyMiddleware(cfg, logger, mux)

	components := &ServerComponents{Handler: handler, Feeds: feeds}
	if c, ok := generator.(io.Closer); ok {
		components.Closer = c
	}

	if cfg.RefreshCron != "" {
		w, err := worker.New(cfg.Warmer(), feeds, logger)
		if err != nil {
			return nil, err
		}
		components.Warmer = w
	}

	return components, nil
}

// newAIRateLimiter builds the per-client limiter for the generation routes.
func newAIRateLimiter(cfg *config.Config, logger *slog.Logger) (*middleware.ClientRateLimiter, error) {
	trusted, err := middleware.ParseTrustedProxies(cfg.RateLimit.TrustedProxies)
	if err != nil {
		return nil, err
	}

	limiter := middleware.NewClientRateLimiter(middleware.ClientRateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
		Extractor:         middleware.NewIPExtractor(trusted),
		Logger:            logger,
	})
	logger.Info("AI rate limiting configured",
		slog.Bool("enabled", limiter.Enabled()),
		slog.Float64("requests_per_second", cfg.RateLimit.RequestsPerSecond),
		slog.Int("burst", cfg.RateLimit.Burst),
		slog.Int("trusted_proxies", len(trusted)))
	return limiter, nil
}

// setupRoutes registers every route on a fresh mux.
func setupRoutes(
	feeds *fetchUC.CachedAggregator,
	briefSvc *briefUC.Service,
	limiter *middleware.ClientRateLimiter,
	breakers func() map[string]string,
	version string,
) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /health", &hhttp.HealthHandler{
		Feeds:    feeds,
		Brief:    briefSvc,
		Version:  version,
		Breakers: breakers,
	})
	mux.Handle("GET /ready", &hhttp.ReadyHandler{Feeds: feeds})
	mux.Handle("GET /live", &hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())
	mux.Handle("GET /api/test", &hhttp.StatusHandler{Feeds: feeds, Brief: briefSvc})

	hfeed.Register(mux, feeds)
	hbrief.Register(mux, briefSvc, limiter)

	mux.Handle("/", hhttp.NotFound())
	return mux
}

// applyMiddleware wraps the handler with the middleware chain.
// Order, outermost first: Metrics → Body Limit → Request ID → Tracing → Logging → Recovery → CORS
func applyMiddleware(cfg *config.Config, logger *slog.Logger, handler http.Handler) http.Handler {
	corsConfig := middleware.NewCORSConfig(cfg.CORS.AllowedOrigins, logger)
	logger.Info("CORS enabled",
		slog.Any("allowed_origins", corsConfig.Validator.GetAllowedOrigins()),
		slog.Any("allowed_methods", corsConfig.AllowedMethods),
		slog.Int("max_age", corsConfig.MaxAge))

	// Apply in reverse order (innermost to outermost)
	chain := handler
	chain = middleware.CORS(corsConfig)(chain)
	chain = hhttp.Recover(logger)(chain)
	chain = hhttp.Logging(logger)(chain)
	chain = tracing.Middleware(chain)
	chain = requestid.Middleware(chain)
	chain = hhttp.LimitRequestBody(hhttp.MaxRequestBody)(chain)
	chain = hhttp.MetricsMiddleware(chain)

	return chain
}

// runServer starts the HTTP server and the warmer, then handles graceful shutdown.
func runServer(cfg *config.Config, logger *slog.Logger, components *ServerComponents, tp *sdktrace.TracerProvider, version string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if components.Warmer != nil {
		components.Warmer.Start()
	} else {
		logger.Info("feed cache warmer disabled")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           components.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("version", version),
			slog.Int("feeds", components.Feeds.SourceCount()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if components.Warmer != nil {
		if err := components.Warmer.Stop(shutdownCtx); err != nil {
			logger.Warn("feed cache warmer did not stop in time", slog.Any("error", err))
		}
	}

	cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	if components.Closer != nil {
		if err := components.Closer.Close(); err != nil {
			logger.Warn("failed to close brief provider", slog.Any("error", err))
		}
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Warn("tracer provider shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
