// Package worker runs the background job that keeps the feed cache warm.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	fetchUC "threatfeed/internal/usecase/fetch"
)

// Refresher forces a new aggregation. *fetch.CachedAggregator implements it.
type Refresher interface {
	Refresh(ctx context.Context) (fetchUC.Snapshot, error)
}

// Warmer refreshes the feed cache on a cron schedule. Runs that would overlap
// a still running refresh are skipped.
type Warmer struct {
	cfg       Config
	refresher Refresher
	logger    *slog.Logger
	cron      *cron.Cron

	runs     atomic.Int64
	failures atomic.Int64
}

// New creates a Warmer. It validates cfg and registers the job but does not start it.
func New(cfg Config, refresher Refresher, logger *slog.Logger) (*Warmer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("warmer config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("warmer timezone: %w", err)
	}

	cl := cronLogger{logger: logger}
	w := &Warmer{
		cfg:       cfg,
		refresher: refresher,
		logger:    logger,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithParser(scheduleParser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}

	if _, err := w.cron.AddFunc(cfg.Schedule, func() {
		_ = w.RunOnce(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("add warmer job: %w", err)
	}
	return w, nil
}

// Start starts the scheduler in its own goroutine.
func (w *Warmer) Start() {
	w.cron.Start()
	w.logger.Info("feed cache warmer started",
		slog.String("schedule", w.cfg.Schedule),
		slog.String("timezone", w.cfg.Timezone),
		slog.Time("next_run", w.Next()))

	if w.cfg.RunOnStart {
		go func() { _ = w.RunOnce(context.Background()) }()
	}
}

// Stop stops the scheduler and waits for a running refresh to finish or ctx to end.
func (w *Warmer) Stop(ctx context.Context) error {
	done := w.cron.Stop()
	select {
	case <-done.Done():
		w.logger.Info("feed cache warmer stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next returns the next scheduled run, or the zero time before Start.
func (w *Warmer) Next() time.Time {
	entries := w.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Runs returns how many refreshes have run and how many failed.
func (w *Warmer) Runs() (total, failed int64) {
	return w.runs.Load(), w.failures.Load()
}

// RunOnce refreshes the feed cache, bounded by the configured timeout.
func (w *Warmer) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	w.runs.Add(1)
	start := time.Now()
	snap, err := w.refresher.Refresh(ctx)
	duration := time.Since(start)

	if err != nil {
		w.failures.Add(1)
		recordRun("failure", duration)
		w.logger.Error("feed cache refresh failed",
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return err
	}

	recordRun("success", duration)
	recordSuccess(time.Now())
	w.logger.Info("feed cache refreshed",
		slog.Int("articles", len(snap.Articles)),
		slog.Int("successful_feeds", snap.SuccessfulCount),
		slog.Int("total_feeds", snap.TotalCount),
		slog.Duration("duration", duration))
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
