package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// warmerRunsTotal counts refresh runs by status (success, failure).
	warmerRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_warmer_runs_total",
		Help: "Total number of feed cache warmer runs by status",
	}, []string{"status"})

	// warmerDurationSeconds measures how long a refresh took.
	warmerDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "feed_warmer_duration_seconds",
		Help:    "Duration of feed cache warmer runs in seconds",
		Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120},
	})

	// warmerLastSuccessTimestamp is the Unix time of the last successful refresh.
	warmerLastSuccessTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feed_warmer_last_success_timestamp",
		Help: "Unix timestamp of the last successful feed cache warmer run",
	})
)

func recordRun(status string, d time.Duration) {
	warmerRunsTotal.WithLabelValues(status).Inc()
	warmerDurationSeconds.Observe(d.Seconds())
}

func recordSuccess(at time.Time) {
	warmerLastSuccessTimestamp.Set(float64(at.Unix()))
}
