package summarizer

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Call outcome labels.
const (
	statusSuccess = "success"
	statusError   = "error"
)

// MetricsRecorder records provider call metrics.
// Tests inject a fake to observe calls without Prometheus.
type MetricsRecorder interface {
	// RecordRequest records one Generate call with its outcome and duration.
	RecordRequest(provider, status string, duration time.Duration)

	// RecordOutputLength records the length of generated text in runes.
	RecordOutputLength(provider string, length int)
}

// PrometheusMetrics implements MetricsRecorder with Prometheus collectors.
type PrometheusMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	length   *prometheus.HistogramVec
}

var (
	prometheusMetricsInstance *PrometheusMetrics
	prometheusMetricsOnce     sync.Once
)

// getOrCreateCounterVec gets an existing counter vector or registers a new one
func getOrCreateCounterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labels)
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
		return promauto.NewCounterVec(opts, labels)
	}
	return c
}

// getOrCreateHistogramVec gets an existing histogram vector or registers a new one
func getOrCreateHistogramVec(opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(opts, labels)
	if err := prometheus.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.HistogramVec)
		}
		return promauto.NewHistogramVec(opts, labels)
	}
	return h
}

// NewPrometheusMetrics returns the process-wide Prometheus recorder.
func NewPrometheusMetrics() *PrometheusMetrics {
	prometheusMetricsOnce.Do(func() {
		prometheusMetricsInstance = &PrometheusMetrics{
			requests: getOrCreateCounterVec(prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total language model requests by provider and outcome",
			}, []string{"provider", "status"}),
			duration: getOrCreateHistogramVec(prometheus.HistogramOpts{
				Name:    "llm_request_duration_seconds",
				Help:    "Time taken by a language model request, retries included",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			}, []string{"provider"}),
			length: getOrCreateHistogramVec(prometheus.HistogramOpts{
				Name:    "llm_output_length_characters",
				Help:    "Distribution of generated text lengths in characters (Unicode runes)",
				Buckets: []float64{100, 300, 500, 1000, 2000, 4000, 8000},
			}, []string{"provider"}),
		}
	})
	return prometheusMetricsInstance
}

// RecordRequest implements MetricsRecorder.RecordRequest
func (p *PrometheusMetrics) RecordRequest(provider, status string, duration time.Duration) {
	p.requests.WithLabelValues(provider, status).Inc()
	p.duration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordOutputLength implements MetricsRecorder.RecordOutputLength
func (p *PrometheusMetrics) RecordOutputLength(provider string, length int) {
	p.length.WithLabelValues(provider).Observe(float64(length))
}
