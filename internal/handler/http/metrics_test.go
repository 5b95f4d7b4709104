package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"threatfeed/internal/observability/metrics"
)

func TestMetricsMiddleware_RecordsNormalizedPath(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		status   int
		wantPath string
		wantCode string
	}{
		{name: "feeds", method: http.MethodGet, path: "/api/feeds?refresh=true", status: http.StatusOK, wantPath: "/api/feeds", wantCode: "200"},
		{name: "summarize unavailable", method: http.MethodPost, path: "/api/summarize", status: http.StatusServiceUnavailable, wantPath: "/api/summarize", wantCode: "503"},
		{name: "unknown route", method: http.MethodGet, path: "/.env", status: http.StatusNotFound, wantPath: "/unmatched", wantCode: "404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{}`))
			}))

			counter := metrics.HTTPRequestsTotal.WithLabelValues(tt.method, tt.wantPath, tt.wantCode)
			before := testutil.ToFloat64(counter)

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}")))

			assert.Equal(t, before+1, testutil.ToFloat64(counter))
		})
	}
}

func TestMetricsMiddleware_ActiveConnectionsReturnToZero(t *testing.T) {
	before := testutil.ToFloat64(metrics.ActiveConnections)

	var during float64
	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during = testutil.ToFloat64(metrics.ActiveConnections)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, before+1, during)
	assert.Equal(t, before, testutil.ToFloat64(metrics.ActiveConnections))
}

func TestMetricsHandler(t *testing.T) {
	metrics.RecordHTTPRequest(http.MethodGet, "/health", "200", 0, 0, 10)

	rr := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "http_requests_total")
}
