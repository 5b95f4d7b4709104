package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

/* ───────── CORS ───────── */

func TestWhitelistValidator(t *testing.T) {
	tests := []struct {
		name    string
		list    []string
		origin  string
		allowed bool
	}{
		{name: "exact match", list: []string{"http://localhost:3000"}, origin: "http://localhost:3000", allowed: true},
		{name: "case and slash", list: []string{"HTTPS://Dash.Example.com/"}, origin: "https://dash.example.com", allowed: true},
		{name: "not listed", list: []string{"http://localhost:3000"}, origin: "http://evil.test", allowed: false},
		{name: "wildcard", list: []string{"*"}, origin: "http://anything.test", allowed: true},
		{name: "empty origin", list: []string{"*"}, origin: "", allowed: false},
		{name: "blank entries dropped", list: []string{" ", ""}, origin: "http://localhost", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewWhitelistValidator(tt.list)
			assert.Equal(t, tt.allowed, v.IsAllowed(tt.origin))
		})
	}

	v := NewWhitelistValidator([]string{"http://A.test/"})
	got := v.GetAllowedOrigins()
	got[0] = "mutated"
	assert.Equal(t, []string{"http://a.test"}, v.GetAllowedOrigins())
}

func TestNewCORSConfig_ExposesAllowedOrigins(t *testing.T) {
	cfg := NewCORSConfig([]string{"http://localhost:3000/", "https://Dash.Example.com"}, slog.New(slog.DiscardHandler))

	assert.Equal(t, []string{"http://localhost:3000", "https://dash.example.com"}, cfg.Validator.GetAllowedOrigins())
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		origins     []string
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantAllow   string
		wantCreds   string
		wantMethods bool
	}{
		{name: "same origin untouched", origins: []string{"*"}, method: http.MethodGet, wantStatus: http.StatusOK},
		{name: "wildcard actual request", origins: []string{"*"}, method: http.MethodGet, origin: "http://localhost:8000", wantStatus: http.StatusOK, wantAllow: "*"},
		{name: "wildcard preflight", origins: []string{"*"}, method: http.MethodOptions, origin: "http://localhost:8000", preflight: true, wantStatus: http.StatusNoContent, wantAllow: "*", wantMethods: true},
		{name: "listed origin echoed", origins: []string{"https://dash.test"}, method: http.MethodPost, origin: "https://dash.test", wantStatus: http.StatusOK, wantAllow: "https://dash.test", wantCreds: "true"},
		{name: "listed preflight", origins: []string{"https://dash.test"}, method: http.MethodOptions, origin: "https://dash.test", preflight: true, wantStatus: http.StatusNoContent, wantAllow: "https://dash.test", wantCreds: "true", wantMethods: true},
		{name: "unlisted origin gets no headers", origins: []string{"https://dash.test"}, method: http.MethodGet, origin: "https://evil.test", wantStatus: http.StatusOK},
		{name: "options without request method passes through", origins: []string{"*"}, method: http.MethodOptions, origin: "http://localhost", wantStatus: http.StatusOK, wantAllow: "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORS(NewCORSConfig(tt.origins, nil))(okHandler)

			req := httptest.NewRequest(tt.method, "/api/summarize", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantAllow, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCreds, rr.Header().Get("Access-Control-Allow-Credentials"))
			if tt.wantMethods {
				assert.Equal(t, "GET, POST, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
				assert.Equal(t, "Content-Type, X-Request-ID", rr.Header().Get("Access-Control-Allow-Headers"))
				assert.Equal(t, "86400", rr.Header().Get("Access-Control-Max-Age"))
			} else {
				assert.Empty(t, rr.Header().Get("Access-Control-Allow-Methods"))
			}
		})
	}
}

/* ───────── IP extraction ───────── */

func TestParseTrustedProxies(t *testing.T) {
	got, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 192.168.1.7 ", "", "2001:db8::1"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "10.0.0.0/8", got[0].String())
	assert.Equal(t, "192.168.1.7/32", got[1].String())
	assert.Equal(t, "2001:db8::1/128", got[2].String())

	_, err = ParseTrustedProxies([]string{"not-an-ip"})
	assert.Error(t, err)
}

func TestIPExtractors(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		extractor  IPExtractor
		remoteAddr string
		xff        string
		xri        string
		want       string
		wantErr    bool
	}{
		{name: "remote addr ipv4", extractor: RemoteAddrExtractor{}, remoteAddr: "192.0.2.1:5555", want: "192.0.2.1"},
		{name: "remote addr ipv6", extractor: RemoteAddrExtractor{}, remoteAddr: "[2001:db8::1]:8080", want: "2001:db8::1"},
		{name: "remote addr without port", extractor: RemoteAddrExtractor{}, remoteAddr: "127.0.0.1", want: "127.0.0.1"},
		{name: "remote addr ignores headers", extractor: RemoteAddrExtractor{}, remoteAddr: "192.0.2.1:1", xff: "203.0.113.9", want: "192.0.2.1"},
		{name: "garbage remote addr", extractor: RemoteAddrExtractor{}, remoteAddr: "nonsense", wantErr: true},
		{name: "trusted proxy uses xff", extractor: NewIPExtractor(trusted), remoteAddr: "10.1.2.3:80", xff: "203.0.113.9, 10.1.2.3", want: "203.0.113.9"},
		{name: "trusted proxy uses x-real-ip", extractor: NewIPExtractor(trusted), remoteAddr: "10.1.2.3:80", xri: "203.0.113.10", want: "203.0.113.10"},
		{name: "trusted proxy bad xff falls back", extractor: NewIPExtractor(trusted), remoteAddr: "10.1.2.3:80", xff: "unknown", want: "10.1.2.3"},
		{name: "untrusted peer spoofing xff", extractor: NewIPExtractor(trusted), remoteAddr: "198.51.100.4:80", xff: "203.0.113.9", want: "198.51.100.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}

			got, err := tt.extractor.ExtractIP(req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.IsType(t, RemoteAddrExtractor{}, NewIPExtractor(nil))
}

/* ───────── Client rate limiter ───────── */

type fakeNow struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeNow) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeNow) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func doRequest(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/summarize", nil)
	req.RemoteAddr = remoteAddr
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestClientRateLimiter_BurstThenDeny(t *testing.T) {
	clock := &fakeNow{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewClientRateLimiter(ClientRateLimiterConfig{RequestsPerSecond: 0.2, Burst: 3, Now: clock.Now})
	h := rl.Middleware(okHandler)

	for i := 0; i < 3; i++ {
		rr := doRequest(h, "192.0.2.1:1000")
		require.Equal(t, http.StatusOK, rr.Code, "request %d", i)
		assert.Equal(t, "3", rr.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(2-i), rr.Header().Get("X-RateLimit-Remaining"))
	}

	rr := doRequest(h, "192.0.2.1:1001")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "5", rr.Header().Get("Retry-After"))
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Rate limit exceeded", body["error"])

	// another client has its own bucket
	assert.Equal(t, http.StatusOK, doRequest(h, "192.0.2.2:1000").Code)

	// one token refills after 5s at 0.2 rps
	clock.Advance(5 * time.Second)
	assert.Equal(t, http.StatusOK, doRequest(h, "192.0.2.1:1000").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(h, "192.0.2.1:1000").Code)
}

func TestClientRateLimiter_Disabled(t *testing.T) {
	rl := NewClientRateLimiter(ClientRateLimiterConfig{RequestsPerSecond: 0})
	assert.False(t, rl.Enabled())

	h := rl.Middleware(okHandler)
	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, doRequest(h, "192.0.2.1:1").Code)
	}
	assert.Zero(t, rl.Len())
}

func TestClientRateLimiter_UnknownClientAllowed(t *testing.T) {
	rl := NewClientRateLimiter(ClientRateLimiterConfig{RequestsPerSecond: 1, Burst: 1})
	h := rl.Middleware(okHandler)

	assert.Equal(t, http.StatusOK, doRequest(h, "garbage").Code)
	assert.Equal(t, http.StatusOK, doRequest(h, "garbage").Code)
}

func TestClientRateLimiter_SweepsIdleClients(t *testing.T) {
	clock := &fakeNow{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewClientRateLimiter(ClientRateLimiterConfig{
		RequestsPerSecond: 1,
		Burst:             1,
		IdleTTL:           time.Minute,
		Now:               clock.Now,
	})
	h := rl.Middleware(okHandler)

	doRequest(h, "192.0.2.1:1")
	doRequest(h, "192.0.2.2:1")
	assert.Equal(t, 2, rl.Len())

	clock.Advance(2 * time.Minute)
	doRequest(h, "192.0.2.3:1")
	assert.Equal(t, 1, rl.Len())
}
