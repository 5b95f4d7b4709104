package summarizer_test

import (
	"sync"
	"time"

	"threatfeed/internal/infra/summarizer"
	"threatfeed/internal/resilience/retry"
)

type recordedRequest struct {
	provider string
	status   string
}

// fakeRecorder captures metrics calls in memory.
type fakeRecorder struct {
	mu       sync.Mutex
	requests []recordedRequest
	lengths  []int
}

func (f *fakeRecorder) RecordRequest(provider, status string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{provider: provider, status: status})
}

func (f *fakeRecorder) RecordOutputLength(_ string, length int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lengths = append(f.lengths, length)
}

func testConfig(provider, baseURL string) summarizer.Config {
	cfg := summarizer.DefaultConfig()
	cfg.Provider = provider
	cfg.Model = summarizer.DefaultModel(provider)
	cfg.APIKey = "test-key"
	cfg.BaseURL = baseURL
	cfg.Timeout = 5 * time.Second
	cfg.RequestsPerSecond = 0
	cfg.Retry = retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   1.0,
	}
	return cfg
}
