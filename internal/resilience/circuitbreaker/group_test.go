package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func TestGroup_GetReusesBreaker(t *testing.T) {
	g := NewGroup(FeedFetchConfig)

	a := g.Get("https://a.example/feed")
	b := g.Get("https://b.example/feed")

	if a == b {
		t.Fatal("expected distinct breakers for distinct keys")
	}
	if g.Get("https://a.example/feed") != a {
		t.Error("expected the same breaker for the same key")
	}
	if a.Name() != "feed-fetch:https://a.example/feed" {
		t.Errorf("unexpected breaker name %q", a.Name())
	}
}

func TestGroup_IsolatesFailures(t *testing.T) {
	g := NewGroup(func(key string) Config {
		return Config{
			Name:             key,
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          time.Minute,
			FailureThreshold: 0.5,
			MinRequests:      2,
		}
	})

	bad := g.Get("bad")
	for i := 0; i < 3; i++ {
		_, _ = Run(bad, func() (int, error) { return 0, errors.New("down") })
	}

	if !bad.IsOpen() {
		t.Fatal("expected failing breaker to open")
	}
	if g.Get("good").State() != gobreaker.StateClosed {
		t.Error("expected other breakers to stay closed")
	}

	states := g.States()
	if states["bad"] != "open" || states["good"] != "closed" {
		t.Errorf("unexpected states %v", states)
	}
}
