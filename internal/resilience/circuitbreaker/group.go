package circuitbreaker

import "sync"

// Group lazily creates one circuit breaker per key, such as one per feed URL.
type Group struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
	config   func(key string) Config
}

// NewGroup returns a Group building breakers with config.
func NewGroup(config func(key string) Config) *Group {
	return &Group{
		breakers: make(map[string]*CircuitBreaker),
		config:   config,
	}
}

// Get returns the breaker for key, creating it on first use.
func (g *Group) Get(key string) *CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cb, ok := g.breakers[key]; ok {
		return cb
	}
	cb := New(g.config(key))
	g.breakers[key] = cb
	return cb
}

// States returns the state name of every breaker created so far.
func (g *Group) States() map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()

	states := make(map[string]string, len(g.breakers))
	for key, cb := range g.breakers {
		states[key] = cb.State().String()
	}
	return states
}
