// Package ttlcache provides a thread-safe in-memory cache whose entries expire
// after a fixed time-to-live.
//
// The cache has no size limit and no LRU policy. Expired entries are removed
// lazily: every Get and Put first sweeps entries whose TTL has elapsed, and
// SweepExpired can be called explicitly. An entry stored at T is valid while
// now < T + TTL.
//
// GetOrCompute collapses concurrent misses for the same key into a single
// computation, so at most one outbound call per key is in flight. Recompute
// joins the same flight but replaces the entry in place, keeping the old
// value readable while it runs.
package ttlcache

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Entry is a cached value together with its bookkeeping.
type Entry[V any] struct {
	Value V

	// StoredAt is when the value was written.
	StoredAt time.Time

	// ComputeDuration is how long producing the value took, when known.
	ComputeDuration time.Duration
}

// Age returns how long ago the entry was stored.
func (e Entry[V]) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

// EntryInfo describes an entry without exposing its value.
type EntryInfo struct {
	Key             string
	StoredAt        time.Time
	ComputeDuration time.Duration
	Valid           bool
}

// Observer receives cache events, typically to feed metrics.
type Observer interface {
	Hit(cache string)
	Miss(cache string)
	Evicted(cache string, n int)
}

type noopObserver struct{}

func (noopObserver) Hit(string)          {}
func (noopObserver) Miss(string)         {}
func (noopObserver) Evicted(string, int) {}

// Option configures a Cache.
type Option func(*options)

type options struct {
	clock    Clock
	name     string
	observer Observer
}

// WithClock sets the clock used to timestamp and expire entries.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithName sets the name reported to the Observer.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithObserver registers an Observer for hit, miss and eviction events.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// Cache is a TTL cache keyed by string.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]Entry[V]
	ttl     time.Duration

	clock    Clock
	name     string
	observer Observer
	group    singleflight.Group
}

// New creates a cache whose entries live for ttl.
func New[V any](ttl time.Duration, opts ...Option) *Cache[V] {
	o := options{clock: SystemClock{}, name: "cache", observer: noopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[V]{
		entries:  make(map[string]Entry[V]),
		ttl:      ttl,
		clock:    o.clock,
		name:     o.name,
		observer: o.observer,
	}
}

// TTL returns the time-to-live applied to every entry.
func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}

// Name returns the cache name.
func (c *Cache[V]) Name() string {
	return c.name
}

// Now returns the cache clock's current time.
func (c *Cache[V]) Now() time.Time {
	return c.clock.Now()
}

// Get returns the entry for key if it is still valid.
func (c *Cache[V]) Get(key string) (Entry[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	c.sweepLocked(now)

	e, ok := c.entries[key]
	if !ok {
		c.observer.Miss(c.name)
		return Entry[V]{}, false
	}
	c.observer.Hit(c.name)
	return e, true
}

// Put stores value under key, replacing any previous entry.
func (c *Cache[V]) Put(key string, value V, computeDuration time.Duration) Entry[V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	c.sweepLocked(now)

	e := Entry[V]{Value: value, StoredAt: now, ComputeDuration: computeDuration}
	c.entries[key] = e
	return e
}

// GetOrCompute returns the valid entry for key, or runs fn to produce it.
// The boolean reports whether the value came from the cache. Concurrent
// callers missing on the same key share one fn invocation. Errors are not
// cached.
//
// fn runs with a context detached from the caller's cancellation, so a
// started computation always completes and is stored. The caller stops
// waiting when ctx is done and gets ctx.Err().
func (c *Cache[V]) GetOrCompute(ctx context.Context, key string, fn func(ctx context.Context) (V, error)) (Entry[V], bool, error) {
	if e, ok := c.Get(key); ok {
		return e, true, nil
	}
	return c.flight(ctx, key, true, fn)
}

// Recompute runs fn and stores its result under key without consulting the
// cache first. The current entry stays readable until the new value lands,
// and a failed computation leaves it untouched. Recompute shares the
// in-flight computation with GetOrCompute for the same key.
func (c *Cache[V]) Recompute(ctx context.Context, key string, fn func(ctx context.Context) (V, error)) (Entry[V], error) {
	e, _, err := c.flight(ctx, key, false, fn)
	return e, err
}

type outcome[V any] struct {
	entry  Entry[V]
	cached bool
}

func (c *Cache[V]) flight(ctx context.Context, key string, reuse bool, fn func(ctx context.Context) (V, error)) (Entry[V], bool, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		// Another flight may have filled the key while we waited for the lock.
		if reuse {
			if e, ok := c.peek(key); ok {
				return outcome[V]{entry: e, cached: true}, nil
			}
		}

		start := c.clock.Now()
		v, err := fn(detached)
		if err != nil {
			return nil, err
		}
		e := c.Put(key, v, c.clock.Now().Sub(start))
		return outcome[V]{entry: e}, nil
	})

	select {
	case <-ctx.Done():
		return Entry[V]{}, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Entry[V]{}, false, res.Err
		}
		out := res.Val.(outcome[V])
		return out.entry, out.cached, nil
	}
}

// peek is Get without observer events.
func (c *Cache[V]) peek(key string) (Entry[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.validLocked(e, c.clock.Now()) {
		return Entry[V]{}, false
	}
	return e, true
}

// Delete removes key and reports whether it was present.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok
}

// Clear removes every entry and returns how many were removed.
func (c *Cache[V]) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]Entry[V])
	return n
}

// SweepExpired removes expired entries and returns how many were removed.
func (c *Cache[V]) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked(c.clock.Now())
}

// Len returns the number of stored entries, expired ones included until the next sweep.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot describes every stored entry, sorted by key.
func (c *Cache[V]) Snapshot() []EntryInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	infos := make([]EntryInfo, 0, len(c.entries))
	for k, e := range c.entries {
		infos = append(infos, EntryInfo{
			Key:             k,
			StoredAt:        e.StoredAt,
			ComputeDuration: e.ComputeDuration,
			Valid:           c.validLocked(e, now),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos
}

func (c *Cache[V]) validLocked(e Entry[V], now time.Time) bool {
	return now.Before(e.StoredAt.Add(c.ttl))
}

func (c *Cache[V]) sweepLocked(now time.Time) int {
	removed := 0
	for k, e := range c.entries {
		if !c.validLocked(e, now) {
			delete(c.entries, k)
			removed++
		}
	}
	if removed > 0 {
		c.observer.Evicted(c.name, removed)
	}
	return removed
}
