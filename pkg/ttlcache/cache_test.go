package ttlcache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threatfeed/pkg/ttlcache"
)

var t0 = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type countingObserver struct {
	hits, misses, evicted atomic.Int64
}

func (o *countingObserver) Hit(string)              { o.hits.Add(1) }
func (o *countingObserver) Miss(string)             { o.misses.Add(1) }
func (o *countingObserver) Evicted(_ string, n int) { o.evicted.Add(int64(n)) }

func TestCache_TTLBoundary(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
	}{
		{name: "feed ttl", ttl: 30 * time.Minute},
		{name: "brief ttl", ttl: 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := ttlcache.NewFakeClock(t0)
			c := ttlcache.New[string](tt.ttl, ttlcache.WithClock(clock))
			c.Put("k", "v", 0)

			clock.Set(t0.Add(tt.ttl - time.Second))
			e, ok := c.Get("k")
			require.True(t, ok, "entry should be a hit just before expiry")
			assert.Equal(t, "v", e.Value)

			clock.Set(t0.Add(tt.ttl + time.Second))
			_, ok = c.Get("k")
			assert.False(t, ok, "entry should be a miss just after expiry")
			assert.Equal(t, 0, c.Len(), "expired entry should be swept on access")
		})
	}
}

func TestCache_ExactExpiryIsMiss(t *testing.T) {
	clock := ttlcache.NewFakeClock(t0)
	c := ttlcache.New[int](time.Minute, ttlcache.WithClock(clock))
	c.Put("k", 1, 0)

	clock.Advance(time.Minute)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_PutOverwrites(t *testing.T) {
	clock := ttlcache.NewFakeClock(t0)
	c := ttlcache.New[string](time.Minute, ttlcache.WithClock(clock))

	c.Put("k", "old", 0)
	clock.Advance(50 * time.Second)
	c.Put("k", "new", 2*time.Second)
	clock.Advance(30 * time.Second)

	e, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", e.Value)
	assert.Equal(t, 2*time.Second, e.ComputeDuration)
	assert.Equal(t, t0.Add(50*time.Second), e.StoredAt)
	assert.Equal(t, 30*time.Second, e.Age(clock.Now()))
}

func TestCache_SweepAndClear(t *testing.T) {
	clock := ttlcache.NewFakeClock(t0)
	obs := &countingObserver{}
	c := ttlcache.New[int](time.Minute, ttlcache.WithClock(clock), ttlcache.WithObserver(obs))

	c.Put("a", 1, 0)
	c.Put("b", 2, 0)
	clock.Advance(45 * time.Second)
	c.Put("c", 3, 0)

	clock.Advance(30 * time.Second)
	assert.Equal(t, 3, c.Len(), "nothing is evicted without an access")
	assert.Equal(t, 2, c.SweepExpired())
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(2), obs.evicted.Load())

	c.Put("d", 4, 0)
	assert.Equal(t, 2, c.Clear())
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, c.Clear())
}

func TestCache_Snapshot(t *testing.T) {
	clock := ttlcache.NewFakeClock(t0)
	c := ttlcache.New[string](time.Minute, ttlcache.WithClock(clock))

	c.Put("b", "x", time.Second)
	clock.Advance(2 * time.Minute)
	// Snapshot does not sweep, so a stale entry is reported as invalid.
	c.Delete("missing")
	infos := c.Snapshot()
	require.Len(t, infos, 1)
	assert.Equal(t, "b", infos[0].Key)
	assert.False(t, infos[0].Valid)
	assert.Equal(t, time.Second, infos[0].ComputeDuration)
}

func TestCache_ObserverHitMiss(t *testing.T) {
	obs := &countingObserver{}
	c := ttlcache.New[int](time.Minute, ttlcache.WithObserver(obs), ttlcache.WithName("feeds"))
	assert.Equal(t, "feeds", c.Name())

	_, _ = c.Get("k")
	c.Put("k", 1, 0)
	_, _ = c.Get("k")

	assert.Equal(t, int64(1), obs.hits.Load())
	assert.Equal(t, int64(1), obs.misses.Load())
}

func TestCache_GetOrCompute(t *testing.T) {
	clock := ttlcache.NewFakeClock(t0)
	c := ttlcache.New[string](time.Minute, ttlcache.WithClock(clock))
	calls := 0
	fn := func(context.Context) (string, error) {
		calls++
		return "value", nil
	}

	e, cached, err := c.GetOrCompute(context.Background(), "k", fn)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "value", e.Value)

	e, cached, err = c.GetOrCompute(context.Background(), "k", fn)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, "value", e.Value)
	assert.Equal(t, 1, calls)

	clock.Advance(2 * time.Minute)
	_, cached, err = c.GetOrCompute(context.Background(), "k", fn)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, calls)
}

func TestCache_GetOrComputeErrorNotCached(t *testing.T) {
	c := ttlcache.New[string](time.Minute)
	boom := errors.New("boom")

	_, _, err := c.GetOrCompute(context.Background(), "k", func(context.Context) (string, error) {
		return "", boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestCache_GetOrComputeSingleFlight(t *testing.T) {
	c := ttlcache.New[int](time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})

	fn := func(context.Context) (int, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return 42, nil
	}

	const callers = 10
	var wg sync.WaitGroup
	results := make([]int, callers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		e, _, err := c.GetOrCompute(context.Background(), "feeds", fn)
		assert.NoError(t, err)
		results[0] = e.Value
	}()
	<-started

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, _, err := c.GetOrCompute(context.Background(), "feeds", fn)
			assert.NoError(t, err)
			results[i] = e.Value
		}(i)
	}

	// Give waiters a moment to join the in-flight call.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestCache_GetOrComputeDetachedContext(t *testing.T) {
	c := ttlcache.New[string](time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	started := make(chan struct{})
	var fnErr atomic.Value

	go func() {
		<-started
		cancel()
	}()

	_, _, err := c.GetOrCompute(ctx, "k", func(ctx context.Context) (string, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			fnErr.Store(err)
		}
		return "done", nil
	})
	require.ErrorIs(t, err, context.Canceled, "a cancelled caller stops waiting")

	close(release)
	require.Eventually(t, func() bool {
		e, ok := c.Get("k")
		return ok && e.Value == "done"
	}, time.Second, time.Millisecond, "the computation still completes and is stored")
	assert.Nil(t, fnErr.Load())
}

/* ───────── Recompute ───────── */

func TestCache_Recompute(t *testing.T) {
	clock := ttlcache.NewFakeClock(t0)
	c := ttlcache.New[string](time.Minute, ttlcache.WithClock(clock))
	c.Put("k", "old", 0)

	clock.Advance(10 * time.Second)
	e, err := c.Recompute(context.Background(), "k", func(context.Context) (string, error) {
		return "new", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", e.Value)
	assert.Equal(t, clock.Now(), e.StoredAt)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", got.Value)
}

func TestCache_RecomputeFailureKeepsEntry(t *testing.T) {
	c := ttlcache.New[string](time.Minute)
	c.Put("k", "old", 0)
	boom := errors.New("boom")

	_, err := c.Recompute(context.Background(), "k", func(context.Context) (string, error) {
		return "", boom
	})
	require.ErrorIs(t, err, boom)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "old", got.Value)
}

func TestCache_RecomputeKeepsOldEntryReadable(t *testing.T) {
	c := ttlcache.New[string](time.Minute)
	c.Put("k", "old", 0)
	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, err := c.Recompute(context.Background(), "k", func(context.Context) (string, error) {
			close(started)
			<-release
			return "new", nil
		})
		assert.NoError(t, err)
	}()
	<-started

	e, cached, err := c.GetOrCompute(context.Background(), "k", func(context.Context) (string, error) {
		return "", errors.New("must be served from cache")
	})
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, "old", e.Value)

	close(release)
	<-done
	got, _ := c.Get("k")
	assert.Equal(t, "new", got.Value)
}

func TestCache_RecomputeSharesFlightWithMiss(t *testing.T) {
	c := ttlcache.New[int](time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, err := c.Recompute(context.Background(), "k", func(context.Context) (int, error) {
			calls.Add(1)
			close(started)
			<-release
			return 7, nil
		})
		assert.NoError(t, err)
	}()
	<-started

	waiter := make(chan int)
	go func() {
		e, _, err := c.GetOrCompute(context.Background(), "k", func(context.Context) (int, error) {
			calls.Add(1)
			return 0, nil
		})
		assert.NoError(t, err)
		waiter <- e.Value
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	assert.Equal(t, 7, <-waiter)
	<-done
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_WaitHonorsDeadline(t *testing.T) {
	c := ttlcache.New[string](time.Minute)
	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Recompute(ctx, "k", func(context.Context) (string, error) {
		<-release
		return "late", nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
