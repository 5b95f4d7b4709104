package fetch

import (
	"context"
	"time"

	"threatfeed/internal/domain/entity"
	"threatfeed/pkg/ttlcache"
)

// AllFeedsKey is the single cache key under which aggregate results are stored.
const AllFeedsKey = "all_feeds"

// Snapshot is an aggregation result as served to readers.
type Snapshot struct {
	*Result

	// Cached reports whether the result came from the cache.
	Cached bool

	// StoredAt is when the result was written to the cache.
	StoredAt time.Time

	// Age is how long ago the result was stored.
	Age time.Duration
}

// CachedAggregator serves aggregation results from a TTL cache and runs at
// most one aggregation at a time for the fixed key.
type CachedAggregator struct {
	service *Service
	cache   *ttlcache.Cache[*Result]
	sources []entity.FeedSource
}

// NewCachedAggregator wires a Service to a feed cache for a fixed source list.
func NewCachedAggregator(service *Service, cache *ttlcache.Cache[*Result], sources []entity.FeedSource) *CachedAggregator {
	return &CachedAggregator{service: service, cache: cache, sources: sources}
}

// Sources returns the configured sources.
func (a *CachedAggregator) Sources() []entity.FeedSource {
	return a.sources
}

// Cache returns the underlying feed cache.
func (a *CachedAggregator) Cache() *ttlcache.Cache[*Result] {
	return a.cache
}

// SourceCount returns the number of configured sources.
func (a *CachedAggregator) SourceCount() int {
	return len(a.sources)
}

// CacheLen returns the number of entries in the feed cache.
func (a *CachedAggregator) CacheLen() int {
	return a.cache.Len()
}

// Get returns the cached aggregation when still valid, aggregating otherwise.
// When refresh is true a new aggregation runs regardless of the cache; other
// readers keep getting the previous result until it is replaced.
func (a *CachedAggregator) Get(ctx context.Context, refresh bool) (Snapshot, error) {
	var (
		entry  ttlcache.Entry[*Result]
		cached bool
		err    error
	)
	if refresh {
		entry, err = a.cache.Recompute(ctx, AllFeedsKey, a.aggregate)
	} else {
		entry, cached, err = a.cache.GetOrCompute(ctx, AllFeedsKey, a.aggregate)
	}
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Result:   entry.Value,
		Cached:   cached,
		StoredAt: entry.StoredAt,
		Age:      entry.Age(a.cache.Now()),
	}, nil
}

// Refresh forces a new aggregation and stores it.
func (a *CachedAggregator) Refresh(ctx context.Context) (Snapshot, error) {
	return a.Get(ctx, true)
}

func (a *CachedAggregator) aggregate(ctx context.Context) (*Result, error) {
	return a.service.AggregateAll(ctx, a.sources)
}
