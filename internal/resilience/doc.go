// Package resilience groups the failure-handling primitives shared by the feed
// fetcher and the text-generation providers.
//
// Subpackages:
//   - circuitbreaker: gobreaker breakers, one per feed URL or provider
//   - retry: context-aware retry with fixed or exponential delays, Retry-After
//     handling and permanent-error short circuiting
//
// A typical call wraps the breaker inside the retry loop so an open breaker
// ends the loop at once:
//
//	body, err := retry.Do(ctx, retry.FeedFetchConfig(2, 2*time.Second), func() ([]byte, error) {
//	    body, err := circuitbreaker.Run(cb, fetchOnce)
//	    if circuitbreaker.IsRejection(err) {
//	        return nil, retry.Permanent(err)
//	    }
//	    return body, err
//	})
package resilience
