package coingecko

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// CachingClient memoizes fetch results for a fixed time-to-live.
//
// Results are keyed by (coin id, days). Within the TTL window, repeated
// fetches with identical arguments return the cached payload without a
// network round-trip; after expiry the next fetch refreshes the entry.
// Failures are never cached, so the periodic refresh tick naturally retries
// them.
//
// The key space is bounded by the coin registry's cardinality, so no size
// bound or eviction policy is needed beyond expiry-on-read.
type CachingClient struct {
	inner Fetcher
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
}

type cacheKey struct {
	coinID string
	days   int
}

type cacheEntry struct {
	chart     *MarketChart
	expiresAt time.Time
}

// NewCachingClient wraps a Fetcher with a TTL memo. A non-positive ttl
// disables caching and every call passes through.
func NewCachingClient(inner Fetcher, ttl time.Duration) *CachingClient {
	return &CachingClient{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[cacheKey]cacheEntry),
	}
}

// FetchMarketChart returns the memoized payload when fresh, otherwise
// delegates to the wrapped fetcher and stores the result.
func (c *CachingClient) FetchMarketChart(ctx context.Context, coinID string, days int) (*MarketChart, error) {
	key := cacheKey{coinID: coinID, days: days}

	if c.ttl > 0 {
		c.mu.Lock()
		entry, ok := c.entries[key]
		if ok && c.now().Before(entry.expiresAt) {
			c.mu.Unlock()
			log.Debug().Str("coin", coinID).Int("days", days).Msg("market data cache hit")
			return entry.chart, nil
		}
		c.mu.Unlock()
	}

	chart, err := c.inner.FetchMarketChart(ctx, coinID, days)
	if err != nil {
		return nil, err
	}

	if c.ttl > 0 {
		c.mu.Lock()
		c.entries[key] = cacheEntry{chart: chart, expiresAt: c.now().Add(c.ttl)}
		c.mu.Unlock()
	}

	return chart, nil
}
