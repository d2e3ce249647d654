package cache

import (
	"context"
	"sync"
	"time"

	"quoteaggregator/internal/provider"
	"quoteaggregator/internal/quote"
)

// entry stores one cached quote with expiry.
type entry struct {
	expiresAt time.Time
	quote     quote.MarketQuote
}

// Batch caches a BatchSource per symbol for a TTL.
// It requests only missing symbols from the underlying source. Fresh quotes
// come first in upstream order, followed by cache hits in request order.
type Batch struct {
	P        provider.BatchSource
	TTL      time.Duration
	MaxItems int

	mu    sync.RWMutex
	items map[string]entry // key: symbol
	now   func() time.Time
}

var _ provider.BatchSource = (*Batch)(nil)

func (c *Batch) Name() string { return c.P.Name() }

func (c *Batch) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

// FetchBatch returns quotes for reqs using the cache when valid. If the
// upstream fails and some symbols were cached, the cached part is returned.
func (c *Batch) FetchBatch(ctx context.Context, reqs []quote.Request) ([]quote.MarketQuote, error) {
	if c.TTL <= 0 {
		return c.P.FetchBatch(ctx, reqs)
	}

	now := c.clock()

	// Split into cached and missing symbols
	cached := make([]quote.MarketQuote, 0, len(reqs))
	missing := make([]quote.Request, 0, len(reqs))
	seen := make(map[string]struct{}, len(reqs))

	c.mu.RLock()
	for _, r := range reqs {
		if _, dup := seen[r.Symbol]; dup {
			continue
		}
		seen[r.Symbol] = struct{}{}
		if e, ok := c.items[r.Symbol]; ok && now.Before(e.expiresAt) {
			// Metadata always comes from the current request.
			q := e.quote
			q.Name, q.Display = r.Name, r.Display
			cached = append(cached, q)
			continue
		}
		missing = append(missing, r)
	}
	c.mu.RUnlock()

	// If everything is cached, return quickly
	if len(missing) == 0 {
		return cached, nil
	}

	fresh, err := c.P.FetchBatch(ctx, missing)
	if err != nil {
		if len(cached) > 0 {
			return cached, nil
		}
		return nil, err
	}

	expiry := now.Add(c.TTL)
	c.mu.Lock()
	if c.items == nil {
		c.items = make(map[string]entry, len(fresh))
	}
	for _, q := range fresh {
		c.items[q.Symbol] = entry{expiresAt: expiry, quote: q}
	}
	c.evictLocked(now)
	c.mu.Unlock()

	return append(fresh, cached...), nil
}

// evictLocked caps the cache size: expired entries go first, then arbitrary ones.
func (c *Batch) evictLocked(now time.Time) {
	if c.MaxItems <= 0 || len(c.items) <= c.MaxItems {
		return
	}
	for k, v := range c.items {
		if len(c.items) <= c.MaxItems {
			return
		}
		if !now.Before(v.expiresAt) {
			delete(c.items, k)
		}
	}
	for k := range c.items {
		if len(c.items) <= c.MaxItems {
			return
		}
		delete(c.items, k)
	}
}

// Len returns the number of cached symbols, expired or not.
func (c *Batch) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
