package ratelimit

import (
	"context"
	"sync"
	"time"

	"quoteaggregator/internal/provider"
	"quoteaggregator/internal/quote"
)

// Limiter gates upstream calls.
type Limiter interface {
	Wait(ctx context.Context) error
}

// MinInterval enforces a minimum time between calls.
// Concurrent callers wait until the interval has elapsed since the last call,
// or return early if the context is canceled.
type MinInterval struct {
	Interval time.Duration

	mu   sync.Mutex
	next time.Time
}

func (m *MinInterval) Wait(ctx context.Context) error {
	if m.Interval <= 0 {
		return nil
	}
	// reserve a slot so concurrent callers queue behind each other
	m.mu.Lock()
	now := time.Now()
	at := m.next
	if at.Before(now) {
		at = now
	}
	m.next = at.Add(m.Interval)
	m.mu.Unlock()

	wait := time.Until(at)
	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Batch gates a BatchSource.
type Batch struct {
	P provider.BatchSource
	L Limiter
}

func (b *Batch) Name() string { return b.P.Name() }

func (b *Batch) FetchBatch(ctx context.Context, reqs []quote.Request) ([]quote.MarketQuote, error) {
	if b.L != nil {
		if err := b.L.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return b.P.FetchBatch(ctx, reqs)
}

// Single gates a SingleSource. Every symbol costs one token.
type Single struct {
	P provider.SingleSource
	L Limiter
}

func (s *Single) Name() string { return s.P.Name() }

func (s *Single) FetchOne(ctx context.Context, req quote.Request) (quote.MarketQuote, error) {
	if s.L != nil {
		if err := s.L.Wait(ctx); err != nil {
			return quote.MarketQuote{}, err
		}
	}
	return s.P.FetchOne(ctx, req)
}

// Crypto gates a CryptoSource.
type Crypto struct {
	P provider.CryptoSource
	L Limiter
}

func (c *Crypto) Name() string { return c.P.Name() }

func (c *Crypto) Prices(ctx context.Context, ids []string) (map[string]quote.CoinPrice, error) {
	if c.L != nil {
		if err := c.L.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return c.P.Prices(ctx, ids)
}

// FromConfig picks a limiter: a token bucket when rpm is set, otherwise a
// minimum interval, otherwise none.
func FromConfig(rpm, burst int, minInterval time.Duration) Limiter {
	switch {
	case rpm > 0:
		return NewTokenBucket(rpm, burst)
	case minInterval > 0:
		return &MinInterval{Interval: minInterval}
	default:
		return nil
	}
}

var (
	_ provider.BatchSource  = (*Batch)(nil)
	_ provider.SingleSource = (*Single)(nil)
	_ provider.CryptoSource = (*Crypto)(nil)
)
