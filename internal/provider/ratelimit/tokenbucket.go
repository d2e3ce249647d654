package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket allows bursts of up to burst calls, refilling at a fixed
// number of calls per minute. It starts full.
type TokenBucket struct {
	perSecond float64
	burst     float64

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// NewTokenBucket refills perMinute tokens a minute. Values below one are
// raised to one.
func NewTokenBucket(perMinute, burst int) *TokenBucket {
	perMinute = max(perMinute, 1)
	burst = max(burst, 1)
	return &TokenBucket{
		perSecond: float64(perMinute) / 60,
		burst:     float64(burst),
		tokens:    float64(burst),
		last:      time.Now(),
	}
}

// take spends a token if one is available. Otherwise it reports how long
// until one will be.
func (tb *TokenBucket) take(now time.Time) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if now.After(tb.last) {
		tb.tokens = min(tb.burst, tb.tokens+now.Sub(tb.last).Seconds()*tb.perSecond)
		tb.last = now
	}
	if tb.tokens >= 1 {
		tb.tokens--
		return 0
	}
	wait := time.Duration((1 - tb.tokens) / tb.perSecond * float64(time.Second))
	return max(wait, time.Millisecond)
}

// Wait blocks until a token is spent or ctx ends.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		wait := tb.take(time.Now())
		if wait == 0 {
			return nil
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
