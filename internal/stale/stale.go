// Package stale keeps the last non-empty aggregation so a total failure can
// be answered with old data instead of nothing.
//
// The snapshot is a single slot shared by every request shape: a snapshot
// taken for one symbol set may be served for a disjoint one.
package stale

import (
	"context"
	"slices"
	"sync"

	"quoteaggregator/internal/quote"
)

// Store is a single-slot snapshot of the last successful aggregation.
type Store interface {
	// Load returns the current snapshot, empty if none was ever saved.
	Load(ctx context.Context) []quote.MarketQuote
	// Save overwrites the snapshot. Empty input is ignored.
	Save(ctx context.Context, quotes []quote.MarketQuote)
}

// Slot is an in-process Store. Concurrent writers race; the last one wins.
type Slot struct {
	mu     sync.RWMutex
	quotes []quote.MarketQuote
}

var _ Store = (*Slot)(nil)

func (s *Slot) Load(context.Context) []quote.MarketQuote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.quotes)
}

func (s *Slot) Save(_ context.Context, quotes []quote.MarketQuote) {
	if len(quotes) == 0 {
		return
	}
	s.mu.Lock()
	s.quotes = slices.Clone(quotes)
	s.mu.Unlock()
}

// Reset empties the slot.
func (s *Slot) Reset() {
	s.mu.Lock()
	s.quotes = nil
	s.mu.Unlock()
}
