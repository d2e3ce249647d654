// Package router decides which provider serves each symbol.
package router

import "quoteaggregator/internal/quote"

// Router classifies symbols by membership in an immutable secondary-only set.
type Router struct {
	secondaryOnly map[string]struct{}
}

// New builds a Router. Empty symbols are ignored.
func New(secondaryOnly ...string) *Router {
	set := make(map[string]struct{}, len(secondaryOnly))
	for _, s := range secondaryOnly {
		if s == "" {
			continue
		}
		set[s] = struct{}{}
	}
	return &Router{secondaryOnly: set}
}

// SecondaryOnly reports whether symbol must bypass the primary provider.
func (r *Router) SecondaryOnly(symbol string) bool {
	_, ok := r.secondaryOnly[symbol]
	return ok
}

// Partition splits reqs into primary-eligible and secondary-only sequences.
// Both keep input order and every request lands in exactly one of them.
func (r *Router) Partition(reqs []quote.Request) (primary, secondary []quote.Request) {
	for _, req := range reqs {
		if r.SecondaryOnly(req.Symbol) {
			secondary = append(secondary, req)
			continue
		}
		primary = append(primary, req)
	}
	return primary, secondary
}

// Len returns the size of the secondary-only set.
func (r *Router) Len() int { return len(r.secondaryOnly) }
