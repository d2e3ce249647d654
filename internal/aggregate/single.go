package aggregate

import (
	"context"

	"quoteaggregator/internal/quote"
)

// FetchOne prices one symbol through whichever provider the router assigns.
// It never fails: an unresolved symbol comes back as a placeholder with nil
// price and change. The stale snapshot is neither read nor written.
func (a *Aggregator) FetchOne(ctx context.Context, symbol, name, display string) quote.MarketQuote {
	req := quote.Request{Symbol: symbol, Name: name, Display: display}

	var got []quote.MarketQuote
	if a.cfg.Router.SecondaryOnly(symbol) {
		got = a.fetchSecondary(ctx, []quote.Request{req})
	} else {
		got = a.fetchPrimary(ctx, []quote.Request{req})
	}

	if len(got) > 0 {
		return got[0]
	}
	return quote.Placeholder(req)
}
