package aggregate

import (
	"context"

	"quoteaggregator/internal/quote"
	"quoteaggregator/internal/symbols"
)

// Crypto prices every configured coin with one provider call. Output follows
// the coin table, so its length is always len(Coins); coins the provider did
// not report get zero price and change.
//
// A provider failure yields an empty list. Unlike Aggregate there is no stale
// fallback here.
func (a *Aggregator) Crypto(ctx context.Context) []quote.CryptoQuote {
	if a.cfg.Crypto == nil || len(a.cfg.Coins) == 0 {
		return []quote.CryptoQuote{}
	}

	prices, err := a.cfg.Crypto.Prices(ctx, symbols.CoinIDs(a.cfg.Coins))
	if err != nil {
		a.cfg.Logger.Warn("crypto fetch failed", "provider", a.cfg.Crypto.Name(), "coins", len(a.cfg.Coins), "error", err)
		return []quote.CryptoQuote{}
	}

	out := make([]quote.CryptoQuote, 0, len(a.cfg.Coins))
	for _, c := range a.cfg.Coins {
		p := prices[c.ID]
		out = append(out, quote.CryptoQuote{
			Name:   c.Name,
			Symbol: c.Symbol,
			Price:  p.Price,
			Change: p.Change24h,
		})
	}
	return out
}
