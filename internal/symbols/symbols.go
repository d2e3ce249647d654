// Package symbols holds the static tables the aggregator routes and renders with.
package symbols

import "quoteaggregator/internal/quote"

// DefaultSecondaryOnly lists indices and futures the primary provider's free
// tier does not serve. They are always fetched from the secondary provider.
var DefaultSecondaryOnly = []string{
	"^GSPC", "^DJI", "^IXIC", "^RUT", "^VIX", "^FTSE", "^GDAXI", "^FCHI", "^N225", "^HSI", "^STOXX50E",
	"ES=F", "NQ=F", "YM=F", "RTY=F",
	"GC=F", "SI=F", "HG=F", "PL=F",
	"CL=F", "BZ=F", "NG=F",
	"ZC=F", "ZW=F", "ZS=F",
	"DX-Y.NYB", "^TNX",
}

// DefaultCoins is the crypto table. Output of the crypto pipeline follows this order.
var DefaultCoins = []quote.Coin{
	{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC"},
	{ID: "ethereum", Name: "Ethereum", Symbol: "ETH"},
	{ID: "solana", Name: "Solana", Symbol: "SOL"},
	{ID: "binancecoin", Name: "BNB", Symbol: "BNB"},
	{ID: "ripple", Name: "XRP", Symbol: "XRP"},
	{ID: "cardano", Name: "Cardano", Symbol: "ADA"},
	{ID: "dogecoin", Name: "Dogecoin", Symbol: "DOGE"},
}

// CoinIDs returns the provider ids of coins in table order.
func CoinIDs(coins []quote.Coin) []string {
	ids := make([]string, 0, len(coins))
	for _, c := range coins {
		ids = append(ids, c.ID)
	}
	return ids
}
