// Package quote holds the canonical records shared by every provider and the aggregator.
package quote

// Request is one unit of work. Symbol is what providers see; Name and Display
// are presentation metadata and are carried through untouched.
type Request struct {
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	Display string `json:"display"`
}

// MarketQuote is the normalized equity/index/commodity quote.
// Price and Change are nil only for the placeholder produced by a
// single-symbol lookup that no provider could resolve.
type MarketQuote struct {
	Symbol  string   `json:"symbol"`
	Name    string   `json:"name"`
	Display string   `json:"display"`
	Price   *float64 `json:"price"`
	Change  *float64 `json:"change"`
}

// Resolved reports whether q carries a price.
func (q MarketQuote) Resolved() bool { return q.Price != nil }

// New builds a resolved quote for r.
func New(r Request, price, change float64) MarketQuote {
	return MarketQuote{
		Symbol:  r.Symbol,
		Name:    r.Name,
		Display: r.Display,
		Price:   &price,
		Change:  &change,
	}
}

// Placeholder builds an unresolved quote for r.
func Placeholder(r Request) MarketQuote {
	return MarketQuote{Symbol: r.Symbol, Name: r.Name, Display: r.Display}
}

// CryptoQuote is the crypto pipeline's record. Missing data is zero, not nil.
type CryptoQuote struct {
	Name   string  `json:"name"`
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Change float64 `json:"change"`
}

// Coin is one row of the static crypto table: provider id to display info.
type Coin struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// CoinPrice is what the crypto provider reports for one id.
type CoinPrice struct {
	Price     float64
	Change24h float64
}
