package batchquote

import (
	"context"

	"quoteaggregator/internal/provider"
	"quoteaggregator/internal/quote"
)

// Source adapts Client to provider.BatchSource.
type Source struct {
	name   string
	client *Client
}

var _ provider.BatchSource = (*Source)(nil)

func NewSource(name string, client *Client) *Source {
	if name == "" {
		name = "primary"
	}
	return &Source{name: name, client: client}
}

func (s *Source) Name() string { return s.name }

// FetchBatch sends only the symbols upstream and joins the answers back to
// reqs for their metadata. Entries carrying an error, a non-positive price or
// a number that does not parse are dropped; the rest of the batch survives.
func (s *Source) FetchBatch(ctx context.Context, reqs []quote.Request) ([]quote.MarketQuote, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	bySymbol := make(map[string]quote.Request, len(reqs))
	symbols := make([]string, 0, len(reqs))
	for _, r := range reqs {
		if _, dup := bySymbol[r.Symbol]; dup {
			continue
		}
		bySymbol[r.Symbol] = r
		symbols = append(symbols, r.Symbol)
	}

	raw, err := s.client.GetQuotes(ctx, symbols)
	if err != nil {
		return nil, err
	}

	out := make([]quote.MarketQuote, 0, len(raw))
	for _, q := range raw {
		if q.Error != "" {
			continue
		}
		price, err := q.Price.Parse()
		if err != nil || !price.Valid || !price.Decimal.IsPositive() {
			continue
		}
		pct, err := q.PercentChange.Parse()
		if err != nil {
			continue
		}
		req, ok := bySymbol[q.Symbol]
		if !ok {
			req = quote.Request{Symbol: q.Symbol, Name: q.Symbol, Display: q.Symbol}
		}
		var change float64
		if pct.Valid {
			change = pct.Decimal.InexactFloat64()
		}
		out = append(out, quote.New(req, price.Decimal.InexactFloat64(), change))
	}
	return out, nil
}
