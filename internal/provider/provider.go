// Package provider defines the contracts quote sources implement.
//
// Every source reports failure through its error return; deciding what a
// failure means for the overall result is the aggregator's job.
package provider

import (
	"context"
	"errors"

	"quoteaggregator/internal/quote"
)

// ErrNoResult means the upstream answered but had nothing for the symbol.
// It is an omission, not a provider failure.
var ErrNoResult = errors.New("no result")

// BatchSource resolves many symbols with one upstream call.
// Returned quotes follow the upstream response order; symbols the
// upstream could not price are simply absent.
type BatchSource interface {
	Name() string
	FetchBatch(ctx context.Context, reqs []quote.Request) ([]quote.MarketQuote, error)
}

// SingleSource resolves one symbol per upstream call.
type SingleSource interface {
	Name() string
	FetchOne(ctx context.Context, req quote.Request) (quote.MarketQuote, error)
}

// CryptoSource returns prices keyed by provider coin id.
type CryptoSource interface {
	Name() string
	Prices(ctx context.Context, ids []string) (map[string]quote.CoinPrice, error)
}
