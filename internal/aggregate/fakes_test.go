package aggregate_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"quoteaggregator/internal/provider"
	"quoteaggregator/internal/quote"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeBatch struct {
	quotes []quote.MarketQuote
	err    error

	mu    sync.Mutex
	calls [][]quote.Request
}

func (f *fakeBatch) Name() string { return "fake-batch" }

func (f *fakeBatch) FetchBatch(_ context.Context, reqs []quote.Request) ([]quote.MarketQuote, error) {
	f.mu.Lock()
	f.calls = append(f.calls, reqs)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.quotes, nil
}

func (f *fakeBatch) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type price struct{ price, change float64 }

type fakeSingle struct {
	prices map[string]price
	errs   map[string]error
	// before runs at the start of every call.
	before func(symbol string)

	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeSingle) Name() string { return "fake-single" }

func (f *fakeSingle) FetchOne(_ context.Context, req quote.Request) (quote.MarketQuote, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.before != nil {
		f.before(req.Symbol)
	}
	if err, ok := f.errs[req.Symbol]; ok {
		return quote.MarketQuote{}, err
	}
	p, ok := f.prices[req.Symbol]
	if !ok {
		return quote.MarketQuote{}, provider.ErrNoResult
	}
	return quote.New(req, p.price, p.change), nil
}

type fakeCrypto struct {
	prices map[string]quote.CoinPrice
	err    error
	ids    []string
}

func (f *fakeCrypto) Name() string { return "fake-crypto" }

func (f *fakeCrypto) Prices(_ context.Context, ids []string) (map[string]quote.CoinPrice, error) {
	f.ids = ids
	if f.err != nil {
		return nil, f.err
	}
	return f.prices, nil
}

var errUpstream = errors.New("upstream down")

func symbolsOf(qs []quote.MarketQuote) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.Symbol)
	}
	return out
}
