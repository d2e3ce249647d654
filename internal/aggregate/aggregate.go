// Package aggregate merges the primary and secondary providers into one
// quote list and falls back to the last good snapshot when both come up empty.
package aggregate

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"quoteaggregator/internal/provider"
	"quoteaggregator/internal/quote"
	"quoteaggregator/internal/router"
	"quoteaggregator/internal/stale"
)

// errNoSource marks a partition that has no provider configured.
var errNoSource = errors.New("no provider configured")

// BatchFunc observes partial results. It receives the whole accumulated list
// each time, never a shrinking one, and must not retain it past the call if
// it mutates it.
type BatchFunc func(partial []quote.MarketQuote)

type Config struct {
	Router    *router.Router
	Primary   provider.BatchSource
	Secondary provider.SingleSource
	Crypto    provider.CryptoSource
	Coins     []quote.Coin
	// Stale defaults to an in-process slot owned by this Aggregator.
	Stale  stale.Store
	Logger *slog.Logger
	// MaxConcurrency bounds in-flight secondary calls. 0 means no bound.
	MaxConcurrency int
}

type Aggregator struct {
	cfg Config
}

func New(cfg Config) *Aggregator {
	if cfg.Router == nil {
		cfg.Router = router.New()
	}
	if cfg.Stale == nil {
		cfg.Stale = &stale.Slot{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Aggregator{cfg: cfg}
}

// Aggregate prices reqs. Primary-eligible symbols go out as one batch first,
// then every secondary-only symbol is fetched concurrently. onBatch, if set,
// is called after each of those steps that had work to do.
//
// Primary results keep the order the primary source returns them in (a
// cache decorator in front of it puts hits after fresh quotes); secondary
// results are appended in completion order. When nothing resolves, the last non-empty
// result of any earlier call is returned instead, possibly for other symbols.
func (a *Aggregator) Aggregate(ctx context.Context, reqs []quote.Request, onBatch BatchFunc) []quote.MarketQuote {
	primary, secondary := a.cfg.Router.Partition(reqs)
	var acc []quote.MarketQuote

	if len(primary) > 0 {
		acc = append(acc, a.fetchPrimary(ctx, primary)...)
		emit(onBatch, acc)
	}

	if len(secondary) > 0 {
		acc = append(acc, a.fetchSecondary(ctx, secondary)...)
		emit(onBatch, acc)
	}

	if len(acc) > 0 {
		a.cfg.Stale.Save(ctx, acc)
		return acc
	}

	snapshot := a.cfg.Stale.Load(ctx)
	if len(snapshot) > 0 {
		a.cfg.Logger.Warn("serving stale snapshot", "requested", len(reqs), "snapshot", len(snapshot))
	}
	return snapshot
}

func emit(onBatch BatchFunc, acc []quote.MarketQuote) {
	if onBatch == nil {
		return
	}
	onBatch(slices.Clone(acc))
}

// fetchPrimary treats any provider failure as an empty contribution.
func (a *Aggregator) fetchPrimary(ctx context.Context, reqs []quote.Request) []quote.MarketQuote {
	if a.cfg.Primary == nil {
		a.cfg.Logger.Warn("primary fetch skipped", "symbols", len(reqs), "error", errNoSource)
		return nil
	}
	quotes, err := a.cfg.Primary.FetchBatch(ctx, reqs)
	if err != nil {
		a.cfg.Logger.Warn("primary fetch failed", "provider", a.cfg.Primary.Name(), "symbols", len(reqs), "error", err)
		return nil
	}
	a.cfg.Logger.Debug("primary fetch done", "provider", a.cfg.Primary.Name(), "requested", len(reqs), "resolved", len(quotes))
	return quotes
}

// fetchSecondary waits for every call to settle. A failing symbol is omitted
// and never cancels its siblings.
func (a *Aggregator) fetchSecondary(ctx context.Context, reqs []quote.Request) []quote.MarketQuote {
	if a.cfg.Secondary == nil {
		a.cfg.Logger.Warn("secondary fetch skipped", "symbols", len(reqs), "error", errNoSource)
		return nil
	}

	var (
		mu  sync.Mutex
		out = make([]quote.MarketQuote, 0, len(reqs))
		g   errgroup.Group
	)
	if a.cfg.MaxConcurrency > 0 {
		g.SetLimit(a.cfg.MaxConcurrency)
	}
	for _, req := range reqs {
		g.Go(func() error {
			q, err := a.cfg.Secondary.FetchOne(ctx, req)
			if err != nil {
				a.logSecondaryFailure(req.Symbol, err)
				return nil
			}
			mu.Lock()
			out = append(out, q)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (a *Aggregator) logSecondaryFailure(symbol string, err error) {
	if errors.Is(err, provider.ErrNoResult) {
		a.cfg.Logger.Debug("secondary returned no result", "provider", a.cfg.Secondary.Name(), "symbol", symbol)
		return
	}
	a.cfg.Logger.Warn("secondary fetch failed", "provider", a.cfg.Secondary.Name(), "symbol", symbol, "error", err)
}
