// Package app assembles the aggregator from configuration. Both binaries
// share it so the provider chain is built the same way everywhere.
package app

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"quoteaggregator/internal/aggregate"
	"quoteaggregator/internal/config"
	"quoteaggregator/internal/httpx"
	"quoteaggregator/internal/provider"
	"quoteaggregator/internal/provider/batchquote"
	"quoteaggregator/internal/provider/cache"
	"quoteaggregator/internal/provider/coingecko"
	"quoteaggregator/internal/provider/ratelimit"
	"quoteaggregator/internal/provider/yahoo"
	"quoteaggregator/internal/router"
	"quoteaggregator/internal/stale"
)

// NewLogger builds a text or JSON slog logger at the configured level.
func NewLogger(cfg config.Log, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// NewStore returns a Redis backed snapshot store when an address is
// configured and reachable, and an in-process slot otherwise. The returned
// func releases the Redis connection.
func NewStore(ctx context.Context, cfg config.Redis, logger *slog.Logger) (stale.Store, func()) {
	if cfg.Addr == "" {
		return &stale.Slot{}, func() {}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, keeping stale snapshot in process", "address", cfg.Addr, "error", err)
		_ = rdb.Close()
		return &stale.Slot{}, func() {}
	}
	logger.Info("redis connection successful", "address", cfg.Addr)
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	return stale.NewRedisSlot(rdb, cfg.Key, ttl, logger), func() {
		if err := rdb.Close(); err != nil {
			logger.Error("failed to close redis client", "error", err)
		}
	}
}

// NewAggregator wires every enabled provider behind its rate limiter and
// cache. A provider that cannot be built is skipped with a warning; the
// aggregator then degrades the way it does for a failing provider.
func NewAggregator(cfg config.Config, hc *httpx.Client, store stale.Store, logger *slog.Logger) *aggregate.Aggregator {
	return aggregate.New(aggregate.Config{
		Router:         router.New(cfg.Routing.SecondaryOnly...),
		Primary:        primary(cfg.Primary, hc, logger),
		Secondary:      secondary(cfg.Secondary, hc),
		Crypto:         crypto(cfg.Crypto, hc),
		Coins:          cfg.Crypto.Coins,
		Stale:          store,
		Logger:         logger,
		MaxConcurrency: cfg.Secondary.MaxConcurrency,
	})
}

func limiter(l config.Limits) ratelimit.Limiter {
	return ratelimit.FromConfig(l.MaxRequestsPerMinute, l.Burst, time.Duration(l.MinRequestIntervalSec)*time.Second)
}

func primary(cfg config.Primary, hc *httpx.Client, logger *slog.Logger) provider.BatchSource {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BaseURL == "" {
		logger.Warn("primary.enabled=true but PRIMARY_BASE_URL not set; skipping")
		return nil
	}
	if cfg.APIKey == "" {
		logger.Warn("primary provider has no PRIMARY_API_KEY")
	}
	client, err := batchquote.NewClient(cfg.APIKey,
		batchquote.WithBaseURL(cfg.BaseURL),
		batchquote.WithHTTPClient(hc),
	)
	if err != nil {
		logger.Error("primary client error", "error", err)
		return nil
	}
	var p provider.BatchSource = batchquote.NewSource(cfg.Name, client)
	if l := limiter(cfg.Limits); l != nil {
		p = &ratelimit.Batch{P: p, L: l}
	}
	if cfg.CacheTTLSeconds > 0 {
		p = &cache.Batch{P: p, TTL: time.Duration(cfg.CacheTTLSeconds) * time.Second, MaxItems: cfg.CacheMaxItems}
	}
	return p
}

func secondary(cfg config.Secondary, hc *httpx.Client) provider.SingleSource {
	if !cfg.Enabled {
		return nil
	}
	var p provider.SingleSource = yahoo.New(yahoo.Config{Name: cfg.Name, BaseURL: cfg.BaseURL}, hc)
	if l := limiter(cfg.Limits); l != nil {
		p = &ratelimit.Single{P: p, L: l}
	}
	return p
}

func crypto(cfg config.Crypto, hc *httpx.Client) provider.CryptoSource {
	if !cfg.Enabled {
		return nil
	}
	var p provider.CryptoSource = coingecko.New(coingecko.Config{
		BaseURL:  cfg.BaseURL,
		APIKey:   cfg.APIKey,
		Currency: cfg.Currency,
		Timeout:  hc.HTTP.Timeout,
	}, hc)
	if l := limiter(cfg.Limits); l != nil {
		p = &ratelimit.Crypto{P: p, L: l}
	}
	return p
}
