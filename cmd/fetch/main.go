package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"quoteaggregator/internal/aggregate"
	"quoteaggregator/internal/app"
	"quoteaggregator/internal/config"
	"quoteaggregator/internal/httpx"
	"quoteaggregator/internal/quote"
)

func main() {
	var symbolsCSV string
	var withCrypto bool
	var timeout int
	var configPath string

	flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", "AAPL,MSFT,^GSPC,GC=F"), "comma-separated symbols")
	flag.BoolVar(&withCrypto, "crypto", false, "also print the crypto table")
	flag.IntVar(&timeout, "timeout", 15, "overall timeout seconds")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg.Log, os.Stderr)

	syms := config.SplitCSV(symbolsCSV)
	if len(syms) == 0 && !withCrypto {
		logger.Error("no symbols provided")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	store, closeStore := app.NewStore(ctx, cfg.Redis, logger)
	defer closeStore()
	agg := app.NewAggregator(cfg, httpx.New(time.Duration(cfg.Server.RequestTimeoutSec)*time.Second), store, logger)

	if len(syms) > 0 {
		reqs := make([]quote.Request, 0, len(syms))
		for _, s := range syms {
			reqs = append(reqs, quote.Request{Symbol: s, Name: s, Display: s})
		}
		printQuotes(ctx, agg, reqs, logger)
	}
	if withCrypto {
		printJSON(struct {
			Crypto []quote.CryptoQuote `json:"crypto"`
		}{agg.Crypto(ctx)})
	}
}

func printQuotes(ctx context.Context, agg *aggregate.Aggregator, reqs []quote.Request, logger *slog.Logger) {
	n := 0
	got := agg.Aggregate(ctx, reqs, func(partial []quote.MarketQuote) {
		n++
		logger.Info("batch", "n", n, "quotes", len(partial))
		printJSON(struct {
			Batch  int                 `json:"batch"`
			Quotes []quote.MarketQuote `json:"quotes"`
		}{n, partial})
	})
	if len(got) == 0 {
		logger.Warn("no quotes received")
	}
	printJSON(struct {
		Final  bool                `json:"final"`
		Quotes []quote.MarketQuote `json:"quotes"`
	}{true, got})
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
