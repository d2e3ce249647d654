// Package coingecko fetches crypto spot prices and 24h change in one call.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"quoteaggregator/internal/httpx"
	"quoteaggregator/internal/provider"
	"quoteaggregator/internal/quote"
)

const (
	defaultBaseURL = "https://api.coingecko.com/api/v3"
	defaultTimeout = 10 * time.Second
)

// Config controls the CoinGecko provider.
type Config struct {
	Name     string
	BaseURL  string
	Currency string // vs currency, e.g. usd
	APIKey   string // optional demo key, sent as x-cg-demo-api-key
	// Timeout bounds a shared upstream call. It does not follow any one
	// caller's context, since other callers may be waiting on it.
	Timeout time.Duration
}

// Source fetches simple prices. Identical concurrent calls share one
// upstream request.
type Source struct {
	cfg    Config
	client httpx.HTTPClient
	sf     singleflight.Group
}

var _ provider.CryptoSource = (*Source)(nil)

func New(cfg Config, hc httpx.HTTPClient) *Source {
	if cfg.Name == "" {
		cfg.Name = "coingecko"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	cfg.Currency = strings.ToLower(cfg.Currency)
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Source{cfg: cfg, client: hc}
}

func (s *Source) Name() string { return s.cfg.Name }

// PriceURL returns the request URL for ids.
func (s *Source) PriceURL(ids []string) string {
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", s.cfg.Currency)
	q.Set("include_24hr_change", "true")
	return fmt.Sprintf("%s/simple/price?%s", s.cfg.BaseURL, q.Encode())
}

// Prices returns whatever the provider reported, keyed by coin id. Ids the
// provider does not know are absent from the map. The map may be shared
// with concurrent callers and must not be modified.
//
// A caller whose ctx ends stops waiting; the shared request keeps running
// for the others.
func (s *Source) Prices(ctx context.Context, ids []string) (map[string]quote.CoinPrice, error) {
	u := s.PriceURL(ids)
	ch := s.sf.DoChan(u, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
		defer cancel()
		return s.fetch(fctx, u)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(map[string]quote.CoinPrice), nil
	}
}

func (s *Source) fetch(ctx context.Context, u string) (map[string]quote.CoinPrice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("x-cg-demo-api-key", s.cfg.APIKey)
	}

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()
	if !httpx.OK(res.StatusCode) {
		return nil, fmt.Errorf("GET simple/price -> %d", res.StatusCode)
	}

	// {"bitcoin":{"usd":67187.34,"usd_24h_change":1.23}}
	var body map[string]map[string]*float64
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	changeKey := s.cfg.Currency + "_24h_change"
	out := make(map[string]quote.CoinPrice, len(body))
	for id, fields := range body {
		var p quote.CoinPrice
		if v := fields[s.cfg.Currency]; v != nil {
			p.Price = *v
		}
		if v := fields[changeKey]; v != nil {
			p.Change24h = *v
		}
		out[id] = p
	}
	return out, nil
}
