// Package yahoo prices one symbol per request from the Yahoo Finance chart
// endpoint. It serves the indices and futures the primary provider does not.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"quoteaggregator/internal/httpx"
	"quoteaggregator/internal/provider"
	"quoteaggregator/internal/quote"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// ErrNoResult means the response carried no result metadata for the symbol.
var ErrNoResult = fmt.Errorf("yahoo: %w", provider.ErrNoResult)

type Config struct {
	Name    string
	BaseURL string
	// Headers are sent with every request.
	Headers map[string]string
}

type Source struct {
	cfg    Config
	client httpx.HTTPClient
}

var _ provider.SingleSource = (*Source)(nil)

func New(cfg Config, hc httpx.HTTPClient) *Source {
	if cfg.Name == "" {
		cfg.Name = "yahoo"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Source{cfg: cfg, client: hc}
}

func (s *Source) Name() string { return s.cfg.Name }

// ChartURL returns the request URL for one symbol.
func (s *Source) ChartURL(symbol string) string {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("range", "1d")
	return fmt.Sprintf("%s/v8/finance/chart/%s?%s", s.cfg.BaseURL, url.PathEscape(symbol), q.Encode())
}

// FetchOne prices req. Change is the percent move against the previous close,
// which falls back from the explicit previousClose to chartPreviousClose and
// finally to the price itself, giving a change of exactly zero.
func (s *Source) FetchOne(ctx context.Context, req quote.Request) (quote.MarketQuote, error) {
	meta, err := s.fetchMeta(ctx, req.Symbol)
	if err != nil {
		return quote.MarketQuote{}, err
	}
	if !meta.RegularMarketPrice.Valid {
		return quote.MarketQuote{}, ErrNoResult
	}

	price := meta.RegularMarketPrice.Decimal
	prev := price
	switch {
	case usable(meta.PreviousClose):
		prev = meta.PreviousClose.Decimal
	case usable(meta.ChartPreviousClose):
		prev = meta.ChartPreviousClose.Decimal
	}

	change := decimal.Zero
	if !prev.IsZero() {
		change = price.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100))
	}
	return quote.New(req, price.InexactFloat64(), change.InexactFloat64()), nil
}

func usable(d decimal.NullDecimal) bool { return d.Valid && !d.Decimal.IsZero() }

func (s *Source) fetchMeta(ctx context.Context, symbol string) (*chartMeta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.ChartURL(symbol), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range s.cfg.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()
	if !httpx.OK(res.StatusCode) {
		return nil, fmt.Errorf("GET chart %s -> %d", symbol, res.StatusCode)
	}

	var body chartResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if body.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo: %s: %s", body.Chart.Error.Code, body.Chart.Error.Description)
	}
	if len(body.Chart.Result) == 0 || body.Chart.Result[0].Meta == nil {
		return nil, ErrNoResult
	}
	return body.Chart.Result[0].Meta, nil
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta *chartMeta `json:"meta"`
}

type chartMeta struct {
	Symbol             string              `json:"symbol"`
	Currency           string              `json:"currency"`
	RegularMarketPrice decimal.NullDecimal `json:"regularMarketPrice"`
	PreviousClose      decimal.NullDecimal `json:"previousClose"`
	ChartPreviousClose decimal.NullDecimal `json:"chartPreviousClose"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
