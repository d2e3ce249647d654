package batchquote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"quoteaggregator/internal/httpx"
)

// Number is a wire number that may arrive as a JSON number or a numeric
// string. It is kept raw until Parse so one malformed entry cannot fail the
// whole response.
type Number []byte

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = append((*n)[:0], b...)
	return nil
}

// Parse returns an invalid NullDecimal for a missing or null value and an
// error for anything that is not a number.
func (n Number) Parse() (decimal.NullDecimal, error) {
	s := strings.TrimSpace(string(n))
	if s == "" || s == "null" {
		return decimal.NullDecimal{}, nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("parse number %s: %w", string(n), err)
	}
	return decimal.NewNullDecimal(d), nil
}

// Quote is one entry of a batch response.
type Quote struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Price         Number `json:"price"`
	PercentChange Number `json:"percent_change"`
	// Error is set by the API when this one symbol could not be priced.
	Error string `json:"error"`
}

type quotesResponse struct {
	Status  string  `json:"status"`
	Code    int     `json:"code"`
	Message string  `json:"message"`
	Data    []Quote `json:"data"`
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("batchquote: unexpected status code %d: %s", e.Code, e.Body)
}

// ProviderError is returned when the API answers 2xx but reports a failure.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("batchquote: provider error code=%d msg=%q", e.Code, e.Message)
}

// QuoteURL returns the request URL pricing symbols in one call.
func (c *Client) QuoteURL(symbols []string) string {
	query := maps.Clone(c.query)
	query.Set("symbols", strings.Join(symbols, ","))
	return fmt.Sprintf("%s/quote?%s", c.baseURL, query.Encode())
}

// GetQuotes prices symbols with a single request. Entries come back in
// response order and are not filtered.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) ([]Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.QuoteURL(symbols), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	if !httpx.OK(res.StatusCode) {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 2<<10))
		return nil, &StatusError{Code: res.StatusCode, Body: string(b)}
	}

	var body quotesResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding quotes response: %w", err)
	}
	if strings.EqualFold(body.Status, "error") {
		return nil, &ProviderError{Code: body.Code, Message: body.Message}
	}
	return body.Data, nil
}
