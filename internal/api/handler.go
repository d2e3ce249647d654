// Package api exposes the aggregator over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"quoteaggregator/internal/aggregate"
	"quoteaggregator/internal/quote"
)

const defaultMaxRequests = 1000

// Quoter is the part of the aggregator the handlers use.
type Quoter interface {
	Aggregate(ctx context.Context, reqs []quote.Request, onBatch aggregate.BatchFunc) []quote.MarketQuote
	FetchOne(ctx context.Context, symbol, name, display string) quote.MarketQuote
	Crypto(ctx context.Context) []quote.CryptoQuote
}

type Handler struct {
	q           Quoter
	timeout     time.Duration
	maxRequests int
}

// NewHandler serves q. timeout bounds each aggregation; 0 leaves it to the
// request context. maxRequests <= 0 uses 1000.
func NewHandler(q Quoter, timeout time.Duration, maxRequests int) *Handler {
	if maxRequests <= 0 {
		maxRequests = defaultMaxRequests
	}
	return &Handler{q: q, timeout: timeout, maxRequests: maxRequests}
}

type quotesResponse struct {
	Quotes []quote.MarketQuote `json:"quotes"`
}

type cryptoResponse struct {
	Quotes []quote.CryptoQuote `json:"quotes"`
}

type postBody struct {
	Requests []quote.Request `json:"requests"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// batchLine is one NDJSON line of a streamed aggregation.
type batchLine struct {
	Final  bool                `json:"final"`
	Quotes []quote.MarketQuote `json:"quotes"`
}

// Health handles /healthz.
func Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// GetQuotes handles GET /api/quotes?symbols=A,B. Each symbol doubles as its
// own name and display.
func (h *Handler) GetQuotes(c *gin.Context) {
	syms := splitCSV(c.Query("symbols"))
	reqs := make([]quote.Request, 0, len(syms))
	for _, s := range syms {
		reqs = append(reqs, quote.Request{Symbol: s, Name: s, Display: s})
	}
	h.writeQuotes(c, reqs)
}

// PostQuotes handles POST /api/quotes with {"requests":[...]}.
func (h *Handler) PostQuotes(c *gin.Context) {
	var b postBody
	if err := c.ShouldBindJSON(&b); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	reqs := make([]quote.Request, 0, len(b.Requests))
	for _, r := range b.Requests {
		r.Symbol = strings.TrimSpace(r.Symbol)
		if r.Symbol == "" {
			continue
		}
		reqs = append(reqs, r)
	}
	h.writeQuotes(c, reqs)
}

func (h *Handler) writeQuotes(c *gin.Context, reqs []quote.Request) {
	if len(reqs) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "symbols cannot be empty"})
		return
	}
	if len(reqs) > h.maxRequests {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "too many symbols"})
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	if !isStream(c) {
		got := h.q.Aggregate(ctx, reqs, nil)
		c.JSON(http.StatusOK, quotesResponse{Quotes: nonNil(got)})
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)
	enc := json.NewEncoder(c.Writer)
	enc.SetEscapeHTML(false)
	write := func(line batchLine) {
		if err := enc.Encode(line); err != nil {
			return
		}
		c.Writer.Flush()
	}
	got := h.q.Aggregate(ctx, reqs, func(partial []quote.MarketQuote) {
		write(batchLine{Quotes: nonNil(partial)})
	})
	write(batchLine{Final: true, Quotes: nonNil(got)})
}

// GetQuote handles GET /api/quotes/:symbol. It always answers 200; an
// unresolved symbol has null price and change.
func (h *Handler) GetQuote(c *gin.Context) {
	symbol := strings.TrimSpace(c.Param("symbol"))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "missing symbol"})
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()

	name := c.DefaultQuery("name", symbol)
	display := c.DefaultQuery("display", symbol)
	c.JSON(http.StatusOK, h.q.FetchOne(ctx, symbol, name, display))
}

// GetCrypto handles GET /api/crypto.
func (h *Handler) GetCrypto(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()
	c.JSON(http.StatusOK, cryptoResponse{Quotes: h.q.Crypto(ctx)})
}

func (h *Handler) context(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

func isStream(c *gin.Context) bool {
	switch strings.ToLower(c.Query("stream")) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func nonNil(qs []quote.MarketQuote) []quote.MarketQuote {
	if qs == nil {
		return []quote.MarketQuote{}
	}
	return qs
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
