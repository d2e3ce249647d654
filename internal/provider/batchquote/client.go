// Package batchquote talks to the primary quote API, which prices a whole
// list of symbols in one request.
package batchquote

import (
	"errors"
	"net/http"
	"net/url"

	"quoteaggregator/internal/httpx"
)

// Client is a client for the batch quote API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient performs the requests.
	httpClient httpx.HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// query contains additional query parameters to be sent with each request.
	query url.Values
}

// ClientOption is a configuration option for Client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient httpx.HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewClient creates a new batch quote API client. WithBaseURL is required;
// an empty key is allowed for endpoints that do not authenticate.
func NewClient(key string, options ...ClientOption) (*Client, error) {
	var c = &Client{
		httpClient: http.DefaultClient,
		header:     http.Header{},
		query:      url.Values{},
	}
	if key != "" {
		c.query.Add("apikey", key)
	}
	for _, option := range options {
		option(c)
	}
	if c.baseURL == "" {
		return nil, errors.New("batchquote: empty base URL")
	}
	if c.httpClient == nil {
		return nil, errors.New("batchquote: nil http client")
	}
	return c, nil
}
