package batchquote_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"quoteaggregator/internal/httpx/httpxmock"
	"quoteaggregator/internal/provider/batchquote"
	"quoteaggregator/internal/quote"
)

func newSource(t *testing.T, httpClient *httpxmock.MockHTTPClient) *batchquote.Source {
	t.Helper()
	client, err := batchquote.NewClient("k", batchquote.WithBaseURL(testBaseURL), batchquote.WithHTTPClient(httpClient))
	require.NoError(t, err)
	return batchquote.NewSource("", client)
}

func TestFetchBatch_FiltersAndEnriches(t *testing.T) {
	t.Parallel()

	// Arrange: the upstream answers out of request order with some junk entries
	ctrl := gomock.NewController(t)
	httpClient := httpxmock.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "AAPL,MSFT,BAD,ZERO", req.URL.Query().Get("symbols"))
			return jsonResponse(t, http.StatusOK, map[string]any{
				"status": "ok",
				"data": []map[string]any{
					{"symbol": "MSFT", "price": 410.5, "percent_change": -0.25},
					{"symbol": "BAD", "error": "symbol not found"},
					{"symbol": "ZERO", "price": 0, "percent_change": 0},
					{"symbol": "AAPL", "price": 189.5, "percent_change": 1.25},
					{"symbol": "EXTRA", "price": 12, "percent_change": 3},
					{"symbol": "NEG", "price": -1, "percent_change": 3},
				},
			}), nil
		}).
		Times(1)

	src := newSource(t, httpClient)
	reqs := []quote.Request{
		{Symbol: "AAPL", Name: "Apple Inc.", Display: "Apple"},
		{Symbol: "MSFT", Name: "Microsoft Corp.", Display: "Microsoft"},
		{Symbol: "BAD", Name: "Bad", Display: "Bad"},
		{Symbol: "ZERO", Name: "Zero", Display: "Zero"},
	}

	// Act
	got, err := src.FetchBatch(t.Context(), reqs)

	// Assert: response order, errors and non-positive prices dropped, unknown symbol tolerated
	require.NoError(t, err)
	require.Len(t, got, 3)

	require.Equal(t, "MSFT", got[0].Symbol)
	require.Equal(t, "Microsoft Corp.", got[0].Name)
	require.Equal(t, "Microsoft", got[0].Display)
	require.InDelta(t, 410.5, *got[0].Price, 1e-9)
	require.InDelta(t, -0.25, *got[0].Change, 1e-9)

	require.Equal(t, "AAPL", got[1].Symbol)
	require.Equal(t, "Apple", got[1].Display)
	require.InDelta(t, 1.25, *got[1].Change, 1e-9)

	require.Equal(t, quote.Request{Symbol: "EXTRA", Name: "EXTRA", Display: "EXTRA"},
		quote.Request{Symbol: got[2].Symbol, Name: got[2].Name, Display: got[2].Display})
}

func TestFetchBatch_MalformedEntryDoesNotFailBatch(t *testing.T) {
	t.Parallel()

	// Arrange: one good entry next to entries whose numbers do not parse
	ctrl := gomock.NewController(t)
	httpClient := httpxmock.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(jsonResponse(t, http.StatusOK, map[string]any{
			"status": "ok",
			"data": []map[string]any{
				{"symbol": "AAPL", "price": 189.5, "percent_change": nil},
				{"symbol": "BAD", "price": "N/A", "percent_change": ""},
				{"symbol": "ODD", "price": "10", "percent_change": "n/a"},
				{"symbol": "BLANK", "price": ""},
			},
		}), nil).
		Times(1)

	src := newSource(t, httpClient)

	// Act
	got, err := src.FetchBatch(t.Context(), []quote.Request{{Symbol: "AAPL"}, {Symbol: "BAD"}, {Symbol: "ODD"}, {Symbol: "BLANK"}})

	// Assert: only the malformed entries are lost; a null change reads as zero
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "AAPL", got[0].Symbol)
	require.InDelta(t, 189.5, *got[0].Price, 1e-9)
	require.Zero(t, *got[0].Change)
}

func TestFetchBatch_DeduplicatesSymbols(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := httpxmock.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "AAPL", req.URL.Query().Get("symbols"))
			return jsonResponse(t, http.StatusOK, map[string]any{"status": "ok", "data": []any{}}), nil
		}).
		Times(1)

	src := newSource(t, httpClient)
	_, err := src.FetchBatch(t.Context(), []quote.Request{{Symbol: "AAPL"}, {Symbol: "AAPL"}})
	require.NoError(t, err)
}

func TestFetchBatch_EmptyRequestSkipsUpstream(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := httpxmock.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).Times(0)

	got, err := newSource(t, httpClient).FetchBatch(t.Context(), nil)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestFetchBatch_PropagatesFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := httpxmock.NewMockHTTPClient(ctrl)
	boom := errors.New("connection refused")
	httpClient.EXPECT().Do(gomock.Any()).Return(nil, boom).Times(1)

	got, err := newSource(t, httpClient).FetchBatch(t.Context(), []quote.Request{{Symbol: "AAPL"}})
	require.ErrorIs(t, err, boom)
	require.Nil(t, got)
}

func TestSourceName(t *testing.T) {
	t.Parallel()

	client, err := batchquote.NewClient("", batchquote.WithBaseURL(testBaseURL))
	require.NoError(t, err)

	require.Equal(t, "primary", batchquote.NewSource("", client).Name())
	require.Equal(t, "quotes-api", batchquote.NewSource("quotes-api", client).Name())
}
