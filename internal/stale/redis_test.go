package stale_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/require"

	"quoteaggregator/internal/quote"
	"quoteaggregator/internal/stale"
)

func TestRedisSlot_Defaults(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectGet("quotes:last").RedisNil()

	s := stale.NewRedisSlot(rdb, "", -time.Second, nil)
	require.Empty(t, s.Load(t.Context()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisSlot_SaveThenLoad(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	quotes := []quote.MarketQuote{
		quote.New(quote.Request{Symbol: "AAPL", Name: "Apple", Display: "AAPL"}, 189.5, 1.25),
		quote.Placeholder(quote.Request{Symbol: "XYZ"}),
	}
	payload, err := json.Marshal(quotes)
	require.NoError(t, err)

	mock.ExpectSet("snap", payload, time.Hour).SetVal("OK")
	mock.ExpectGet("snap").SetVal(string(payload))

	s := stale.NewRedisSlot(rdb, "snap", time.Hour, nil)

	// Act
	s.Save(t.Context(), quotes)
	got := s.Load(t.Context())

	// Assert: round trip keeps nil prices as nil
	require.Equal(t, quotes, got)
	require.Nil(t, got[1].Price)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisSlot_SaveIgnoresEmpty(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	stale.NewRedisSlot(rdb, "snap", 0, nil).Save(t.Context(), nil)

	// Assert: no command was issued
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisSlot_LoadErrorsReadAsEmpty(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectGet("snap").SetErr(errors.New("connection refused"))

	require.Empty(t, stale.NewRedisSlot(rdb, "snap", 0, nil).Load(t.Context()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisSlot_CorruptedSnapshotIsDropped(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	mock.ExpectGet("snap").SetVal("{not json")
	mock.ExpectDel("snap").SetVal(1)

	require.Empty(t, stale.NewRedisSlot(rdb, "snap", 0, nil).Load(t.Context()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisSlot_WriteFailureIsBestEffort(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	quotes := []quote.MarketQuote{quote.New(quote.Request{Symbol: "AAPL"}, 1, 0)}
	payload, err := json.Marshal(quotes)
	require.NoError(t, err)
	mock.ExpectSet("snap", payload, 0).SetErr(errors.New("READONLY"))

	require.NotPanics(t, func() {
		stale.NewRedisSlot(rdb, "snap", 0, nil).Save(t.Context(), quotes)
	})
	require.NoError(t, mock.ExpectationsWereMet())
}
