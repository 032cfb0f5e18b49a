package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"CoinCompare/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTest(t *testing.T, status int, body string) (*httptest.Server, *url.URL) {
	t.Helper()
	seen := &url.URL{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = *r.URL
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestCoinGeckoFetcher_NormalisesPrices(t *testing.T) {
	srv, seen := setupTest(t, http.StatusOK, `{"prices": [[1700000000000, 42000.5]]}`)
	f := NewCoinGeckoFetcher(srv.URL, time.Second, "")

	series, err := f.FetchSeries(context.Background(), "bitcoin", 30)
	require.NoError(t, err)
	require.Equal(t, 1, series.Len())

	p := series.Points[0]
	assert.True(t, p.Timestamp.Equal(time.Unix(1700000000, 0)))
	assert.True(t, p.Price.Equal(decimal.RequireFromString("42000.5")))
	assert.Empty(t, p.Source)

	assert.Equal(t, "/coins/bitcoin/market_chart", seen.Path)
	assert.Equal(t, "usd", seen.Query().Get("vs_currency"))
	assert.Equal(t, "30", seen.Query().Get("days"))
}

func TestCoinGeckoFetcher_KeepsMillisecondsAndSorts(t *testing.T) {
	srv, _ := setupTest(t, http.StatusOK, `{"prices": [[1700086400000, 2], [1700000000123, 1]], "market_caps": []}`)
	f := NewCoinGeckoFetcher(srv.URL, time.Second, "")

	series, err := f.FetchSeries(context.Background(), "bitcoin", 7)
	require.NoError(t, err)
	require.Equal(t, 2, series.Len())

	assert.True(t, series.Points[0].Timestamp.Equal(time.UnixMilli(1700000000123)))
	assert.Equal(t, 123_000_000, series.Points[0].Timestamp.Nanosecond())
	assert.True(t, series.Points[1].Price.Equal(decimal.NewFromInt(2)))
}

func TestCoinGeckoFetcher_EmptyResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "missing prices", status: http.StatusOK, body: `{}`},
		{name: "null prices", status: http.StatusOK, body: `{"prices": null}`},
		{name: "empty prices", status: http.StatusOK, body: `{"prices": []}`},
		{name: "coin not found", status: http.StatusNotFound, body: `{"error": "coin not found"}`},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"status": {"error_code": 429}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := setupTest(t, tt.status, tt.body)
			f := NewCoinGeckoFetcher(srv.URL, time.Second, "")

			series, err := f.FetchSeries(context.Background(), "nope", 30)
			require.NoError(t, err)
			assert.True(t, series.IsEmpty())
		})
	}
}

func TestCoinGeckoFetcher_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "html body", body: `<html>bad gateway</html>`},
		{name: "top level array", body: `[1, 2, 3]`},
		{name: "prices not an array", body: `{"prices": "soon"}`},
		{name: "short pair", body: `{"prices": [[1700000000000]]}`},
		{name: "string price", body: `{"prices": [[1700000000000, "42000.5"]]}`},
		{name: "negative price", body: `{"prices": [[1700000000000, -1]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := setupTest(t, http.StatusOK, tt.body)
			f := NewCoinGeckoFetcher(srv.URL, time.Second, "")

			_, err := f.FetchSeries(context.Background(), "bitcoin", 30)
			require.Error(t, err)

			var fe *FetchError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, KindDecode, fe.Kind)
			assert.Equal(t, model.SourceCoinGecko, fe.Source)
		})
	}
}

func TestCoinGeckoFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	f := NewCoinGeckoFetcher(srv.URL, 50*time.Millisecond, "")
	_, err := f.FetchSeries(context.Background(), "bitcoin", 30)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindTimeout, fe.Kind)
}

func TestCoinGeckoFetcher_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	f := NewCoinGeckoFetcher(addr, time.Second, "")
	_, err := f.FetchSeries(context.Background(), "bitcoin", 30)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindNetwork, fe.Kind)
	assert.True(t, IsFetchError(err))
}
