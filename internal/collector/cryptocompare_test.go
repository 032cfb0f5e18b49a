package collector

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"CoinCompare/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const histodaySample = `{
	"Response": "Success",
	"Data": {
		"Aggregated": false,
		"TimeFrom": 1700000000,
		"TimeTo": 1700000000,
		"Data": [{"time": 1700000000, "close": 41950.25, "open": 41000, "high": 42500, "low": 40900}]
	}
}`

func TestCryptoCompareFetcher_NormalisesClose(t *testing.T) {
	srv, seen := setupTest(t, http.StatusOK, histodaySample)
	f := NewCryptoCompareFetcher(srv.URL, time.Second, "")

	series, err := f.FetchSeries(context.Background(), "BTC", 30)
	require.NoError(t, err)
	require.Equal(t, 1, series.Len())

	p := series.Points[0]
	assert.True(t, p.Timestamp.Equal(time.Unix(1700000000, 0)))
	assert.True(t, p.Price.Equal(decimal.RequireFromString("41950.25")))

	assert.Equal(t, "/histoday", seen.Path)
	assert.Equal(t, "BTC", seen.Query().Get("fsym"))
	assert.Equal(t, "USD", seen.Query().Get("tsym"))
	assert.Equal(t, "30", seen.Query().Get("limit"))
}

func TestCryptoCompareFetcher_FetchCandlesKeepsOHLC(t *testing.T) {
	srv, _ := setupTest(t, http.StatusOK, histodaySample)
	f := NewCryptoCompareFetcher(srv.URL, time.Second, "")

	candles, err := f.FetchCandles(context.Background(), "BTC", 30)
	require.NoError(t, err)
	require.Len(t, candles, 1)

	c := candles[0]
	assert.True(t, c.Open.Equal(decimal.NewFromInt(41000)))
	assert.True(t, c.High.Equal(decimal.NewFromInt(42500)))
	assert.True(t, c.Low.Equal(decimal.NewFromInt(40900)))
	assert.True(t, c.Close.Equal(decimal.RequireFromString("41950.25")))
}

func TestCryptoCompareFetcher_SortsAscending(t *testing.T) {
	body := `{"Data": {"Data": [
		{"time": 1700172800, "close": 3},
		{"time": 1700000000, "close": 1},
		{"time": 1700086400, "close": 2}
	]}}`
	srv, _ := setupTest(t, http.StatusOK, body)
	f := NewCryptoCompareFetcher(srv.URL, time.Second, "")

	series, err := f.FetchSeries(context.Background(), "ETH", 7)
	require.NoError(t, err)
	require.Equal(t, 3, series.Len())
	for i := 1; i < series.Len(); i++ {
		assert.True(t, series.Points[i-1].Timestamp.Before(series.Points[i].Timestamp))
	}
	assert.True(t, series.Points[2].Price.Equal(decimal.NewFromInt(3)))
}

func TestCryptoCompareFetcher_EmptyResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "missing Data", status: http.StatusOK, body: `{}`},
		{name: "missing Data.Data", status: http.StatusOK, body: `{"Data": {}}`},
		{name: "null Data.Data", status: http.StatusOK, body: `{"Data": {"Data": null}}`},
		{name: "v1 style list", status: http.StatusOK, body: `{"Data": []}`},
		{name: "error response", status: http.StatusOK, body: `{"Response": "Error", "Message": "fsym param is invalid", "Data": {}}`},
		{name: "server error with json", status: http.StatusInternalServerError, body: `{"Response": "Error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := setupTest(t, tt.status, tt.body)
			f := NewCryptoCompareFetcher(srv.URL, time.Second, "")

			series, err := f.FetchSeries(context.Background(), "NOPE", 30)
			require.NoError(t, err)
			assert.True(t, series.IsEmpty())
		})
	}
}

func TestCryptoCompareFetcher_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "truncated json", body: `{"Data": {"Data": [`},
		{name: "Data.Data not an array", body: `{"Data": {"Data": 5}}`},
		{name: "record without close", body: `{"Data": {"Data": [{"time": 1700000000, "open": 1}]}}`},
		{name: "record without time", body: `{"Data": {"Data": [{"close": 1}]}}`},
		{name: "non numeric close", body: `{"Data": {"Data": [{"time": 1700000000, "close": true}]}}`},
		{name: "negative close", body: `{"Data": {"Data": [{"time": 1700000000, "close": -3}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := setupTest(t, http.StatusOK, tt.body)
			f := NewCryptoCompareFetcher(srv.URL, time.Second, "")

			_, err := f.FetchSeries(context.Background(), "BTC", 30)

			var fe *FetchError
			require.True(t, errors.As(err, &fe), "got %v", err)
			assert.Equal(t, KindDecode, fe.Kind)
			assert.Equal(t, model.SourceCryptoCompare, fe.Source)
		})
	}
}

func TestMockFetcher(t *testing.T) {
	m := &MockFetcher{Src: model.SourceCoinGecko, Price: decimal.NewFromInt(100)}

	series, err := m.FetchSeries(context.Background(), "bitcoin", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, series.Len())
	assert.Equal(t, []MockCall{{CoinID: "bitcoin", Days: 10}}, m.Calls())

	m.Err = errors.New("boom")
	_, err = m.FetchSeries(context.Background(), "bitcoin", 10)
	assert.Error(t, err)
}

func TestMockFetcher_GeneratedSeriesBounds(t *testing.T) {
	m := &MockFetcher{Src: model.SourceCryptoCompare}

	series, err := m.FetchSeries(context.Background(), "BTC", -1)
	require.NoError(t, err)
	assert.True(t, series.IsEmpty())

	series, err = m.FetchSeries(context.Background(), "BTC", 5000)
	require.NoError(t, err)
	require.Equal(t, 5000, series.Len())
	for i, p := range series.Points {
		require.False(t, p.Price.IsNegative(), "point %d", i)
	}
	assert.True(t, series.Points[0].Timestamp.Before(series.Points[4999].Timestamp))
}
