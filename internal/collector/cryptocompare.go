package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"CoinCompare/internal/model"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const cryptoCompareBaseURL = "https://min-api.cryptocompare.com/data/v2"

// CryptoCompareFetcher implements Fetcher using the CryptoCompare histoday API.
// Coins are addressed by ticker, e.g. "BTC".
type CryptoCompareFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewCryptoCompareFetcher creates a fetcher with optional base URL override and proxy support.
func NewCryptoCompareFetcher(baseURL string, timeout time.Duration, proxyURL string) *CryptoCompareFetcher {
	if baseURL == "" {
		baseURL = cryptoCompareBaseURL
	}
	return &CryptoCompareFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  newHTTPClient(timeout, proxyURL),
	}
}

func (f *CryptoCompareFetcher) Name() string { return "cryptocompare" }

func (f *CryptoCompareFetcher) Source() model.Source { return model.SourceCryptoCompare }

// histodayRecord is one element of Data.Data. Pointers distinguish missing fields.
type histodayRecord struct {
	Time       *int64           `json:"time"`
	Open       decimal.Decimal  `json:"open"`
	High       decimal.Decimal  `json:"high"`
	Low        decimal.Decimal  `json:"low"`
	Close      *decimal.Decimal `json:"close"`
	VolumeFrom decimal.Decimal  `json:"volumefrom"`
	VolumeTo   decimal.Decimal  `json:"volumeto"`
}

// FetchSeries returns the daily closes for the ticker.
func (f *CryptoCompareFetcher) FetchSeries(ctx context.Context, coinID string, days int) (model.PriceSeries, error) {
	candles, err := f.FetchCandles(ctx, coinID, days)
	if err != nil {
		return model.PriceSeries{}, err
	}
	points := make([]model.PricePoint, len(candles))
	for i, c := range candles {
		points[i] = model.PricePoint{Timestamp: c.Time, Price: c.Close}
	}
	return model.PriceSeries{Points: points}, nil
}

// FetchCandles returns the raw daily OHLCV records, oldest first. An empty slice
// means the response carried no Data.Data.
func (f *CryptoCompareFetcher) FetchCandles(ctx context.Context, ticker string, days int) ([]model.OHLCV, error) {
	params := url.Values{}
	params.Set("fsym", ticker)
	params.Set("tsym", "USD")
	params.Set("limit", strconv.Itoa(days))
	endpoint := fmt.Sprintf("%s/histoday?%s", f.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, decodeError(f.Source(), fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, transportError(f.Source(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(f.Source(), fmt.Errorf("read body: %w", err))
	}
	return parseHistoday(body)
}

// parseHistoday normalises {"Data": {"Data": [{time, open, high, low, close, ...}]}}.
func parseHistoday(body []byte) ([]model.OHLCV, error) {
	src := model.SourceCryptoCompare
	if !gjson.ValidBytes(body) {
		return nil, decodeError(src, fmt.Errorf("%w: invalid JSON (%d bytes)", ErrMalformedResponse, len(body)))
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, decodeError(src, fmt.Errorf("%w: top level is not an object", ErrMalformedResponse))
	}

	data := root.Get("Data.Data")
	if !data.Exists() || data.Type == gjson.Null {
		return []model.OHLCV{}, nil
	}
	if !data.IsArray() {
		return nil, decodeError(src, fmt.Errorf("%w: Data.Data is not an array", ErrMalformedResponse))
	}

	var records []histodayRecord
	if err := json.Unmarshal([]byte(data.Raw), &records); err != nil {
		return nil, decodeError(src, fmt.Errorf("decode Data.Data: %w", err))
	}

	candles := make([]model.OHLCV, 0, len(records))
	for i, r := range records {
		if r.Time == nil || r.Close == nil {
			return nil, decodeError(src, fmt.Errorf("%w: Data.Data[%d] lacks time or close", ErrMalformedResponse, i))
		}
		if r.Close.IsNegative() {
			return nil, decodeError(src, fmt.Errorf("Data.Data[%d]: %w", i, ErrNegativePrice))
		}
		candles = append(candles, model.OHLCV{
			Time:   time.Unix(*r.Time, 0).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  *r.Close,
			Volume: r.VolumeFrom,
		})
	}

	sort.SliceStable(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })
	return candles, nil
}
