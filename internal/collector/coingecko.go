package collector

import (
	"context"
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

const coinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoFetcher implements Fetcher using the CoinGecko market_chart API.
// Coins are addressed by slug, e.g. "bitcoin".
type CoinGeckoFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewCoinGeckoFetcher creates a fetcher with optional base URL override and proxy support.
func NewCoinGeckoFetcher(baseURL string, timeout time.Duration, proxyURL string) *CoinGeckoFetcher {
	if baseURL == "" {
		baseURL = coinGeckoBaseURL
	}
	return &CoinGeckoFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  newHTTPClient(timeout, proxyURL),
	}
}

func (f *CoinGeckoFetcher) Name() string { return "coingecko" }

func (f *CoinGeckoFetcher) Source() model.Source { return model.SourceCoinGecko }

// FetchSeries returns up to days of USD prices for the coin slug.
func (f *CoinGeckoFetcher) FetchSeries(ctx context.Context, coinID string, days int) (model.PriceSeries, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("days", strconv.Itoa(days))
	endpoint := fmt.Sprintf("%s/coins/%s/market_chart?%s", f.BaseURL, url.PathEscape(coinID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.PriceSeries{}, decodeError(f.Source(), fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return model.PriceSeries{}, transportError(f.Source(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.PriceSeries{}, transportError(f.Source(), fmt.Errorf("read body: %w", err))
	}

	// Error statuses usually still carry a JSON body without "prices"; that
	// degrades to an empty series below rather than an error.
	return parseMarketChart(body)
}

// parseMarketChart normalises {"prices": [[ms, price], ...]}.
func parseMarketChart(body []byte) (model.PriceSeries, error) {
	src := model.SourceCoinGecko
	if !gjson.ValidBytes(body) {
		return model.PriceSeries{}, decodeError(src, fmt.Errorf("%w: invalid JSON (%d bytes)", ErrMalformedResponse, len(body)))
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return model.PriceSeries{}, decodeError(src, fmt.Errorf("%w: top level is not an object", ErrMalformedResponse))
	}

	prices := root.Get("prices")
	if !prices.Exists() || prices.Type == gjson.Null {
		return emptySeries(), nil
	}
	if !prices.IsArray() {
		return model.PriceSeries{}, decodeError(src, fmt.Errorf("%w: prices is not an array", ErrMalformedResponse))
	}

	raw := prices.Array()
	points := make([]model.PricePoint, 0, len(raw))
	for i, pair := range raw {
		values := pair.Array()
		if !pair.IsArray() || len(values) < 2 || values[0].Type != gjson.Number || values[1].Type != gjson.Number {
			return model.PriceSeries{}, decodeError(src, fmt.Errorf("%w: prices[%d] is not a [timestamp, price] pair", ErrMalformedResponse, i))
		}
		price, err := decimal.NewFromString(values[1].Raw)
		if err != nil {
			return model.PriceSeries{}, decodeError(src, fmt.Errorf("prices[%d]: %w", i, err))
		}
		if price.IsNegative() {
			return model.PriceSeries{}, decodeError(src, fmt.Errorf("prices[%d]: %w", i, ErrNegativePrice))
		}
		points = append(points, model.PricePoint{
			Timestamp: time.UnixMilli(values[0].Int()).UTC(),
			Price:     price,
		})
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].Timestamp.Before(points[j].Timestamp) })
	return model.PriceSeries{Points: points}, nil
}

func emptySeries() model.PriceSeries {
	return model.PriceSeries{Points: []model.PricePoint{}}
}
