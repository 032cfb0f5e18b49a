package collector

import (
	"context"

	"CoinCompare/internal/model"
)

// Fetcher retrieves a normalised daily price series from one upstream API.
//
// FetchSeries returns an empty series, not an error, when the upstream answers
// with well-formed JSON that lacks the price data. Network failures, timeouts and
// bodies that cannot be parsed are reported as *FetchError.
type Fetcher interface {
	FetchSeries(ctx context.Context, coinID string, days int) (model.PriceSeries, error)
	Source() model.Source
	Name() string
}
