package calculator

import (
	"errors"
	"time"

	"CoinCompare/internal/model"

	"github.com/shopspring/decimal"
)

// ErrEmptySeries is returned when a summary is requested for a series without points.
var ErrEmptySeries = errors.New("no price points provided")

var hundred = decimal.NewFromInt(100)

// Summary holds the latest-price metrics of one series.
type Summary struct {
	Latest    decimal.Decimal  `json:"latest"`
	LatestAt  time.Time        `json:"latest_at"`
	First     decimal.Decimal  `json:"first"`
	High      decimal.Decimal  `json:"high"`
	Low       decimal.Decimal  `json:"low"`
	Change    decimal.Decimal  `json:"change"`
	ChangePct decimal.Decimal  `json:"change_pct"` // 0 when First is 0
	Points    int              `json:"points"`
	SMA       *decimal.Decimal `json:"sma,omitempty"` // nil with fewer than SMAPeriod points
}

// Summarize scans the series and returns its latest price, window high and low,
// and the change from the first to the latest point.
func Summarize(series model.PriceSeries) (Summary, error) {
	if series.IsEmpty() {
		return Summary{}, ErrEmptySeries
	}
	first := series.Points[0]
	latest := series.Points[len(series.Points)-1]

	high, low := first.Price, first.Price
	for _, p := range series.Points[1:] {
		if p.Price.GreaterThan(high) {
			high = p.Price
		}
		if p.Price.LessThan(low) {
			low = p.Price
		}
	}

	change := latest.Price.Sub(first.Price)
	pct := decimal.Zero
	if !first.Price.IsZero() {
		pct = change.Div(first.Price).Mul(hundred).Round(2)
	}

	summary := Summary{
		Latest:    latest.Price,
		LatestAt:  latest.Timestamp,
		First:     first.Price,
		High:      high,
		Low:       low,
		Change:    change,
		ChangePct: pct,
		Points:    len(series.Points),
	}
	if sma, err := CalculateSMA(extractPrices(series.Points), SMAPeriod); err == nil {
		sma = sma.Round(8)
		summary.SMA = &sma
	}
	return summary, nil
}
