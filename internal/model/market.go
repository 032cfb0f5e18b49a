package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies the upstream API a price came from.
type Source string

const (
	SourceCoinGecko     Source = "CoinGecko"
	SourceCryptoCompare Source = "CryptoCompare"
)

// OHLCV represents a single daily candle as reported by a provider.
type OHLCV struct {
	Time   time.Time       `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// PricePoint is a single USD observation. Source stays empty until the point is tagged.
type PricePoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
	Source    Source          `json:"source,omitempty"`
}

// PriceSeries holds the points of one source in ascending timestamp order.
type PriceSeries struct {
	Source Source       `json:"source,omitempty"`
	Points []PricePoint `json:"points"`
}

func (s PriceSeries) Len() int { return len(s.Points) }

func (s PriceSeries) IsEmpty() bool { return len(s.Points) == 0 }

// Latest returns the most recent point of the series.
func (s PriceSeries) Latest() (PricePoint, bool) {
	if len(s.Points) == 0 {
		return PricePoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Tagged returns a copy of the series with the series and every point labelled with src.
func (s PriceSeries) Tagged(src Source) PriceSeries {
	points := make([]PricePoint, len(s.Points))
	for i, p := range s.Points {
		p.Source = src
		points[i] = p
	}
	return PriceSeries{Source: src, Points: points}
}
