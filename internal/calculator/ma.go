package calculator

import (
	"errors"

	"CoinCompare/internal/model"

	"github.com/shopspring/decimal"
)

// SMAPeriod is the window of the moving average reported in a Summary.
const SMAPeriod = 7

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []decimal.Decimal, period int) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, errors.New("period must be positive")
	}
	if len(prices) < period {
		return decimal.Zero, errors.New("not enough data for SMA calculation")
	}
	sum := decimal.Zero
	for i := len(prices) - period; i < len(prices); i++ {
		sum = sum.Add(prices[i])
	}
	return sum.Div(decimal.NewFromInt(int64(period))), nil
}

func extractPrices(points []model.PricePoint) []decimal.Decimal {
	prices := make([]decimal.Decimal, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}
	return prices
}
