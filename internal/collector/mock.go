package collector

import (
	"context"
	"sync"
	"time"

	"CoinCompare/internal/model"

	"github.com/shopspring/decimal"
)

// MockFetcher returns controllable fixed data for development and testing.
// With no Series or Err set it generates a gently rising daily series around Price.
type MockFetcher struct {
	Src    model.Source
	Price  decimal.Decimal
	Series *model.PriceSeries
	Err    error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records the arguments of one FetchSeries invocation.
type MockCall struct {
	CoinID string
	Days   int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Source() model.Source { return m.Src }

func (m *MockFetcher) FetchSeries(_ context.Context, coinID string, days int) (model.PriceSeries, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{CoinID: coinID, Days: days})
	m.mu.Unlock()

	if m.Err != nil {
		return model.PriceSeries{}, m.Err
	}
	if m.Series != nil {
		return *m.Series, nil
	}
	return generateMockSeries(m.Price, days), nil
}

// Calls returns the invocations seen so far.
func (m *MockFetcher) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

func generateMockSeries(basePrice decimal.Decimal, count int) model.PriceSeries {
	if basePrice.IsZero() {
		basePrice = decimal.NewFromInt(100)
	}
	if count < 0 {
		count = 0
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	step := decimal.RequireFromString("0.001")
	points := make([]model.PricePoint, count)
	for i := 0; i < count; i++ {
		factor := decimal.NewFromInt(1).Add(step.Mul(decimal.NewFromInt(int64(i - count/2))))
		if factor.IsNegative() {
			factor = decimal.Zero
		}
		points[i] = model.PricePoint{
			Timestamp: today.AddDate(0, 0, -(count - 1 - i)),
			Price:     basePrice.Mul(factor).Round(2),
		}
	}
	return model.PriceSeries{Points: points}
}
