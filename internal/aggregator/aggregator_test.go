package aggregator

import (
	"context"
	"errors"
	"testing"
	"time"

	"CoinCompare/internal/collector"
	"CoinCompare/internal/logging"
	"CoinCompare/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(prices ...int64) *model.PriceSeries {
	s := &model.PriceSeries{}
	for i, p := range prices {
		s.Points = append(s.Points, model.PricePoint{
			Timestamp: time.Unix(1700000000+int64(i)*86400, 0).UTC(),
			Price:     decimal.NewFromInt(p),
		})
	}
	return s
}

func bitcoin() model.CoinIdentity {
	coin, _ := model.DefaultCoins().Lookup("Bitcoin")
	return coin
}

func newMocks(a, b *model.PriceSeries) (*collector.MockFetcher, *collector.MockFetcher) {
	return &collector.MockFetcher{Src: model.SourceCoinGecko, Series: a},
		&collector.MockFetcher{Src: model.SourceCryptoCompare, Series: b}
}

func fetchErr(src model.Source) error {
	return &collector.FetchError{Source: src, Kind: collector.KindTimeout, Err: context.DeadlineExceeded}
}

func TestCompare_BothSucceed(t *testing.T) {
	a, b := newMocks(series(10, 11, 12), series(20, 21))
	agg := New(a, b, logging.Nop())

	cmp := agg.Compare(context.Background(), bitcoin(), 30)

	assert.Equal(t, "Bitcoin", cmp.Coin)
	assert.Equal(t, 30, cmp.Days)
	assert.False(t, cmp.NoData())
	assert.Equal(t, model.StatusOK, cmp.Primary.Status)
	assert.Equal(t, model.StatusOK, cmp.Secondary.Status)
	require.Len(t, cmp.Combined, cmp.Primary.Series.Len()+cmp.Secondary.Series.Len())

	// primary points first, in their own order, then secondary
	want := []int64{10, 11, 12, 20, 21}
	for i, p := range cmp.Combined {
		assert.True(t, p.Price.Equal(decimal.NewFromInt(want[i])), "point %d", i)
	}
	for _, p := range cmp.Combined[:3] {
		assert.Equal(t, model.SourceCoinGecko, p.Source)
	}
	for _, p := range cmp.Combined[3:] {
		assert.Equal(t, model.SourceCryptoCompare, p.Source)
	}
}

func TestCompare_TagsEveryPoint(t *testing.T) {
	a, b := newMocks(series(1, 2), series(3))
	cmp := New(a, b, nil).Compare(context.Background(), bitcoin(), 7)

	for _, r := range cmp.Results() {
		assert.Equal(t, r.Source, r.Series.Source)
		for _, p := range r.Series.Points {
			assert.Equal(t, r.Source, p.Source)
		}
	}
}

func TestCompare_ResolvesIdentifierPerSource(t *testing.T) {
	a, b := newMocks(series(1), series(2))
	New(a, b, nil).Compare(context.Background(), bitcoin(), 45)

	assert.Equal(t, []collector.MockCall{{CoinID: "bitcoin", Days: 45}}, a.Calls())
	assert.Equal(t, []collector.MockCall{{CoinID: "BTC", Days: 45}}, b.Calls())
}

func TestCompare_PassesDaysThroughUnclamped(t *testing.T) {
	a, b := newMocks(series(1), series(2))
	New(a, b, nil).Compare(context.Background(), bitcoin(), 365)

	assert.Equal(t, 365, a.Calls()[0].Days)
	assert.Equal(t, 365, b.Calls()[0].Days)
}

func TestCompare_PrimaryFails(t *testing.T) {
	a, b := newMocks(nil, series(20, 21))
	a.Err = fetchErr(model.SourceCoinGecko)

	cmp := New(a, b, nil).Compare(context.Background(), bitcoin(), 30)

	assert.Equal(t, model.StatusUnavailable, cmp.Primary.Status)
	assert.True(t, cmp.Primary.Series.IsEmpty())
	assert.NotEmpty(t, cmp.Primary.Reason)
	assert.Equal(t, model.CombinedSeries(cmp.Secondary.Series.Points), cmp.Combined)
	assert.False(t, cmp.NoData())
}

func TestCompare_SecondaryEmpty(t *testing.T) {
	a, b := newMocks(series(10), &model.PriceSeries{})

	cmp := New(a, b, nil).Compare(context.Background(), bitcoin(), 30)

	assert.Equal(t, model.StatusEmpty, cmp.Secondary.Status)
	assert.Empty(t, cmp.Secondary.Reason)
	assert.Equal(t, model.CombinedSeries(cmp.Primary.Series.Points), cmp.Combined)
}

func TestCompare_TotalFailure(t *testing.T) {
	tests := []struct {
		name string
		errA error
		errB error
		a, b *model.PriceSeries
	}{
		{name: "both empty", a: &model.PriceSeries{}, b: &model.PriceSeries{}},
		{name: "both failed", errA: fetchErr(model.SourceCoinGecko), errB: fetchErr(model.SourceCryptoCompare)},
		{name: "one failed one empty", errA: fetchErr(model.SourceCoinGecko), b: &model.PriceSeries{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := newMocks(tt.a, tt.b)
			a.Err, b.Err = tt.errA, tt.errB

			cmp := New(a, b, nil).Compare(context.Background(), bitcoin(), 30)

			assert.True(t, cmp.NoData())
			assert.Empty(t, cmp.Combined)
			assert.Len(t, a.Calls(), 1)
			assert.Len(t, b.Calls(), 1)
		})
	}
}

func TestCompare_AbsorbsUnexpectedErrors(t *testing.T) {
	a, b := newMocks(series(1), nil)
	b.Err = errors.New("unexpected")

	cmp := New(a, b, nil).Compare(context.Background(), bitcoin(), 30)

	assert.Equal(t, model.StatusUnavailable, cmp.Secondary.Status)
	assert.Equal(t, "unexpected", cmp.Secondary.Reason)
	assert.Len(t, cmp.Combined, 1)
}

func TestCompare_NegativeDaysWithGeneratedData(t *testing.T) {
	a := &collector.MockFetcher{Src: model.SourceCoinGecko}
	b := &collector.MockFetcher{Src: model.SourceCryptoCompare}

	cmp := New(a, b, nil).Compare(context.Background(), bitcoin(), -1)

	assert.True(t, cmp.NoData())
	assert.Equal(t, model.StatusEmpty, cmp.Primary.Status)
	assert.Equal(t, -1, a.Calls()[0].Days)
}
