// Package aggregator fans a comparison query out to two price sources and merges
// whatever they return.
package aggregator

import (
	"context"
	"time"

	"CoinCompare/internal/collector"
	"CoinCompare/internal/logging"
	"CoinCompare/internal/metrics"
	"CoinCompare/internal/model"

	"golang.org/x/sync/errgroup"
)

// Aggregator runs a primary and a secondary Fetcher for one coin and day count.
// A failing source never fails the whole query; it only empties its own slot.
type Aggregator struct {
	primary   collector.Fetcher
	secondary collector.Fetcher
	logger    *logging.Logger
	now       func() time.Time
}

// New creates an Aggregator. Primary points come first in the combined series.
func New(primary, secondary collector.Fetcher, logger *logging.Logger) *Aggregator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Aggregator{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
		now:       time.Now,
	}
}

// Compare fetches both sources once and returns the two tagged results and their
// concatenation. When both slots end up empty the Comparison reports NoData.
// A result produced after ctx is done says nothing about the upstreams; callers
// must check ctx.Err() before reusing it.
func (a *Aggregator) Compare(ctx context.Context, coin model.CoinIdentity, days int) model.Comparison {
	var results [2]model.SourceResult
	var g errgroup.Group
	for i, f := range []collector.Fetcher{a.primary, a.secondary} {
		i, f := i, f
		g.Go(func() error {
			results[i] = a.fetch(ctx, f, coin, days)
			return nil
		})
	}
	_ = g.Wait()

	cmp := model.Comparison{
		Coin:      coin.Name,
		Days:      days,
		Primary:   results[0],
		Secondary: results[1],
		FetchedAt: a.now().UTC(),
	}
	cmp.Combined = combine(cmp.Primary, cmp.Secondary)

	if cmp.NoData() && ctx.Err() == nil {
		a.logger.Warn("no data available from any source", "coin", coin.Name, "days", days)
	}
	return cmp
}

func (a *Aggregator) fetch(ctx context.Context, f collector.Fetcher, coin model.CoinIdentity, days int) model.SourceResult {
	src := f.Source()
	coinID := coin.ID(src)
	start := time.Now()

	series, err := f.FetchSeries(ctx, coinID, days)
	result := model.SourceResult{Source: src}
	switch {
	case err != nil:
		result.Status = model.StatusUnavailable
		result.Series = model.PriceSeries{Source: src, Points: []model.PricePoint{}}
		result.Reason = err.Error()
		if ctx.Err() != nil {
			a.logger.Info("fetch abandoned, caller cancelled", "source", src, "coin", coin.Name, "error", ctx.Err())
		} else if collector.IsFetchError(err) {
			a.logger.Warn("source unavailable", "source", src, "coin", coin.Name, "coin_id", coinID, "error", err)
		} else {
			a.logger.Error("source failed unexpectedly", "source", src, "coin", coin.Name, "coin_id", coinID, "error", err)
		}
	case series.IsEmpty():
		result.Status = model.StatusEmpty
		result.Series = model.PriceSeries{Source: src, Points: []model.PricePoint{}}
		a.logger.Info("source returned no data", "source", src, "coin", coin.Name, "coin_id", coinID)
	default:
		result.Status = model.StatusOK
		result.Series = series.Tagged(src)
		a.logger.Debug("source fetched", "source", src, "coin", coin.Name, "points", series.Len())
	}

	metrics.RecordSourceFetch(string(src), coin.Name, string(result.Status), result.Series.Len(), time.Since(start))
	return result
}

// combine appends the points of every available result in argument order.
func combine(results ...model.SourceResult) model.CombinedSeries {
	size := 0
	for _, r := range results {
		size += r.Series.Len()
	}
	combined := make(model.CombinedSeries, 0, size)
	for _, r := range results {
		if r.Available() {
			combined = append(combined, r.Series.Points...)
		}
	}
	return combined
}
