package model

import "time"

// SourceStatus describes how a single source fared for one query.
type SourceStatus string

const (
	StatusOK          SourceStatus = "ok"
	StatusEmpty       SourceStatus = "empty"
	StatusUnavailable SourceStatus = "unavailable"
)

// SourceResult is one source's slot of a Comparison.
type SourceResult struct {
	Source Source       `json:"source"`
	Status SourceStatus `json:"status"`
	Series PriceSeries  `json:"series"`
	Reason string       `json:"reason,omitempty"`
}

// Available reports whether the source contributed points.
func (r SourceResult) Available() bool {
	return r.Status == StatusOK && !r.Series.IsEmpty()
}

// CombinedSeries concatenates the tagged points of every available source.
// Points are not re-sorted or aligned across sources.
type CombinedSeries []PricePoint

// Comparison is the result of one query: both tagged series and their concatenation.
type Comparison struct {
	Coin      string         `json:"coin"`
	Days      int            `json:"days"`
	Primary   SourceResult   `json:"primary"`
	Secondary SourceResult   `json:"secondary"`
	Combined  CombinedSeries `json:"combined"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// NoData reports that no source produced any data. Callers must surface this
// instead of rendering an empty view.
func (c Comparison) NoData() bool {
	return len(c.Combined) == 0
}

// Results returns both slots in combination order.
func (c Comparison) Results() []SourceResult {
	return []SourceResult{c.Primary, c.Secondary}
}
