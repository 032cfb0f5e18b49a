// Package report renders a comparison as plain text for terminals and logs.
package report

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"CoinCompare/internal/calculator"
	"CoinCompare/internal/model"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// ErrNoData is reported when neither source produced any data for a query.
var ErrNoData = errors.New("no data available from any source")

// Check returns ErrNoData when the comparison has nothing to show.
func Check(c model.Comparison) error {
	if c.NoData() {
		return ErrNoData
	}
	return nil
}

// USD formats a price as "$42,000.50".
func USD(d decimal.Decimal) string {
	f, _ := d.Float64()
	return "$" + humanize.FormatFloat("#,###.##", f)
}

// FormatComparison renders the latest-price snapshot of each source, an
// availability line for each source without data, and optionally the raw tables.
func FormatComparison(c model.Comparison, raw bool) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 %s price comparison | %d days | %s\n\n",
		c.Coin, c.Days, c.FetchedAt.UTC().Format("2006-01-02 15:04 MST")))

	if c.NoData() {
		b.WriteString("❌ Failed to fetch data from both sources. Try again later.\n")
		return b.String()
	}

	b.WriteString("Latest Price Snapshot\n")
	for _, r := range c.Results() {
		if !r.Available() {
			continue
		}
		s, err := calculator.Summarize(r.Series)
		if err != nil {
			continue
		}
		line := fmt.Sprintf("  %s Latest Price: %s (%s%% over %d points, range %s - %s",
			r.Source, USD(s.Latest), signed(s.ChangePct), s.Points, USD(s.Low), USD(s.High))
		if s.SMA != nil {
			line += fmt.Sprintf(", %d-point SMA %s", calculator.SMAPeriod, USD(*s.SMA))
		}
		b.WriteString(line + ")\n")
	}
	for _, r := range c.Results() {
		if !r.Available() {
			b.WriteString(fmt.Sprintf("  %s\n", Availability(r)))
		}
	}

	if raw {
		b.WriteString("\nRaw Data\n")
		for _, r := range c.Results() {
			b.WriteString(fmt.Sprintf("\n== %s ==\n", r.Source))
			if !r.Available() {
				b.WriteString(Availability(r) + "\n")
				continue
			}
			b.WriteString(FormatTable(r.Series))
		}
	}
	return b.String()
}

func signed(d decimal.Decimal) string {
	if d.IsNegative() {
		return d.StringFixed(2)
	}
	return "+" + d.StringFixed(2)
}

// Availability describes why a source contributed nothing.
func Availability(r model.SourceResult) string {
	switch r.Status {
	case model.StatusOK:
		return fmt.Sprintf("%s data available", r.Source)
	case model.StatusEmpty:
		return fmt.Sprintf("%s data unavailable (no data returned)", r.Source)
	default:
		return fmt.Sprintf("%s data unavailable", r.Source)
	}
}

// FormatTable renders one series as an aligned timestamp/price/source table.
func FormatTable(s model.PriceSeries) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tPRICE\tSOURCE")
	for _, p := range s.Points {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Timestamp.UTC().Format(time.DateTime), p.Price.String(), p.Source)
	}
	_ = w.Flush()
	return b.String()
}
