// Package metrics derives presentation figures from a historical quote
// series: the day-over-day variation and a smoothed trend overlay for the
// chart.
package metrics

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/shopspring/decimal"

	"github.com/ruanmelo/cambiovivo/internal/domain"
)

// TrendPeriod is the EMA window used for the chart overlay.
const TrendPeriod = 20

var hundred = decimal.NewFromInt(100)

// Variation returns the percentage change between the two most recent
// points of a sorted series. The second return is false when the series
// has fewer than two points; that is insufficient data, not a fault, and
// the caller skips the metric for the cycle.
func Variation(series domain.Series) (decimal.Decimal, bool) {
	if len(series) < 2 {
		return decimal.Decimal{}, false
	}

	latest := series[len(series)-1].Bid
	previous := series[len(series)-2].Bid
	if previous.IsZero() {
		return decimal.Decimal{}, false
	}

	return latest.Sub(previous).Div(previous).Mul(hundred), true
}

// Trend computes an exponential moving average over the series bids and
// returns it as a series aligned to the tail of the input, so each overlay
// point shares its timestamp with the source point it smooths. Series
// shorter than the period yield nil.
func Trend(series domain.Series, period int) domain.Series {
	if period < 1 || len(series) < period {
		return nil
	}

	bids := make([]float64, len(series))
	for i, p := range series {
		bids[i], _ = p.Bid.Float64()
	}

	ema := trend.NewEmaWithPeriod[float64](period)
	smoothed := helper.ChanToSlice(ema.Compute(helper.SliceToChan(bids)))

	offset := len(series) - len(smoothed)
	if offset < 0 {
		return nil
	}

	out := make(domain.Series, len(smoothed))
	for i, v := range smoothed {
		out[i] = domain.QuotePoint{
			Timestamp: series[offset+i].Timestamp,
			Bid:       decimal.NewFromFloat(v),
		}
	}
	return out
}
