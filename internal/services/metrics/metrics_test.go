package metrics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ruanmelo/cambiovivo/internal/domain"
)

func seriesOf(bids ...string) domain.Series {
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	out := make(domain.Series, len(bids))
	for i, b := range bids {
		out[i] = domain.QuotePoint{
			Timestamp: base.AddDate(0, 0, i),
			Bid:       decimal.RequireFromString(b),
		}
	}
	return out
}

func TestVariationAgainstPreviousClose(t *testing.T) {
	variation, ok := Variation(seriesOf("5.00592", "5.01000"))
	require.True(t, ok)

	f, _ := variation.Float64()
	require.InDelta(t, 0.0815, f, 0.001)
	require.False(t, variation.IsNegative())
	require.Equal(t, domain.DirectionUp, domain.DirectionOf(variation))
}

func TestVariationSignMatchesBidMove(t *testing.T) {
	up, ok := Variation(seriesOf("5.10", "5.20"))
	require.True(t, ok)
	require.True(t, up.IsPositive())

	down, ok := Variation(seriesOf("5.20", "5.10"))
	require.True(t, ok)
	require.True(t, down.IsNegative())
	require.Equal(t, domain.DirectionDown, domain.DirectionOf(down))

	flat, ok := Variation(seriesOf("5.20", "5.20"))
	require.True(t, ok)
	require.True(t, flat.IsZero())
}

func TestVariationUsesTwoMostRecentPoints(t *testing.T) {
	// Older points must not influence the result.
	long, ok := Variation(seriesOf("1.00", "9.99", "5.00", "5.05"))
	require.True(t, ok)

	short, ok2 := Variation(seriesOf("5.00", "5.05"))
	require.True(t, ok2)
	require.True(t, long.Equal(short))
}

func TestVariationInsufficientData(t *testing.T) {
	_, ok := Variation(nil)
	require.False(t, ok)

	_, ok = Variation(seriesOf("5.01"))
	require.False(t, ok)
}

func TestVariationZeroPreviousClose(t *testing.T) {
	_, ok := Variation(seriesOf("0", "5.01"))
	require.False(t, ok)
}

func TestTrendAlignsToTail(t *testing.T) {
	bids := make([]string, 30)
	for i := range bids {
		bids[i] = "5.00"
	}
	series := seriesOf(bids...)

	overlay := Trend(series, TrendPeriod)
	require.NotEmpty(t, overlay)
	require.LessOrEqual(t, len(overlay), len(series))

	// overlay timestamps must be a suffix of the source timestamps
	offset := len(series) - len(overlay)
	for i, p := range overlay {
		require.Equal(t, series[offset+i].Timestamp, p.Timestamp)
	}

	// constant input smooths to the same constant
	last, _ := overlay[len(overlay)-1].Bid.Float64()
	require.InDelta(t, 5.00, last, 0.0001)
}

func TestTrendShortSeries(t *testing.T) {
	require.Nil(t, Trend(seriesOf("5.00", "5.01"), TrendPeriod))
	require.Nil(t, Trend(nil, TrendPeriod))
}
