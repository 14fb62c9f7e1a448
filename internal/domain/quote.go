package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Pair is a currency pair quoted by the feed.
type Pair struct {
	From string
	To   string
}

func (p Pair) String() string {
	return p.From + "_" + p.To
}

// Slug is the path form used by the feed, e.g. "USD-BRL".
func (p Pair) Slug() string {
	return p.From + "-" + p.To
}

// Symbol is the response key used by the feed, e.g. "USDBRL".
func (p Pair) Symbol() string {
	return p.From + p.To
}

// QuotePoint is a single historical bid observation. Timestamps are naive:
// the feed reports epoch seconds, which are kept in UTC with no further
// offset applied.
type QuotePoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Bid       decimal.Decimal `json:"bid"`
}

// Series is an ordered sequence of quote points.
type Series []QuotePoint

// Sort orders the series ascending by timestamp. The feed does not guarantee
// source order.
func (s Series) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Timestamp.Before(s[j].Timestamp)
	})
}

// Latest returns the most recent point. The series must be sorted and
// non-empty.
func (s Series) Latest() QuotePoint {
	return s[len(s)-1]
}

// Clone returns an independent copy so a published snapshot cannot alias
// a series the next cycle mutates.
func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}
