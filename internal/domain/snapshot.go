package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction classifies the sign of the day-over-day variation; the
// presentation layer maps it to a color.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// DirectionOf returns the direction for a variation percentage.
// Zero (and positive) variation renders as up, matching how the card
// color is derived.
func DirectionOf(variation decimal.Decimal) Direction {
	if variation.IsNegative() {
		return DirectionDown
	}
	return DirectionUp
}

// Snapshot is one refresh cycle's complete output. It wholly replaces the
// previous snapshot; nothing is merged incrementally.
//
// Bid and Variation are null when the corresponding feed call failed or the
// history was too short; that degrades the snapshot, it does not invalidate
// it. Valid is false only when the cycle could not produce usable history
// at all.
type Snapshot struct {
	Bid         decimal.NullDecimal `json:"bid"`
	Variation   decimal.NullDecimal `json:"variation"`
	Direction   Direction           `json:"direction"`
	History     Series              `json:"history"`
	Trend       Series              `json:"trend"`
	Sales       []SalesOrder        `json:"sales"`
	Purchases   []PurchaseOrder     `json:"purchases"`
	GeneratedAt time.Time           `json:"generated_at"`
	Valid       bool                `json:"valid"`
	Status      string              `json:"status"`
}

// FilterSpec is the user-selected set of allowed values per dimension plus
// a single exact-match date. It is an immutable value: the engine reads one
// whole spec at the start of a cycle, never individual fields of a shared
// one.
//
// An empty slice for a dimension allows nothing through. That mirrors how
// the selection widgets behave when the user clears a multi-select, so it
// is kept as-is rather than meaning "unfiltered".
type FilterSpec struct {
	Date         time.Time `json:"date"`
	PaymentTerms []string  `json:"payment_terms"`
	ChildOrder   []string  `json:"child_order"`
	Statuses     []string  `json:"statuses"`
	Warehouses   []string  `json:"warehouses"`
}

// FilterOptions are the distinct non-null values observed per dimension in
// the loaded record sets; they seed the selection widgets and the default
// spec.
type FilterOptions struct {
	PaymentTerms []string `json:"payment_terms"`
	ChildOrder   []string `json:"child_order"`
	Statuses     []string `json:"statuses"`
	Warehouses   []string `json:"warehouses"`
}

// DefaultSpec selects the given date and every observed value in every
// dimension, matching the widgets' initial all-selected state.
func (o FilterOptions) DefaultSpec(date time.Time) FilterSpec {
	return FilterSpec{
		Date:         DateOf(date),
		PaymentTerms: append([]string(nil), o.PaymentTerms...),
		ChildOrder:   append([]string(nil), o.ChildOrder...),
		Statuses:     append([]string(nil), o.Statuses...),
		Warehouses:   append([]string(nil), o.Warehouses...),
	}
}
