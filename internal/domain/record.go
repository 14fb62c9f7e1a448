package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesOrder is one normalized record from the sales collection.
// CreatedAt is a naive instant (offset already dropped); a zero CreatedAt
// means the source value was missing or unparsable, in which case Date is
// zero too and the record never matches a date filter.
type SalesOrder struct {
	Subject      string
	Status       string
	CreatedAt    time.Time
	PaymentTerm  string
	ChildOrder   string
	QuantitySold decimal.Decimal
	Product      string
	Date         time.Time
}

// PurchaseOrder is one normalized record from the purchase collection.
// Number is taken from the source when present, otherwise assigned 1-based
// by load order.
type PurchaseOrder struct {
	Product      string
	QuantityPaid decimal.Decimal
	Warehouse    string
	CreatedAt    time.Time
	Reference    string
	Date         time.Time
	Number       int
}

// DateOf strips an instant to its calendar date. Zero in, zero out.
func DateOf(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RecordSet holds both collections for a session plus the distinct filter
// options observed in them. Loaded once (or re-loaded per cycle, depending
// on configuration) and treated as read-only afterwards.
type RecordSet struct {
	Sales     []SalesOrder
	Purchases []PurchaseOrder
	Options   FilterOptions
}
