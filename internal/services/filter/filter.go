// Package filter applies a user-selected specification to normalized
// record sets. Dimensions combine with AND; within a dimension a record
// passes when its value is a member of the allowed set.
package filter

import (
	"time"

	"github.com/ruanmelo/cambiovivo/internal/domain"
)

// Sales returns the sales orders matching every dimension of the spec:
// exact derived-date match plus membership in the payment-term, child-order
// and status sets. An empty allowed set lets nothing through.
func Sales(orders []domain.SalesOrder, spec domain.FilterSpec) []domain.SalesOrder {
	terms := asSet(spec.PaymentTerms)
	children := asSet(spec.ChildOrder)
	statuses := asSet(spec.Statuses)

	out := make([]domain.SalesOrder, 0, len(orders))
	for _, o := range orders {
		if !sameDate(o.Date, spec.Date) {
			continue
		}
		if !terms[o.PaymentTerm] || !children[o.ChildOrder] || !statuses[o.Status] {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Purchases returns the purchase orders matching the derived-date and
// warehouse dimensions of the spec.
func Purchases(orders []domain.PurchaseOrder, spec domain.FilterSpec) []domain.PurchaseOrder {
	warehouses := asSet(spec.Warehouses)

	out := make([]domain.PurchaseOrder, 0, len(orders))
	for _, o := range orders {
		if !sameDate(o.Date, spec.Date) {
			continue
		}
		if !warehouses[o.Warehouse] {
			continue
		}
		out = append(out, o)
	}
	return out
}

// sameDate compares derived calendar dates. A record with a null date
// never matches, whatever the spec says.
func sameDate(recordDate, specDate time.Time) bool {
	if recordDate.IsZero() {
		return false
	}
	return recordDate.Equal(domain.DateOf(specDate))
}

func asSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
