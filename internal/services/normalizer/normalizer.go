// Package normalizer coerces raw record-store documents into canonical
// field types before they are mapped to domain structs. Source documents
// come from a CRM export and carry quantities as strings, numbers or
// Decimal128, and timestamps in whatever offset the exporter used.
package normalizer

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind selects the coercion applied to a column.
type Kind int

const (
	// KindDecimal parses the value as a decimal number; unparsable or
	// missing values become zero.
	KindDecimal Kind = iota
	// KindTimestamp parses the value as an instant, converts it to UTC and
	// drops the offset; unparsable values become the zero time.
	KindTimestamp
)

// ColumnSpec names a column and the kind it must be coerced to.
type ColumnSpec struct {
	Name string
	Kind Kind
}

// timestampLayouts are tried in order for string-typed instants.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Apply coerces the listed columns on every document in place. A document
// that lacks a column gets the kind's null value (zero decimal, zero time),
// so downstream date derivation yields null rather than an error. Apply
// never fails: malformed values degrade to the null value of their kind
// instead of poisoning the batch.
func Apply(docs []bson.M, specs []ColumnSpec) {
	for _, doc := range docs {
		for _, spec := range specs {
			switch spec.Kind {
			case KindDecimal:
				doc[spec.Name] = Decimal(doc[spec.Name])
			case KindTimestamp:
				doc[spec.Name] = Timestamp(doc[spec.Name])
			}
		}
	}
}

// Decimal coerces an arbitrary document value to a decimal. Anything that
// does not parse as a finite number becomes zero.
func Decimal(v interface{}) decimal.Decimal {
	switch n := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return n
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero
		}
		return d
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(n)
	case float32:
		return Decimal(float64(n))
	case int:
		return decimal.NewFromInt(int64(n))
	case int32:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case primitive.Decimal128:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// Timestamp coerces an arbitrary document value to a naive instant: the
// parsed time is converted to UTC and the offset is discarded. Unparsable
// values yield the zero time.
func Timestamp(v interface{}) time.Time {
	switch t := v.(type) {
	case nil:
		return time.Time{}
	case time.Time:
		return t.UTC()
	case primitive.DateTime:
		return t.Time().UTC()
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}
		}
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC()
			}
		}
		return time.Time{}
	case int64:
		return time.Unix(t, 0).UTC()
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return time.Time{}
		}
		return time.Unix(int64(t), 0).UTC()
	default:
		return time.Time{}
	}
}

// String reads a document value as text; non-string values (and nil)
// become the empty string, which the filter options treat as null.
func String(v interface{}) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case nil:
		return ""
	default:
		return ""
	}
}
