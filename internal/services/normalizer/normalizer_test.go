package normalizer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDecimalCoercion(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want decimal.Decimal
	}{
		{"string number", "12.5", decimal.RequireFromString("12.5")},
		{"string with spaces", "  3 ", decimal.NewFromInt(3)},
		{"float", 7.25, decimal.RequireFromString("7.25")},
		{"int32", int32(4), decimal.NewFromInt(4)},
		{"int64", int64(9), decimal.NewFromInt(9)},
		{"garbage string", "dez caixas", decimal.Zero},
		{"empty string", "", decimal.Zero},
		{"nil", nil, decimal.Zero},
		{"bool", true, decimal.Zero},
		{"nan", math_NaN(), decimal.Zero},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.True(t, tc.want.Equal(Decimal(tc.in)))
		})
	}
}

func math_NaN() float64 {
	var zero float64
	return zero / zero
}

func TestDecimal128Coercion(t *testing.T) {
	d128, err := primitive.ParseDecimal128("150.75")
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString("150.75").Equal(Decimal(d128)))
}

func TestTimestampDropsOffset(t *testing.T) {
	// 10:00 at -03:00 is 13:00 UTC; the naive result keeps the UTC wall time.
	got := Timestamp("2025-08-14T10:00:00-03:00")
	require.Equal(t, time.Date(2025, 8, 14, 13, 0, 0, 0, time.UTC), got)
	require.Equal(t, time.UTC, got.Location())
}

func TestTimestampVariants(t *testing.T) {
	require.Equal(t, time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC), Timestamp("2025-08-14"))
	require.Equal(t, time.Unix(1755129600, 0).UTC(), Timestamp(int64(1755129600)))
	require.Equal(t, time.Unix(1755129600, 0).UTC(), Timestamp(primitive.NewDateTimeFromTime(time.Unix(1755129600, 0))))
}

func TestTimestampUnparsableIsZero(t *testing.T) {
	require.True(t, Timestamp("quarta-feira").IsZero())
	require.True(t, Timestamp("").IsZero())
	require.True(t, Timestamp(nil).IsZero())
	require.True(t, Timestamp(struct{}{}).IsZero())
}

func TestApplyCoercesListedColumns(t *testing.T) {
	docs := []bson.M{
		{"Quantidade Total": "12", "Hora de Criação": "2025-08-14T10:00:00-03:00", "Status": "Faturado"},
		{"Quantidade Total": "n/a", "Hora de Criação": "???"},
		{"Status": "Aberto"}, // both coerced columns absent
	}

	Apply(docs, []ColumnSpec{
		{Name: "Quantidade Total", Kind: KindDecimal},
		{Name: "Hora de Criação", Kind: KindTimestamp},
	})

	require.True(t, decimal.NewFromInt(12).Equal(docs[0]["Quantidade Total"].(decimal.Decimal)))
	require.Equal(t, time.Date(2025, 8, 14, 13, 0, 0, 0, time.UTC), docs[0]["Hora de Criação"].(time.Time))

	require.True(t, docs[1]["Quantidade Total"].(decimal.Decimal).IsZero())
	require.True(t, docs[1]["Hora de Criação"].(time.Time).IsZero())

	require.True(t, docs[2]["Quantidade Total"].(decimal.Decimal).IsZero())
	require.True(t, docs[2]["Hora de Criação"].(time.Time).IsZero())

	// untouched column keeps its type
	require.Equal(t, "Faturado", docs[0]["Status"])
}
