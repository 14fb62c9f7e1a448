package filter

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ruanmelo/cambiovivo/internal/domain"
)

var day = time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC)

func sampleSales() []domain.SalesOrder {
	return []domain.SalesOrder{
		{Subject: "PV-101", Status: "Faturado", PaymentTerm: "30 dias", ChildOrder: "Não", Product: "Soja", QuantitySold: decimal.NewFromInt(10), Date: day},
		{Subject: "PV-102", Status: "Aberto", PaymentTerm: "À vista", ChildOrder: "Sim", Product: "Milho", QuantitySold: decimal.NewFromInt(5), Date: day},
		{Subject: "PV-103", Status: "Faturado", PaymentTerm: "30 dias", ChildOrder: "Não", Product: "Trigo", QuantitySold: decimal.NewFromInt(2), Date: day.AddDate(0, 0, -1)},
		{Subject: "PV-104", Status: "Cancelado", PaymentTerm: "60 dias", ChildOrder: "Não", Product: "Soja", QuantitySold: decimal.NewFromInt(7)}, // null date
	}
}

func samplePurchases() []domain.PurchaseOrder {
	return []domain.PurchaseOrder{
		{Reference: "OC-1", Product: "Soja", Warehouse: "Matriz", QuantityPaid: decimal.NewFromInt(4), Date: day, Number: 1},
		{Reference: "OC-2", Product: "Milho", Warehouse: "Filial", QuantityPaid: decimal.NewFromInt(6), Date: day, Number: 2},
		{Reference: "OC-3", Product: "Soja", Warehouse: "Matriz", QuantityPaid: decimal.NewFromInt(1), Date: day.AddDate(0, 0, 1), Number: 3},
	}
}

func allSelected() domain.FilterSpec {
	return domain.FilterSpec{
		Date:         day,
		PaymentTerms: []string{"30 dias", "À vista", "60 dias"},
		ChildOrder:   []string{"Sim", "Não"},
		Statuses:     []string{"Faturado", "Aberto", "Cancelado"},
		Warehouses:   []string{"Matriz", "Filial"},
	}
}

func TestSalesAllSelectedKeepsMatchingDate(t *testing.T) {
	got := Sales(sampleSales(), allSelected())
	require.Len(t, got, 2)
	require.Equal(t, "PV-101", got[0].Subject)
	require.Equal(t, "PV-102", got[1].Subject)
}

func TestSalesDimensionsCombineWithAnd(t *testing.T) {
	spec := allSelected()
	spec.Statuses = []string{"Faturado"}
	spec.PaymentTerms = []string{"À vista"}

	// Faturado+30 dias and Aberto+À vista both fail one dimension each.
	require.Empty(t, Sales(sampleSales(), spec))
}

func TestEmptyDimensionExcludesEverything(t *testing.T) {
	spec := allSelected()
	spec.Statuses = nil
	require.Empty(t, Sales(sampleSales(), spec))

	pspec := allSelected()
	pspec.Warehouses = []string{}
	require.Empty(t, Purchases(samplePurchases(), pspec))
}

func TestResultIsSubsetOfInput(t *testing.T) {
	in := sampleSales()
	subjects := make(map[string]bool, len(in))
	for _, o := range in {
		subjects[o.Subject] = true
	}

	for _, o := range Sales(in, allSelected()) {
		require.True(t, subjects[o.Subject])
	}
}

func TestNullDateNeverMatches(t *testing.T) {
	spec := allSelected()
	spec.Date = time.Time{}

	// Even a zero spec date must not match records whose derived date is null.
	for _, o := range Sales(sampleSales(), spec) {
		require.False(t, o.Date.IsZero())
	}
}

func TestPurchasesWarehouseMembership(t *testing.T) {
	spec := allSelected()
	spec.Warehouses = []string{"Matriz"}

	got := Purchases(samplePurchases(), spec)
	require.Len(t, got, 1)
	require.Equal(t, "OC-1", got[0].Reference)
}

func TestSpecDateIsTruncatedBeforeComparing(t *testing.T) {
	spec := allSelected()
	spec.Date = day.Add(15*time.Hour + 42*time.Minute)

	require.Len(t, Sales(sampleSales(), spec), 2)
}
