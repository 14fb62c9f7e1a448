package records

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMapSales(t *testing.T) {
	docs := []bson.M{
		{
			"Assunto":               "PV-101",
			"Status":                "Faturado",
			"Hora de Criação":       "2025-08-14T10:30:00-03:00",
			"Condição de Pagamento": "30 dias",
			"Pedido Filho?":         "Não",
			"Quantidade Total":      "12.5",
			"Produtos":              "Soja",
		},
		{
			"Assunto":          "PV-102",
			"Status":           "Aberto",
			"Hora de Criação":  "sem data",
			"Quantidade Total": "muitos",
			"Pedido Filho?":    true,
		},
	}

	sales := MapSales(docs)
	require.Len(t, sales, 2)

	first := sales[0]
	require.Equal(t, "PV-101", first.Subject)
	require.Equal(t, "Faturado", first.Status)
	require.Equal(t, time.Date(2025, 8, 14, 13, 30, 0, 0, time.UTC), first.CreatedAt)
	require.Equal(t, time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC), first.Date)
	require.True(t, decimal.RequireFromString("12.5").Equal(first.QuantitySold))
	require.Equal(t, "Soja", first.Product)

	second := sales[1]
	require.True(t, second.CreatedAt.IsZero())
	require.True(t, second.Date.IsZero())
	require.True(t, second.QuantitySold.IsZero())
	require.Equal(t, "", second.PaymentTerm)
	require.Equal(t, "true", second.ChildOrder)
}

func TestMapPurchasesAssignsSequenceNumbers(t *testing.T) {
	docs := []bson.M{
		{
			"Nome Produto":     "Soja",
			"Quantidade Paga":  "4",
			"Armazém":          "Matriz",
			"Hora de Criação":  "2025-08-14T08:00:00Z",
			"Pedido de Compra": "OC-1",
		},
		{
			"Nome Produto":     "Milho",
			"Quantidade Paga":  "6",
			"Armazém":          "Filial",
			"Hora de Criação":  "2025-08-14T09:00:00Z",
			"Pedido de Compra": "OC-2",
			"Número do Pedido": int32(77),
		},
	}

	purchases := MapPurchases(docs)
	require.Len(t, purchases, 2)

	// source lacks a number: assigned 1-based by load order
	require.Equal(t, 1, purchases[0].Number)
	// source has one: kept
	require.Equal(t, 77, purchases[1].Number)

	require.Equal(t, "Matriz", purchases[0].Warehouse)
	require.Equal(t, "OC-2", purchases[1].Reference)
	require.True(t, decimal.NewFromInt(6).Equal(purchases[1].QuantityPaid))
}

func TestDeriveOptionsDistinctFirstSeen(t *testing.T) {
	sales := MapSales([]bson.M{
		{"Status": "Faturado", "Condição de Pagamento": "30 dias", "Pedido Filho?": "Não", "Hora de Criação": "2025-08-14", "Quantidade Total": "1"},
		{"Status": "Aberto", "Condição de Pagamento": "30 dias", "Pedido Filho?": "Sim", "Hora de Criação": "2025-08-14", "Quantidade Total": "1"},
		{"Status": "Faturado", "Condição de Pagamento": "À vista", "Hora de Criação": "2025-08-14", "Quantidade Total": "1"},
	})
	purchases := MapPurchases([]bson.M{
		{"Armazém": "Matriz", "Quantidade Paga": "1", "Hora de Criação": "2025-08-14"},
		{"Armazém": "", "Quantidade Paga": "1", "Hora de Criação": "2025-08-14"},
		{"Armazém": "Matriz", "Quantidade Paga": "1", "Hora de Criação": "2025-08-14"},
	})

	opts := deriveOptions(sales, purchases)

	require.Equal(t, []string{"Faturado", "Aberto"}, opts.Statuses)
	require.Equal(t, []string{"30 dias", "À vista"}, opts.PaymentTerms)
	require.Equal(t, []string{"Não", "Sim"}, opts.ChildOrder)
	// null (empty) values are not options
	require.Equal(t, []string{"Matriz"}, opts.Warehouses)
}
