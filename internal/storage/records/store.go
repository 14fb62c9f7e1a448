// Package records loads the two CRM collections that seed the dashboard:
// sales orders ("Pedidos") and purchase orders ("Ordens de compra"). Both
// are read in full, pushed through the normalizer and mapped to domain
// structs; nothing is ever written back.
package records

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ruanmelo/cambiovivo/internal/domain"
	"github.com/ruanmelo/cambiovivo/internal/services/normalizer"
	"github.com/ruanmelo/cambiovivo/pkg/retrier"
)

// Collection names as exported by the CRM sync.
const (
	SalesCollection    = "Pedidos - CRM"
	PurchaseCollection = "Ordens de compra - CRM"
)

// Source column names. These are the record store's wire schema, not
// display strings.
const (
	colSubject     = "Assunto"
	colStatus      = "Status"
	colCreatedAt   = "Hora de Criação"
	colPaymentTerm = "Condição de Pagamento"
	colChildOrder  = "Pedido Filho?"
	colQtySold     = "Quantidade Total"
	colProducts    = "Produtos"

	colProductName = "Nome Produto"
	colQtyPaid     = "Quantidade Paga"
	colWarehouse   = "Armazém"
	colReference   = "Pedido de Compra"
	colNumber      = "Número do Pedido"
)

// ErrNoRecords reports that a seed collection came back empty. At startup
// this is fatal: the engine never runs without both record sets.
var ErrNoRecords = errors.New("record collection returned no documents")

const connectTimeout = 10 * time.Second

// Connect opens a client against the record store and verifies it answers
// a ping, retrying transient failures with backoff before giving up.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create record store client")
	}

	r := retrier.New(retrier.WithMaxRetries(3), retrier.WithInitialInterval(500*time.Millisecond))
	err = r.Do(ctx, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		return client.Ping(pingCtx, nil)
	})
	if err != nil {
		return nil, errors.Wrap(err, "record store is unreachable")
	}

	return client, nil
}

// Store reads the seed collections from a single database.
type Store struct {
	db     *mongo.Database
	logger *zap.Logger
}

// NewStore creates a reader over the given database.
func NewStore(db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Load reads both collections in full and returns the normalized session
// record set. Either collection coming back empty is ErrNoRecords; the
// caller decides whether that is fatal (it is at startup).
func (s *Store) Load(ctx context.Context) (*domain.RecordSet, error) {
	salesDocs, err := s.findAll(ctx, SalesCollection)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %q", SalesCollection)
	}
	purchaseDocs, err := s.findAll(ctx, PurchaseCollection)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %q", PurchaseCollection)
	}

	if len(salesDocs) == 0 {
		return nil, errors.Wrapf(ErrNoRecords, "collection %q", SalesCollection)
	}
	if len(purchaseDocs) == 0 {
		return nil, errors.Wrapf(ErrNoRecords, "collection %q", PurchaseCollection)
	}

	set := &domain.RecordSet{
		Sales:     MapSales(salesDocs),
		Purchases: MapPurchases(purchaseDocs),
	}
	set.Options = deriveOptions(set.Sales, set.Purchases)

	s.logger.Info("record sets loaded",
		zap.Int("sales", len(set.Sales)),
		zap.Int("purchases", len(set.Purchases)))

	return set, nil
}

func (s *Store) findAll(ctx context.Context, collection string) ([]bson.M, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// MapSales normalizes raw sales documents and maps them to domain structs.
func MapSales(docs []bson.M) []domain.SalesOrder {
	normalizer.Apply(docs, []normalizer.ColumnSpec{
		{Name: colQtySold, Kind: normalizer.KindDecimal},
		{Name: colCreatedAt, Kind: normalizer.KindTimestamp},
	})

	out := make([]domain.SalesOrder, 0, len(docs))
	for _, doc := range docs {
		createdAt := doc[colCreatedAt].(time.Time)
		out = append(out, domain.SalesOrder{
			Subject:      label(doc[colSubject]),
			Status:       label(doc[colStatus]),
			CreatedAt:    createdAt,
			PaymentTerm:  label(doc[colPaymentTerm]),
			ChildOrder:   label(doc[colChildOrder]),
			QuantitySold: doc[colQtySold].(decimal.Decimal),
			Product:      label(doc[colProducts]),
			Date:         domain.DateOf(createdAt),
		})
	}
	return out
}

// MapPurchases normalizes raw purchase documents and maps them to domain
// structs, assigning a 1-based sequence number when the source lacks one.
func MapPurchases(docs []bson.M) []domain.PurchaseOrder {
	normalizer.Apply(docs, []normalizer.ColumnSpec{
		{Name: colQtyPaid, Kind: normalizer.KindDecimal},
		{Name: colCreatedAt, Kind: normalizer.KindTimestamp},
	})

	out := make([]domain.PurchaseOrder, 0, len(docs))
	for i, doc := range docs {
		createdAt := doc[colCreatedAt].(time.Time)

		number := 0
		if raw, ok := doc[colNumber]; ok {
			number = parseNumber(raw)
		}
		if number == 0 {
			number = i + 1
		}

		out = append(out, domain.PurchaseOrder{
			Product:      label(doc[colProductName]),
			QuantityPaid: doc[colQtyPaid].(decimal.Decimal),
			Warehouse:    label(doc[colWarehouse]),
			CreatedAt:    createdAt,
			Reference:    label(doc[colReference]),
			Date:         domain.DateOf(createdAt),
			Number:       number,
		})
	}
	return out
}

// deriveOptions collects the distinct non-null values per filterable
// dimension, in first-seen order, to seed the selection widgets.
func deriveOptions(sales []domain.SalesOrder, purchases []domain.PurchaseOrder) domain.FilterOptions {
	var opts domain.FilterOptions

	opts.PaymentTerms = distinct(sales, func(o domain.SalesOrder) string { return o.PaymentTerm })
	opts.ChildOrder = distinct(sales, func(o domain.SalesOrder) string { return o.ChildOrder })
	opts.Statuses = distinct(sales, func(o domain.SalesOrder) string { return o.Status })
	opts.Warehouses = distinct(purchases, func(o domain.PurchaseOrder) string { return o.Warehouse })

	return opts
}

func distinct[T any](items []T, value func(T) string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, item := range items {
		v := value(item)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// label renders a categorical document value as text. The CRM export is
// not strict about types here, so booleans and numbers show up alongside
// strings.
func label(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case bool:
		return strconv.FormatBool(s)
	case int32:
		return strconv.FormatInt(int64(s), 10)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}

func parseNumber(v interface{}) int {
	switch n := v.(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
