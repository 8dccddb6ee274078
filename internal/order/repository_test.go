package order

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
)

const (
	insertOrderSQL = `INSERT INTO orders (id, payment_id, session_id, source, amount, created_at)
         VALUES ($1, $2, $3, $4, $5, $6)`
	insertItemSQL = `INSERT INTO order_items (id, order_id, position, product_id, name, price, image, category, brand, description, quantity, selected_size)
             VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	selectOrderSQL = `SELECT id, payment_id, session_id, source, amount, created_at
         FROM orders WHERE id = $1`
	selectItemsSQL = `SELECT product_id, name, price, image, category, brand, description, quantity, selected_size
         FROM order_items WHERE order_id = $1 ORDER BY position`
	listOrdersSQL = `SELECT id, payment_id, session_id, source, amount, created_at
         FROM orders WHERE session_id = $1 ORDER BY created_at DESC`
)

var (
	orderColumns = []string{"id", "payment_id", "session_id", "source", "amount", "created_at"}
	itemColumns  = []string{"product_id", "name", "price", "image", "category", "brand", "description", "quantity", "selected_size"}
)

func sampleOrder(now time.Time) *Order {
	return &Order{
		ID:        "ORD1700000000000",
		PaymentID: "pay_123",
		SessionID: "s1",
		Source:    cart.SourceCart,
		Amount:    decimal.NewFromInt(2200),
		CreatedAt: now,
		Items: []cart.LineItem{
			{Product: cart.Product{ID: "p1", Name: "Tee", Price: decimal.NewFromInt(500), Image: "t.png", Category: "shirts", Brand: "Acme"}, Quantity: 2, SelectedSize: cart.SizeM},
			{Product: cart.Product{ID: "p2", Name: "Mug", Price: decimal.NewFromInt(1200), Category: "home", Brand: "N/A"}, Quantity: 1},
		},
	}
}

func TestRepositoryCreate_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	o := sampleOrder(time.Now())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderSQL)).
		WithArgs(o.ID, o.PaymentID, o.SessionID, "cart", o.Amount, o.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItemSQL)).
		WithArgs(sqlmock.AnyArg(), o.ID, 0, "p1", "Tee", o.Items[0].Price, "t.png", "shirts", "Acme", "", 2, "M").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItemSQL)).
		WithArgs(sqlmock.AnyArg(), o.ID, 1, "p2", "Mug", o.Items[1].Price, "", "home", "N/A", "", 1, "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), o))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreate_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	o := sampleOrder(time.Now())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderSQL)).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err = repo.Create(context.Background(), o)
	require.ErrorIs(t, err, ErrDuplicateOrder)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreate_ItemInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	o := sampleOrder(time.Now())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertOrderSQL)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItemSQL)).
		WillReturnError(errors.New("item insert failed"))
	mock.ExpectRollback()

	err = repo.Create(context.Background(), o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert order_item")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(selectOrderSQL)).
		WithArgs("ORD1").
		WillReturnRows(sqlmock.NewRows(orderColumns).AddRow("ORD1", "pay_1", "s1", "buy-now", "1200", now))
	mock.ExpectQuery(regexp.QuoteMeta(selectItemsSQL)).
		WithArgs("ORD1").
		WillReturnRows(sqlmock.NewRows(itemColumns).AddRow("p2", "Mug", "1200", "", "home", "N/A", "", 1, ""))

	o, err := repo.GetByID(context.Background(), "ORD1")
	require.NoError(t, err)
	assert.Equal(t, cart.SourceBuyNow, o.Source)
	assert.True(t, decimal.NewFromInt(1200).Equal(o.Amount))
	require.Len(t, o.Items, 1)
	assert.Equal(t, "p2", o.Items[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectOrderSQL)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(orderColumns))

	_, err = NewRepository(db).GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryListBySession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(listOrdersSQL)).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(orderColumns).
			AddRow("ORD2", "pay_2", "s1", "cart", "500", now).
			AddRow("ORD1", "pay_1", "s1", "cart", "1000", now.Add(-time.Hour)))
	mock.ExpectQuery(regexp.QuoteMeta(selectItemsSQL)).
		WithArgs("ORD2").
		WillReturnRows(sqlmock.NewRows(itemColumns).AddRow("p1", "Tee", "500", "", "", "", "", 1, "S"))
	mock.ExpectQuery(regexp.QuoteMeta(selectItemsSQL)).
		WithArgs("ORD1").
		WillReturnRows(sqlmock.NewRows(itemColumns).AddRow("p1", "Tee", "500", "", "", "", "", 2, "M"))

	orders, err := NewRepository(db).ListBySession(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "ORD2", orders[0].ID)
	assert.Equal(t, cart.SizeM, orders[1].Items[0].SelectedSize)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	now := time.Now()

	first := sampleOrder(now.Add(-time.Minute))
	second := sampleOrder(now)
	second.ID = "ORD2"
	other := sampleOrder(now)
	other.ID = "ORD3"
	other.SessionID = "s2"

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, other))
	require.ErrorIs(t, repo.Create(ctx, first), ErrDuplicateOrder)

	list, err := repo.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ORD2", list[0].ID)

	first.Items[0].Quantity = 99
	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Items[0].Quantity)

	_, err = repo.GetByID(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)

	empty, err := repo.ListBySession(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestOrderJSON(t *testing.T) {
	o := sampleOrder(time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC))

	b, err := json.Marshal(o)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, float64(2200), raw["amount"])
	assert.Equal(t, "ORD1700000000000", raw["orderId"])
	assert.Equal(t, "pay_123", raw["paymentId"])

	var back Order
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, o.Amount.Equal(back.Amount))
	assert.Len(t, back.Items, 2)
}
