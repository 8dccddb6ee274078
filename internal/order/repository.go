package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
)

var (
	ErrNotFound       = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order already exists")
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	ListBySession(ctx context.Context, sessionID string) ([]Order, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, payment_id, session_id, source, amount, created_at)
         VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.PaymentID, o.SessionID, string(o.Source), o.Amount, o.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%w: %s", ErrDuplicateOrder, o.ID)
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for i, it := range o.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, position, product_id, name, price, image, category, brand, description, quantity, selected_size)
             VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			uuid.NewString(), o.ID, i, it.ID, it.Name, it.Price, it.Image, it.Category, it.Brand, it.Description, it.Quantity, string(it.SelectedSize),
		)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *repo) GetByID(ctx context.Context, orderID string) (*Order, error) {
	var (
		o      Order
		source string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, payment_id, session_id, source, amount, created_at
         FROM orders WHERE id = $1`,
		orderID,
	).Scan(&o.ID, &o.PaymentID, &o.SessionID, &source, &o.Amount, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("select order: %w", err)
	}
	o.Source = cart.Source(source)

	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repo) ListBySession(ctx context.Context, sessionID string) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, payment_id, session_id, source, amount, created_at
         FROM orders WHERE session_id = $1 ORDER BY created_at DESC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		var (
			o      Order
			source string
		)
		if err := rows.Scan(&o.ID, &o.PaymentID, &o.SessionID, &source, &o.Amount, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Source = cart.Source(source)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	for i := range orders {
		if orders[i].Items, err = r.items(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *repo) items(ctx context.Context, orderID string) ([]cart.LineItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id, name, price, image, category, brand, description, quantity, selected_size
         FROM order_items WHERE order_id = $1 ORDER BY position`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	items := []cart.LineItem{}
	for rows.Next() {
		var (
			it   cart.LineItem
			size string
		)
		if err := rows.Scan(&it.ID, &it.Name, &it.Price, &it.Image, &it.Category, &it.Brand, &it.Description, &it.Quantity, &size); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		it.SelectedSize = cart.Size(size)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return items, nil
}

// MemoryRepository keeps the order history in process.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders []Order
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) Create(ctx context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.orders {
		if existing.ID == o.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateOrder, o.ID)
		}
	}
	stored := *o
	stored.Items = append([]cart.LineItem(nil), o.Items...)
	m.orders = append(m.orders, stored)
	return nil
}

func (m *MemoryRepository) GetByID(ctx context.Context, orderID string) (*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.orders {
		if o.ID == orderID {
			out := o
			out.Items = append([]cart.LineItem(nil), o.Items...)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, orderID)
}

func (m *MemoryRepository) ListBySession(ctx context.Context, sessionID string) ([]Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Order{}
	for _, o := range m.orders {
		if o.SessionID == sessionID {
			cp := o
			cp.Items = append([]cart.LineItem(nil), o.Items...)
			out = append(out, cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
