package checkout

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
)

const DefaultCurrency = "INR"

type Service struct {
	gateway   PaymentGateway
	orders    order.Repository
	publisher events.Publisher
	logger    *zap.Logger
	currency  string
	now       func() time.Time
}

func NewService(gateway PaymentGateway, orders order.Repository, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		gateway:   gateway,
		orders:    orders,
		publisher: publisher,
		logger:    logger,
		currency:  DefaultCurrency,
		now:       time.Now,
	}
}

// fallbackOrderID is used when the gateway does not assign an order id.
func fallbackOrderID(t time.Time) string {
	return "ORD" + strconv.FormatInt(t.UnixMilli(), 10)
}

// Checkout pays for the chosen source of store and records the order. The
// store is cleared only after payment and persistence both succeeded.
func (s *Service) Checkout(ctx context.Context, sessionID string, store *cart.Store, src cart.Source, meta events.EventMeta) (*order.Order, error) {
	var placed *order.Order

	err := store.Checkout(ctx, src, func(ctx context.Context, snap cart.Snapshot) error {
		conf, err := s.gateway.Charge(ctx, PaymentRequest{
			SessionID: sessionID,
			Amount:    snap.Total,
			Currency:  s.currency,
		})
		if err != nil {
			return fmt.Errorf("charge: %w", err)
		}

		now := s.now().UTC()
		o := &order.Order{
			ID:        conf.OrderID,
			PaymentID: conf.PaymentID,
			SessionID: sessionID,
			Source:    snap.Source,
			Amount:    snap.Total,
			CreatedAt: now,
			Items:     snap.Items,
		}
		if o.ID == "" {
			o.ID = fallbackOrderID(now)
		}

		if err := s.orders.Create(ctx, o); err != nil {
			return fmt.Errorf("save order: %w", err)
		}
		placed = o
		return nil
	})
	if err != nil {
		s.logger.Info("checkout aborted",
			zap.String("session_id", sessionID),
			zap.String("source", string(src)),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("order placed",
		zap.String("session_id", sessionID),
		zap.String("order_id", placed.ID),
		zap.String("payment_id", placed.PaymentID),
		zap.String("amount", placed.Amount.String()))

	if meta.PartitionKey == "" {
		meta.PartitionKey = sessionID
	}
	if err := s.publisher.PublishOrderPlaced(ctx, meta, placed); err != nil {
		s.logger.Warn("publish OrderPlaced failed", zap.String("order_id", placed.ID), zap.Error(err))
	}

	return placed, nil
}

func (s *Service) History(ctx context.Context, sessionID string) ([]order.Order, error) {
	return s.orders.ListBySession(ctx, sessionID)
}

// Order returns one order of sessionID. Orders of other sessions read as
// not found.
func (s *Service) Order(ctx context.Context, sessionID, orderID string) (*order.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.SessionID != sessionID {
		return nil, fmt.Errorf("%w: %s", order.ErrNotFound, orderID)
	}
	return o, nil
}
