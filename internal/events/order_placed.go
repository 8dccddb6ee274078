package events

import (
	"encoding/json"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
)

const (
	OrderPlacedEventName    = "OrderPlaced"
	OrderPlacedEventVersion = 1
	OrderPlacedSchemaPath   = "contracts/events/storefront/OrderPlaced.v1.enveloped.schema.json"
)

type OrderPlacedEvent struct {
	EventEnvelope
	Payload OrderPlacedPayload `json:"payload"`
}

type OrderPlacedPayload struct {
	OrderID     string            `json:"orderId"`
	PaymentID   string            `json:"paymentId"`
	SessionID   string            `json:"sessionId"`
	Source      string            `json:"source"`
	Items       []OrderPlacedItem `json:"items"`
	TotalAmount json.Number       `json:"totalAmount"`
	Timestamp   time.Time         `json:"timestamp"`
}

type OrderPlacedItem struct {
	ProductID    string      `json:"productId"`
	Name         string      `json:"name"`
	SelectedSize string      `json:"selectedSize"`
	Quantity     int         `json:"quantity"`
	Price        json.Number `json:"price"`
}

func BuildOrderPlacedEvent(o *order.Order, opts EnvelopeOptions) OrderPlacedEvent {
	if opts.PartitionKey == "" {
		opts.PartitionKey = o.SessionID
	}
	env := newEnvelope(OrderPlacedEventName, OrderPlacedEventVersion, OrderPlacedSchemaPath, opts)

	payload := OrderPlacedPayload{
		OrderID:     o.ID,
		PaymentID:   o.PaymentID,
		SessionID:   o.SessionID,
		Source:      string(o.Source),
		Items:       make([]OrderPlacedItem, 0, len(o.Items)),
		TotalAmount: json.Number(o.Amount.String()),
		Timestamp:   env.OccurredAt,
	}
	for _, it := range o.Items {
		payload.Items = append(payload.Items, OrderPlacedItem{
			ProductID:    it.ID,
			Name:         it.Name,
			SelectedSize: string(it.SelectedSize),
			Quantity:     it.Quantity,
			Price:        json.Number(it.Price.String()),
		})
	}

	return OrderPlacedEvent{EventEnvelope: env, Payload: payload}
}
