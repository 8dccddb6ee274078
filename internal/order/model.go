package order

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
)

// Order is the write-once record of a paid checkout.
type Order struct {
	ID        string
	PaymentID string
	SessionID string
	Source    cart.Source
	Amount    decimal.Decimal
	CreatedAt time.Time
	Items     []cart.LineItem
}

type orderJSON struct {
	ID        string          `json:"orderId"`
	PaymentID string          `json:"paymentId"`
	SessionID string          `json:"sessionId"`
	Source    cart.Source     `json:"source"`
	Amount    json.Number     `json:"amount"`
	CreatedAt time.Time       `json:"createdAt"`
	Items     []cart.LineItem `json:"items"`
}

func (o Order) MarshalJSON() ([]byte, error) {
	items := o.Items
	if items == nil {
		items = []cart.LineItem{}
	}
	return json.Marshal(orderJSON{
		ID:        o.ID,
		PaymentID: o.PaymentID,
		SessionID: o.SessionID,
		Source:    o.Source,
		Amount:    json.Number(o.Amount.String()),
		CreatedAt: o.CreatedAt,
		Items:     items,
	})
}

func (o *Order) UnmarshalJSON(data []byte) error {
	var w orderJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	amount := decimal.Zero
	if w.Amount != "" {
		a, err := decimal.NewFromString(string(w.Amount))
		if err != nil {
			return err
		}
		amount = a
	}
	*o = Order{
		ID:        w.ID,
		PaymentID: w.PaymentID,
		SessionID: w.SessionID,
		Source:    w.Source,
		Amount:    amount,
		CreatedAt: w.CreatedAt,
		Items:     w.Items,
	}
	return nil
}
