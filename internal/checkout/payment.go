package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrPaymentDeclined = errors.New("payment declined")

type PaymentRequest struct {
	SessionID string
	Amount    decimal.Decimal
	Currency  string
}

// PaymentConfirmation is what the gateway reports back on success. OrderID
// may be empty; the checkout then generates one.
type PaymentConfirmation struct {
	PaymentID string
	OrderID   string
}

type PaymentGateway interface {
	Charge(ctx context.Context, req PaymentRequest) (PaymentConfirmation, error)
}

// SandboxGateway approves every positive charge unless Decline is set.
type SandboxGateway struct {
	Decline bool
}

func (g SandboxGateway) Charge(ctx context.Context, req PaymentRequest) (PaymentConfirmation, error) {
	if err := ctx.Err(); err != nil {
		return PaymentConfirmation{}, err
	}
	if g.Decline {
		return PaymentConfirmation{}, ErrPaymentDeclined
	}
	if !req.Amount.IsPositive() {
		return PaymentConfirmation{}, fmt.Errorf("%w: amount must be positive", ErrPaymentDeclined)
	}
	return PaymentConfirmation{PaymentID: "pay_" + uuid.NewString()}, nil
}
