package checkout

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/nealfung/checkout-shop/internal/common"
	"github.com/nealfung/checkout-shop/internal/gateway"
	"github.com/nealfung/checkout-shop/internal/pricing"
)

// Gateway is the outbound surface the checkout flow needs from the payment
// provider relay.
type Gateway interface {
	CreateSession(ctx context.Context, in gateway.SessionIntent) (gateway.Response, error)
	Refund(ctx context.Context, paymentID string, amountMinor int64) (gateway.Response, error)
}

// SessionInput is the client-supplied portion of a session request. The
// client only ever chooses a quantity; prices and totals are never accepted
// from the wire.
type SessionInput struct {
	Quantity int    `json:"quantity" validate:"required,gte=1"`
	Currency string `json:"currency" validate:"omitempty,iso4217"`
}

// RefundInput identifies the payment to refund. Amount is a decimal string in
// major units, converted server-side.
type RefundInput struct {
	PaymentID string      `json:"paymentId" validate:"required"`
	Amount    json.Number `json:"amount" validate:"required"`
}

// Service prices orders and relays them to the payment gateway.
type Service struct {
	Gateway        Gateway
	UnitPriceMinor int64
	Currency       string
}

// CreateSession computes the order total from the validated quantity and opens
// a hosted payment session. Validation failures never reach the provider.
func (s *Service) CreateSession(ctx context.Context, in SessionInput) (gateway.Response, error) {
	total, err := pricing.Total(s.UnitPriceMinor, in.Quantity)
	if err != nil {
		return gateway.Response{}, common.NewAppError("VALIDATION", "quantity must be a positive integer", http.StatusBadRequest, err)
	}
	currency := in.Currency
	if currency == "" {
		currency = s.Currency
	}
	return s.Gateway.CreateSession(ctx, gateway.SessionIntent{
		AmountMinor:    total,
		Currency:       currency,
		Quantity:       in.Quantity,
		UnitPriceMinor: s.UnitPriceMinor,
	})
}

// Refund converts the requested amount to minor units and relays the refund.
func (s *Service) Refund(ctx context.Context, in RefundInput) (gateway.Response, error) {
	minor, err := pricing.MinorUnits(in.Amount.String())
	if err != nil {
		return gateway.Response{}, common.NewAppError("VALIDATION", "amount must be a positive number", http.StatusBadRequest, err)
	}
	return s.Gateway.Refund(ctx, in.PaymentID, minor)
}
