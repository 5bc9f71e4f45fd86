package adapter

import "context"

// PaymentGateway is the hex port for payment providers.
type PaymentGateway interface {
	Name() string

	// RequestPayment opens a payment intent for amount (USD cents) and returns the provider authority.
	RequestPayment(ctx context.Context, amount int64, description string, meta map[string]string) (authority string, err error)
	// VerifyPayment settles the intent and returns the provider reference on success.
	VerifyPayment(ctx context.Context, authority string, expectedAmount int64) (refID string, err error)
}
