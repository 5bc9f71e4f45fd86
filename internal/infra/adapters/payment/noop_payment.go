package payment

import (
	"context"
	"fmt"
	"sync"

	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway approves every intent whose amount matches. It backs the
// mocked checkout in subscribe and renew.
type NoopPaymentGateway struct {
	mu      sync.Mutex
	seq     int64
	intents map[string]int64 // authority -> expected amount (USD cents)
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{intents: make(map[string]int64)}
}

func (g *NoopPaymentGateway) Name() string { return "mock" }

func (g *NoopPaymentGateway) RequestPayment(ctx context.Context, amount int64, description string, meta map[string]string) (string, error) {
	if amount < 0 {
		return "", fmt.Errorf("%w: negative amount", domain.ErrPaymentFailed)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	authority := fmt.Sprintf("mock-%d", g.seq)
	g.intents[authority] = amount
	return authority, nil
}

func (g *NoopPaymentGateway) VerifyPayment(ctx context.Context, authority string, expectedAmount int64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	exp, ok := g.intents[authority]
	if !ok {
		return "", fmt.Errorf("%w: authority %s not found", domain.ErrPaymentFailed, authority)
	}
	if exp != expectedAmount {
		return "", fmt.Errorf("%w: amount mismatch: expected %d got %d", domain.ErrPaymentFailed, exp, expectedAmount)
	}
	delete(g.intents, authority)
	return "ref-" + authority, nil
}
