//go:build !integration

package payment_test

import (
	"context"
	"errors"
	"testing"

	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/infra/adapters/payment"
)

func TestNoopPaymentGateway(t *testing.T) {
	ctx := context.Background()
	g := payment.NewNoopPaymentGateway()

	t.Run("settles a matching intent once", func(t *testing.T) {
		auth, err := g.RequestPayment(ctx, 2900, "basic monthly", nil)
		if err != nil {
			t.Fatal(err)
		}
		ref, err := g.VerifyPayment(ctx, auth, 2900)
		if err != nil || ref != "ref-"+auth {
			t.Fatalf("unexpected verify result %q %v", ref, err)
		}
		if _, err := g.VerifyPayment(ctx, auth, 2900); !errors.Is(err, domain.ErrPaymentFailed) {
			t.Errorf("expected replay to fail, got %v", err)
		}
	})

	t.Run("rejects amount mismatch", func(t *testing.T) {
		auth, _ := g.RequestPayment(ctx, 7900, "pro monthly", nil)
		if _, err := g.VerifyPayment(ctx, auth, 100); !errors.Is(err, domain.ErrPaymentFailed) {
			t.Errorf("expected ErrPaymentFailed, got %v", err)
		}
	})
}
