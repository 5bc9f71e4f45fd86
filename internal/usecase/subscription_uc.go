// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/domain/model"
	"realty-marketplace/internal/domain/ports/adapter"
	"realty-marketplace/internal/domain/ports/repository"
	"realty-marketplace/internal/domain/quota"
	"realty-marketplace/internal/infra/logging"
	"realty-marketplace/internal/infra/metrics"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionUseCase manages the plan catalog and each agency's subscription.
// Subscriptions are replaced wholesale; limits are copied from the catalog at
// subscribe time, so later catalog edits never reach existing agencies.
type SubscriptionUseCase interface {
	ListPlans(ctx context.Context) ([]*model.Plan, error)
	GetPlan(ctx context.Context, tier model.PlanTier) (*model.Plan, error)
	UpsertPlan(ctx context.Context, p *model.Plan) error

	Subscribe(ctx context.Context, ownerID string, tier model.PlanTier, cycle model.BillingCycle) (*SubscriptionStatus, error)
	Renew(ctx context.Context, ownerID string) (*SubscriptionStatus, error)
	Status(ctx context.Context, ownerID string) (*SubscriptionStatus, error)
	Cancel(ctx context.Context, ownerID string) (*SubscriptionStatus, error)
}

// SubscriptionStatus is the owner-facing view of a subscription.
type SubscriptionStatus struct {
	Subscription   model.Subscription `json:"subscription"`
	IsValid        bool               `json:"isValid"`
	DaysLeft       int                `json:"daysLeft"`
	Plan           *model.Plan        `json:"planDetails,omitempty"`
	Usage          quota.Usage        `json:"usage"`
	StoragePercent float64            `json:"storageUsedPercent"`
	ListingPercent float64            `json:"listingUsedPercent"`
	AmountCharged  int64              `json:"amount,omitempty"`
	PaymentRef     string             `json:"paymentRef,omitempty"`
}

type subscriptionUC struct {
	tm       repository.TransactionManager
	plans    repository.PlanRepository
	agencies repository.AgencyRepository
	payments adapter.PaymentGateway
	locker   adapter.TenantLocker
	log      *zerolog.Logger
	now      func() time.Time
}

func NewSubscriptionUseCase(
	tm repository.TransactionManager,
	plans repository.PlanRepository,
	agencies repository.AgencyRepository,
	payments adapter.PaymentGateway,
	locker adapter.TenantLocker,
	logger *zerolog.Logger,
) *subscriptionUC {
	l := logger.With().Str("component", "SubscriptionUseCase").Logger()
	return &subscriptionUC{
		tm:       tm,
		plans:    plans,
		agencies: agencies,
		payments: payments,
		locker:   locker,
		log:      &l,
		now:      time.Now,
	}
}

// ListPlans returns the active plans, cheapest first.
func (uc *subscriptionUC) ListPlans(ctx context.Context) ([]*model.Plan, error) {
	defer logging.TraceDuration(uc.log, "SubscriptionUseCase.ListPlans")()

	all, err := uc.plans.ListAll(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Plan, 0, len(all))
	for _, p := range all {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PriceMonthly < out[j].PriceMonthly })
	return out, nil
}

func (uc *subscriptionUC) GetPlan(ctx context.Context, tier model.PlanTier) (*model.Plan, error) {
	p, err := uc.plans.FindByTier(ctx, repository.NoTX, tier)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrPlanNotFound
	}
	return p, err
}

func (uc *subscriptionUC) UpsertPlan(ctx context.Context, p *model.Plan) error {
	defer logging.TraceDuration(uc.log, "SubscriptionUseCase.UpsertPlan")()

	if p == nil {
		return domain.ErrInvalidArgument
	}
	if _, err := model.ParsePlanTier(string(p.Tier)); err != nil {
		return err
	}
	if p.PriceMonthly < 0 || p.PriceYearly < 0 || p.StorageLimitBytes <= 0 || p.ListingLimit <= 0 {
		return domain.ErrInvalidArgument
	}
	now := uc.now()
	if existing, err := uc.plans.FindByTier(ctx, repository.NoTX, p.Tier); err == nil {
		p.CreatedAt = existing.CreatedAt
	} else if errors.Is(err, domain.ErrNotFound) {
		p.CreatedAt = now
	} else {
		return err
	}
	p.UpdatedAt = now
	if err := uc.plans.Save(ctx, repository.NoTX, p); err != nil {
		return err
	}
	uc.log.Info().Str("tier", string(p.Tier)).Msg("plan saved")
	return nil
}

// Subscribe charges the plan price through the gateway and replaces the
// agency's subscription with a new window and the plan's limits.
func (uc *subscriptionUC) Subscribe(ctx context.Context, ownerID string, tier model.PlanTier, cycle model.BillingCycle) (*SubscriptionStatus, error) {
	defer logging.TraceDuration(uc.log, "SubscriptionUseCase.Subscribe")()
	return uc.replace(ctx, ownerID, "subscribe", func(*model.Agency) (model.PlanTier, model.BillingCycle) {
		return tier, cycle
	})
}

// Renew starts a new window on the agency's current tier and cycle.
func (uc *subscriptionUC) Renew(ctx context.Context, ownerID string) (*SubscriptionStatus, error) {
	defer logging.TraceDuration(uc.log, "SubscriptionUseCase.Renew")()
	return uc.replace(ctx, ownerID, "renew", func(a *model.Agency) (model.PlanTier, model.BillingCycle) {
		return a.Subscription.PlanTier, a.Subscription.BillingCycle
	})
}

func (uc *subscriptionUC) replace(ctx context.Context, ownerID, event string, pick func(*model.Agency) (model.PlanTier, model.BillingCycle)) (*SubscriptionStatus, error) {
	a, err := uc.agencies.FindByOwner(ctx, repository.NoTX, ownerID)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithAgencyID(ctx, a.ID)
	unlock, err := uc.locker.Lock(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rawTier, rawCycle := pick(a)
	tier, err := model.ParsePlanTier(string(rawTier))
	if err != nil {
		return nil, err
	}
	cycle, err := model.ParseBillingCycle(string(rawCycle))
	if err != nil {
		return nil, err
	}
	plan, err := uc.plans.FindByTier(ctx, repository.NoTX, tier)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}
	if !plan.IsActive {
		return nil, domain.ErrPlanNotFound
	}

	amount := plan.Price(cycle)
	ref, err := uc.charge(ctx, a, plan, cycle, amount)
	if err != nil {
		return nil, err
	}

	sub, err := model.NewSubscription(plan.Tier, cycle, plan.Limits(), uc.now())
	if err != nil {
		return nil, err
	}

	var saved *model.Agency
	err = uc.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.agencies.SaveSubscription(ctx, tx, a.ID, sub); err != nil {
			return err
		}
		saved, err = uc.agencies.FindByID(ctx, tx, a.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.IncSubscriptionEvent(event, string(plan.Tier))
	logging.With(ctx, uc.log).Info().
		Str("tier", string(plan.Tier)).
		Str("cycle", string(cycle)).
		Int64("amount", amount).
		Time("end_date", *sub.EndDate).
		Msg("subscription " + event)

	st := uc.status(saved, plan)
	st.AmountCharged = amount
	st.PaymentRef = ref
	return st, nil
}

func (uc *subscriptionUC) charge(ctx context.Context, a *model.Agency, plan *model.Plan, cycle model.BillingCycle, amount int64) (string, error) {
	desc := fmt.Sprintf("%s (%s)", plan.DisplayName, cycle)
	authority, err := uc.payments.RequestPayment(ctx, amount, desc, map[string]string{
		"agency_id": a.ID,
		"tier":      string(plan.Tier),
		"cycle":     string(cycle),
	})
	if err != nil {
		metrics.IncPayment("failed")
		return "", fmt.Errorf("%w: %v", domain.ErrPaymentFailed, err)
	}
	ref, err := uc.payments.VerifyPayment(ctx, authority, amount)
	if err != nil {
		metrics.IncPayment("failed")
		return "", fmt.Errorf("%w: %v", domain.ErrPaymentFailed, err)
	}
	metrics.IncPayment("succeeded")
	metrics.AddPaymentRevenue("USD", amount)
	return ref, nil
}

func (uc *subscriptionUC) Status(ctx context.Context, ownerID string) (*SubscriptionStatus, error) {
	defer logging.TraceDuration(uc.log, "SubscriptionUseCase.Status")()

	a, err := uc.agencies.FindByOwner(ctx, repository.NoTX, ownerID)
	if err != nil {
		return nil, err
	}
	plan, err := uc.plans.FindByTier(ctx, repository.NoTX, a.Subscription.PlanTier)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return uc.status(a, plan), nil
}

// Cancel ends the subscription immediately. Limits stay as they were.
func (uc *subscriptionUC) Cancel(ctx context.Context, ownerID string) (*SubscriptionStatus, error) {
	defer logging.TraceDuration(uc.log, "SubscriptionUseCase.Cancel")()

	a, err := uc.agencies.FindByOwner(ctx, repository.NoTX, ownerID)
	if err != nil {
		return nil, err
	}
	unlock, err := uc.locker.Lock(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var saved *model.Agency
	err = uc.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		cur, err := uc.agencies.FindByID(ctx, tx, a.ID)
		if err != nil {
			return err
		}
		if err := uc.agencies.SaveSubscription(ctx, tx, a.ID, cur.Subscription.CancelledAt(uc.now())); err != nil {
			return err
		}
		saved, err = uc.agencies.FindByID(ctx, tx, a.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.IncSubscriptionEvent("cancel", string(saved.Subscription.PlanTier))
	logging.With(logging.WithAgencyID(ctx, a.ID), uc.log).Info().Msg("subscription cancelled")
	return uc.status(saved, nil), nil
}

func (uc *subscriptionUC) status(a *model.Agency, plan *model.Plan) *SubscriptionStatus {
	now := uc.now()
	usage := quota.For(a).Usage()
	return &SubscriptionStatus{
		Subscription:   a.Subscription,
		IsValid:        a.Subscription.IsValidAt(now),
		DaysLeft:       a.Subscription.DaysLeft(now),
		Plan:           plan,
		Usage:          usage,
		StoragePercent: usage.StoragePercent(),
		ListingPercent: usage.ListingPercent(),
	}
}
