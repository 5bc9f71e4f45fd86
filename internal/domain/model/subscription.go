package model

import (
	"time"

	"realty-marketplace/internal/domain"
)

// Subscription is the value object embedded in an agency. It is replaced
// wholesale on subscribe, renew and cancel.
type Subscription struct {
	PlanTier          PlanTier     `json:"planTier"`
	BillingCycle      BillingCycle `json:"billingCycle"`
	StartDate         time.Time    `json:"startDate"`
	EndDate           *time.Time   `json:"endDate"`
	StorageLimitBytes int64        `json:"storageLimitBytes"`
	ListingLimit      int          `json:"listingLimit"`
}

// NewSubscription opens a billing window at start with the given allowance.
func NewSubscription(tier PlanTier, cycle BillingCycle, limits Limits, start time.Time) (Subscription, error) {
	if _, ok := defaultLimits[tier]; !ok {
		return Subscription{}, domain.ErrInvalidArgument
	}
	end, err := ComputeBillingWindow(cycle, start)
	if err != nil {
		return Subscription{}, err
	}
	return Subscription{
		PlanTier:          tier,
		BillingCycle:      cycle,
		StartDate:         start,
		EndDate:           &end,
		StorageLimitBytes: limits.StorageLimitBytes,
		ListingLimit:      limits.ListingLimit,
	}, nil
}

// ComputeBillingWindow adds one calendar month or year to start. Overflowing
// days normalise forward (Jan 31 + 1 month is Mar 3 in a common year).
func ComputeBillingWindow(cycle BillingCycle, start time.Time) (time.Time, error) {
	switch cycle {
	case BillingMonthly:
		return start.AddDate(0, 1, 0), nil
	case BillingYearly:
		return start.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, domain.ErrInvalidArgument
	}
}

func (s Subscription) IsValid() bool { return s.IsValidAt(time.Now()) }

// IsValidAt reports whether now falls strictly before the end date.
func (s Subscription) IsValidAt(now time.Time) bool {
	return s.EndDate != nil && now.Before(*s.EndDate)
}

func (s Subscription) Limits() Limits {
	return Limits{StorageLimitBytes: s.StorageLimitBytes, ListingLimit: s.ListingLimit}
}

// CancelledAt returns a copy that expires at now.
func (s Subscription) CancelledAt(now time.Time) Subscription {
	end := now
	s.EndDate = &end
	return s
}

// DaysLeft rounds down; expired or open-ended subscriptions report zero.
func (s Subscription) DaysLeft(now time.Time) int {
	if !s.IsValidAt(now) {
		return 0
	}
	return int(s.EndDate.Sub(now).Hours() / 24)
}
