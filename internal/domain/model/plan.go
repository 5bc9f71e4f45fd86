package model

import (
	"strings"
	"time"

	"realty-marketplace/internal/domain"
)

// PlanTier names a subscription level in the plan catalog.
type PlanTier string

const (
	PlanBasic      PlanTier = "basic"
	PlanPro        PlanTier = "pro"
	PlanEnterprise PlanTier = "enterprise"
)

// BillingCycle decides how far a subscription window reaches.
type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
)

const GiB int64 = 1 << 30

// Limits is the resource allowance copied onto a tenant's subscription.
type Limits struct {
	StorageLimitBytes int64 `json:"storageLimitBytes"`
	ListingLimit      int   `json:"listingLimit"`
}

var defaultLimits = map[PlanTier]Limits{
	PlanBasic:      {StorageLimitBytes: 1 * GiB, ListingLimit: 10},
	PlanPro:        {StorageLimitBytes: 5 * GiB, ListingLimit: 50},
	PlanEnterprise: {StorageLimitBytes: 10 * GiB, ListingLimit: 200},
}

func ParsePlanTier(s string) (PlanTier, error) {
	t := PlanTier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := defaultLimits[t]; !ok {
		return "", domain.ErrInvalidArgument
	}
	return t, nil
}

func ParseBillingCycle(s string) (BillingCycle, error) {
	switch c := BillingCycle(strings.ToLower(strings.TrimSpace(s))); c {
	case BillingMonthly, BillingYearly:
		return c, nil
	case "":
		return BillingMonthly, nil
	default:
		return "", domain.ErrInvalidArgument
	}
}

// SnapshotLimits returns the default allowance of a tier by value.
func SnapshotLimits(tier PlanTier) (Limits, error) {
	l, ok := defaultLimits[tier]
	if !ok {
		return Limits{}, domain.ErrInvalidArgument
	}
	return l, nil
}

// Plan is a catalog entry. Prices are in USD cents.
type Plan struct {
	Tier              PlanTier  `json:"tier"`
	DisplayName       string    `json:"displayName"`
	Description       string    `json:"description"`
	PriceMonthly      int64     `json:"priceMonthly"`
	PriceYearly       int64     `json:"priceYearly"`
	StorageLimitBytes int64     `json:"storageLimitBytes"`
	ListingLimit      int       `json:"listingLimit"`
	Features          []string  `json:"features"`
	IsActive          bool      `json:"isActive"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// NewPlan validates and constructs a catalog entry.
func NewPlan(tier PlanTier, displayName string, priceMonthly, priceYearly int64, limits Limits, features []string) (*Plan, error) {
	if _, ok := defaultLimits[tier]; !ok || displayName == "" {
		return nil, domain.ErrInvalidArgument
	}
	if priceMonthly < 0 || priceYearly < 0 || limits.StorageLimitBytes <= 0 || limits.ListingLimit <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Plan{
		Tier:              tier,
		DisplayName:       displayName,
		PriceMonthly:      priceMonthly,
		PriceYearly:       priceYearly,
		StorageLimitBytes: limits.StorageLimitBytes,
		ListingLimit:      limits.ListingLimit,
		Features:          append([]string(nil), features...),
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Limits copies the plan allowance. Later catalog edits never reach a tenant
// through this value.
func (p *Plan) Limits() Limits {
	return Limits{StorageLimitBytes: p.StorageLimitBytes, ListingLimit: p.ListingLimit}
}

// Price returns the charge for one billing window.
func (p *Plan) Price(cycle BillingCycle) int64 {
	if cycle == BillingYearly {
		return p.PriceYearly
	}
	return p.PriceMonthly
}

// DefaultCatalog is the seed catalog.
func DefaultCatalog() []*Plan {
	basic, _ := NewPlan(PlanBasic, "Basic Plan", 2900, 29000, defaultLimits[PlanBasic], []string{
		"Up to 10 property listings",
		"1GB storage",
		"Basic analytics",
		"Email support",
	})
	basic.Description = "Perfect for small agencies getting started"

	pro, _ := NewPlan(PlanPro, "Professional Plan", 7900, 79000, defaultLimits[PlanPro], []string{
		"Up to 50 property listings",
		"5GB storage",
		"Advanced analytics",
		"Priority support",
		"Featured listings",
	})
	pro.Description = "Ideal for growing agencies"

	enterprise, _ := NewPlan(PlanEnterprise, "Enterprise Plan", 19900, 199000, defaultLimits[PlanEnterprise], []string{
		"Up to 200 property listings",
		"10GB storage",
		"Full analytics suite",
		"Dedicated support",
		"Unlimited featured listings",
		"Custom branding",
	})
	enterprise.Description = "For large agencies with extensive portfolios"

	return []*Plan{basic, pro, enterprise}
}
