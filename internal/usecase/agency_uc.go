// File: internal/usecase/agency_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
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
var _ AgencyUseCase = (*agencyUC)(nil)

type AgencyUseCase interface {
	Register(ctx context.Context, ownerID string, in RegisterAgencyInput) (*model.Agency, error)
	GetMine(ctx context.Context, ownerID string) (*AgencyView, error)
	UpdateProfile(ctx context.Context, ownerID string, patch AgencyProfilePatch) (*model.Agency, error)
	GetPublic(ctx context.Context, id string) (*PublicAgency, error)
	ListPublic(ctx context.Context, search string, page, limit int) (*AgencyPage, error)
	DashboardStats(ctx context.Context, ownerID string) (*DashboardStats, error)
}

type RegisterAgencyInput struct {
	Profile      model.AgencyProfile
	PlanTier     model.PlanTier
	BillingCycle model.BillingCycle
}

// AgencyProfilePatch lists the owner-editable fields. Email is fixed at
// registration.
type AgencyProfilePatch struct {
	Name        *string                  `json:"agencyName"`
	Description *string                  `json:"description"`
	Phone       *string                  `json:"phone"`
	Address     *model.Address           `json:"address"`
	Website     *string                  `json:"website"`
	SocialLinks *model.AgencySocialLinks `json:"socialLinks"`
	Logo        *string                  `json:"logo"`
}

type AgencyView struct {
	*model.Agency
	SubscriptionValid bool `json:"subscriptionValid"`
}

// PublicAgency omits the subscription and the quota ledger.
type PublicAgency struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"agencyName"`
	Description string                  `json:"description"`
	Email       string                  `json:"email"`
	Phone       string                  `json:"phone"`
	Address     model.Address           `json:"address"`
	Logo        string                  `json:"logo,omitempty"`
	Website     string                  `json:"website,omitempty"`
	SocialLinks model.AgencySocialLinks `json:"socialLinks"`
	IsVerified  bool                    `json:"isVerified"`
	CreatedAt   time.Time               `json:"createdAt"`
}

func publicView(a *model.Agency) *PublicAgency {
	return &PublicAgency{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Email:       a.Email,
		Phone:       a.Phone,
		Address:     a.Address,
		Logo:        a.Logo,
		Website:     a.Website,
		SocialLinks: a.SocialLinks,
		IsVerified:  a.IsVerified,
		CreatedAt:   a.CreatedAt,
	}
}

type AgencyPage struct {
	Agencies []*PublicAgency `json:"agencies"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
	Total    int             `json:"total"`
	Pages    int             `json:"pages"`
}

type DashboardStats struct {
	TotalProperties     int        `json:"totalProperties"`
	AvailableProperties int        `json:"availableProperties"`
	SoldProperties      int        `json:"soldProperties"`
	TotalViews          int        `json:"totalViews"`
	StorageUsed         int64      `json:"storageUsed"`
	StorageLimit        int64      `json:"storageLimit"`
	StorageUsedPercent  float64    `json:"storageUsedPercent"`
	ListingCount        int        `json:"listingCount"`
	ListingLimit        int        `json:"listingLimit"`
	ListingUsedPercent  float64    `json:"listingUsedPercent"`
	SubscriptionValid   bool       `json:"subscriptionValid"`
	SubscriptionEndDate *time.Time `json:"subscriptionEndDate"`
}

type agencyUC struct {
	tm       repository.TransactionManager
	agencies repository.AgencyRepository
	listings repository.ListingRepository
	locker   adapter.TenantLocker
	log      *zerolog.Logger
	now      func() time.Time
}

func NewAgencyUseCase(
	tm repository.TransactionManager,
	agencies repository.AgencyRepository,
	listings repository.ListingRepository,
	locker adapter.TenantLocker,
	logger *zerolog.Logger,
) *agencyUC {
	l := logger.With().Str("component", "AgencyUseCase").Logger()
	return &agencyUC{
		tm:       tm,
		agencies: agencies,
		listings: listings,
		locker:   locker,
		log:      &l,
		now:      time.Now,
	}
}

// Register opens the owner's agency with the tier's default limits and a
// billing window starting now. An owner holds at most one agency.
func (uc *agencyUC) Register(ctx context.Context, ownerID string, in RegisterAgencyInput) (*model.Agency, error) {
	defer logging.TraceDuration(uc.log, "AgencyUseCase.Register")()

	tier := in.PlanTier
	if tier == "" {
		tier = model.PlanBasic
	}
	tier, err := model.ParsePlanTier(string(tier))
	if err != nil {
		return nil, err
	}
	cycle, err := model.ParseBillingCycle(string(in.BillingCycle))
	if err != nil {
		return nil, err
	}
	limits, err := model.SnapshotLimits(tier)
	if err != nil {
		return nil, err
	}
	sub, err := model.NewSubscription(tier, cycle, limits, uc.now())
	if err != nil {
		return nil, err
	}
	a, err := model.NewAgency(ownerID, in.Profile, sub)
	if err != nil {
		return nil, err
	}

	err = uc.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := uc.agencies.FindByOwner(ctx, tx, ownerID); err == nil {
			return domain.ErrAlreadyExists
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return uc.agencies.Create(ctx, tx, a)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncSubscriptionEvent("register", string(tier))
	logging.With(logging.WithAgencyID(ctx, a.ID), uc.log).Info().
		Str("tier", string(tier)).
		Str("cycle", string(cycle)).
		Msg("agency registered")
	return a, nil
}

func (uc *agencyUC) GetMine(ctx context.Context, ownerID string) (*AgencyView, error) {
	defer logging.TraceDuration(uc.log, "AgencyUseCase.GetMine")()

	a, err := uc.agencies.FindByOwner(ctx, repository.NoTX, ownerID)
	if err != nil {
		return nil, err
	}
	return &AgencyView{Agency: a, SubscriptionValid: a.Subscription.IsValidAt(uc.now())}, nil
}

func (uc *agencyUC) UpdateProfile(ctx context.Context, ownerID string, patch AgencyProfilePatch) (*model.Agency, error) {
	defer logging.TraceDuration(uc.log, "AgencyUseCase.UpdateProfile")()

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
		if patch.Name != nil {
			if strings.TrimSpace(*patch.Name) == "" {
				return domain.ErrInvalidArgument
			}
			cur.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			cur.Description = *patch.Description
		}
		if patch.Phone != nil {
			if strings.TrimSpace(*patch.Phone) == "" {
				return domain.ErrInvalidArgument
			}
			cur.Phone = *patch.Phone
		}
		if patch.Address != nil {
			cur.Address = *patch.Address
		}
		if patch.Website != nil {
			cur.Website = *patch.Website
		}
		if patch.SocialLinks != nil {
			cur.SocialLinks = *patch.SocialLinks
		}
		if patch.Logo != nil {
			cur.Logo = *patch.Logo
		}
		if err := uc.agencies.SaveProfile(ctx, tx, cur); err != nil {
			return err
		}
		saved, err = uc.agencies.FindByID(ctx, tx, a.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (uc *agencyUC) GetPublic(ctx context.Context, id string) (*PublicAgency, error) {
	a, err := uc.agencies.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if !a.IsActive {
		return nil, domain.ErrNotFound
	}
	return publicView(a), nil
}

func (uc *agencyUC) ListPublic(ctx context.Context, search string, page, limit int) (*AgencyPage, error) {
	defer logging.TraceDuration(uc.log, "AgencyUseCase.ListPublic")()

	page, limit = normalizePage(page, limit)
	items, total, err := uc.agencies.ListPublic(ctx, repository.NoTX, repository.AgencyQuery{
		Search: search,
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]*PublicAgency, 0, len(items))
	for _, a := range items {
		out = append(out, publicView(a))
	}
	return &AgencyPage{
		Agencies: out,
		Page:     page,
		Limit:    limit,
		Total:    total,
		Pages:    (total + limit - 1) / limit,
	}, nil
}

func (uc *agencyUC) DashboardStats(ctx context.Context, ownerID string) (*DashboardStats, error) {
	defer logging.TraceDuration(uc.log, "AgencyUseCase.DashboardStats")()

	a, err := uc.agencies.FindByOwner(ctx, repository.NoTX, ownerID)
	if err != nil {
		return nil, err
	}
	items, _, err := uc.listings.Search(ctx, repository.NoTX, model.ListingFilter{AgencyID: a.ID})
	if err != nil {
		return nil, err
	}

	usage := quota.For(a).Usage()
	st := &DashboardStats{
		TotalProperties:     a.ListingCount(),
		StorageUsed:         usage.StorageUsedBytes,
		StorageLimit:        usage.StorageLimitBytes,
		StorageUsedPercent:  usage.StoragePercent(),
		ListingCount:        usage.ListingCount,
		ListingLimit:        usage.ListingLimit,
		ListingUsedPercent:  usage.ListingPercent(),
		SubscriptionValid:   a.Subscription.IsValidAt(uc.now()),
		SubscriptionEndDate: a.Subscription.EndDate,
	}
	for _, l := range items {
		st.TotalViews += l.Views
		switch l.Availability {
		case model.AvailabilityAvailable:
			st.AvailableProperties++
		case model.AvailabilitySold:
			st.SoldProperties++
		}
	}
	return st, nil
}
