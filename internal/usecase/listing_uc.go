// File: internal/usecase/listing_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
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
var _ ListingUseCase = (*listingUC)(nil)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// ListingUseCase owns the listing lifecycle. Every mutation runs under the
// agency's lock and inside one store transaction, so the listing record and
// the agency's quota ledger change together or not at all.
type ListingUseCase interface {
	Create(ctx context.Context, ownerID string, draft ListingDraft, files []model.UploadedFile) (*model.Listing, error)
	Update(ctx context.Context, ownerID, listingID string, patch ListingPatch, files []model.UploadedFile) (*model.Listing, error)
	Delete(ctx context.Context, ownerID, listingID string) error

	Get(ctx context.Context, id string) (*model.Listing, error)
	Browse(ctx context.Context, q BrowseQuery) (*ListingPage, error)
	ListMine(ctx context.Context, ownerID string) ([]*model.Listing, error)
}

// BrowseQuery is the public search. Page is 1-based.
type BrowseQuery struct {
	Filter model.ListingFilter
	Page   int
	Limit  int
}

type ListingPage struct {
	Listings []*model.Listing `json:"properties"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
	Total    int              `json:"total"`
	Pages    int              `json:"pages"`
}

type listingUC struct {
	tm       repository.TransactionManager
	agencies repository.AgencyRepository
	listings repository.ListingRepository
	storage  adapter.ImageStorage
	locker   adapter.TenantLocker
	log      *zerolog.Logger
	now      func() time.Time
}

func NewListingUseCase(
	tm repository.TransactionManager,
	agencies repository.AgencyRepository,
	listings repository.ListingRepository,
	storage adapter.ImageStorage,
	locker adapter.TenantLocker,
	logger *zerolog.Logger,
) *listingUC {
	l := logger.With().Str("component", "ListingUseCase").Logger()
	return &listingUC{
		tm:       tm,
		agencies: agencies,
		listings: listings,
		storage:  storage,
		locker:   locker,
		log:      &l,
		now:      time.Now,
	}
}

var txOpts = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

func (uc *listingUC) Create(ctx context.Context, ownerID string, draft ListingDraft, files []model.UploadedFile) (*model.Listing, error) {
	defer logging.TraceDuration(uc.log, "ListingUseCase.Create")()

	var created *model.Listing
	err := uc.withTenant(ctx, ownerID, nil, func(ctx context.Context, tx repository.Tx, a *model.Agency) error {
		if !a.Subscription.IsValidAt(uc.now()) {
			return domain.ErrSubscriptionExpired
		}
		ledger := quota.For(a)
		if err := ledger.CheckListing(); err != nil {
			return err
		}
		images, total, err := uc.describe(ctx, files)
		if err != nil {
			return err
		}
		if err := ledger.CheckStorage(total); err != nil {
			return err
		}

		l, err := draft.toListing()
		if err != nil {
			return err
		}
		now := uc.now()
		l.ID = uuid.NewString()
		l.AgencyID = a.ID
		l.BrokerID = ownerID
		l.Images = images
		l.CreatedAt = now
		l.UpdatedAt = now
		if err := l.Validate(); err != nil {
			return err
		}
		if err := uc.listings.Create(ctx, tx, l); err != nil {
			return err
		}

		ledger.Attach(l.ID)
		ledger.Reserve(total)
		if err := uc.agencies.SaveLedger(ctx, tx, a.ID, a.StorageUsedBytes, a.ListingIDs); err != nil {
			return err
		}
		created = l
		return nil
	})
	if err != nil {
		uc.discard(ctx, files)
		uc.countFailure("create", err)
		return nil, err
	}

	metrics.IncListingOperation("create", "ok")
	metrics.AddBytesReserved(created.TotalImageSize())
	logging.With(ctx, uc.log).Info().
		Str("listing_id", created.ID).
		Str("agency_id", created.AgencyID).
		Int("images", len(created.Images)).
		Int64("bytes", created.TotalImageSize()).
		Msg("listing created")
	return created, nil
}

func (uc *listingUC) Update(ctx context.Context, ownerID, listingID string, patch ListingPatch, files []model.UploadedFile) (*model.Listing, error) {
	defer logging.TraceDuration(uc.log, "ListingUseCase.Update")()

	if _, err := uc.listings.FindByID(ctx, repository.NoTX, listingID); err != nil {
		uc.discard(ctx, files)
		return nil, err
	}

	var updated *model.Listing
	var added int64
	err := uc.withTenant(ctx, ownerID, domain.ErrForbidden, func(ctx context.Context, tx repository.Tx, a *model.Agency) error {
		l, err := uc.listings.FindByID(ctx, tx, listingID)
		if err != nil {
			return err
		}
		if l.AgencyID != a.ID {
			return domain.ErrForbidden
		}
		if err := patch.applyTo(l); err != nil {
			return err
		}
		if err := l.Validate(); err != nil {
			return err
		}

		if len(files) > 0 {
			images, total, err := uc.describe(ctx, files)
			if err != nil {
				return err
			}
			ledger := quota.For(a)
			if err := ledger.CheckStorage(total); err != nil {
				return err
			}
			l.Images = append(l.Images, images...)
			ledger.Reserve(total)
			if err := uc.agencies.SaveLedger(ctx, tx, a.ID, a.StorageUsedBytes, a.ListingIDs); err != nil {
				return err
			}
			added = total
		}

		l.UpdatedAt = uc.now()
		if err := uc.listings.Update(ctx, tx, l); err != nil {
			return err
		}
		updated = l
		return nil
	})
	if err != nil {
		uc.discard(ctx, files)
		uc.countFailure("update", err)
		return nil, err
	}

	metrics.IncListingOperation("update", "ok")
	metrics.AddBytesReserved(added)
	logging.With(ctx, uc.log).Info().
		Str("listing_id", updated.ID).
		Int64("bytes_added", added).
		Msg("listing updated")
	return updated, nil
}

func (uc *listingUC) Delete(ctx context.Context, ownerID, listingID string) error {
	defer logging.TraceDuration(uc.log, "ListingUseCase.Delete")()

	if _, err := uc.listings.FindByID(ctx, repository.NoTX, listingID); err != nil {
		return err
	}

	var removed *model.Listing
	err := uc.withTenant(ctx, ownerID, domain.ErrForbidden, func(ctx context.Context, tx repository.Tx, a *model.Agency) error {
		l, err := uc.listings.FindByID(ctx, tx, listingID)
		if err != nil {
			return err
		}
		if l.AgencyID != a.ID {
			return domain.ErrForbidden
		}
		if err := uc.listings.Delete(ctx, tx, l.ID); err != nil {
			return err
		}
		ledger := quota.For(a)
		ledger.Detach(l.ID)
		ledger.Release(l.TotalImageSize())
		if err := uc.agencies.SaveLedger(ctx, tx, a.ID, a.StorageUsedBytes, a.ListingIDs); err != nil {
			return err
		}
		removed = l
		return nil
	})
	if err != nil {
		uc.countFailure("delete", err)
		return err
	}

	// Files are removed only after commit.
	for _, img := range removed.Images {
		uc.removeFile(ctx, img.StorageKey, removed.ID)
	}

	metrics.IncListingOperation("delete", "ok")
	metrics.AddBytesReleased(removed.TotalImageSize())
	logging.With(ctx, uc.log).Info().
		Str("listing_id", removed.ID).
		Int64("bytes_released", removed.TotalImageSize()).
		Msg("listing deleted")
	return nil
}

func (uc *listingUC) Get(ctx context.Context, id string) (*model.Listing, error) {
	defer logging.TraceDuration(uc.log, "ListingUseCase.Get")()

	l, err := uc.listings.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if err := uc.listings.IncrementViews(ctx, repository.NoTX, id); err != nil {
		return nil, err
	}
	l.Views++
	return l, nil
}

func (uc *listingUC) Browse(ctx context.Context, q BrowseQuery) (*ListingPage, error) {
	defer logging.TraceDuration(uc.log, "ListingUseCase.Browse")()

	page, limit := normalizePage(q.Page, q.Limit)
	f := q.Filter
	f.ActiveOnly = true
	switch f.SortBy {
	case model.SortCreatedAt, model.SortPrice, model.SortViews:
	case "":
		f.SortBy = model.SortCreatedAt
		f.SortDesc = true
	default:
		return nil, fmt.Errorf("%w: sort by %q", domain.ErrInvalidArgument, f.SortBy)
	}
	f.Offset = (page - 1) * limit
	f.Limit = limit

	items, total, err := uc.listings.Search(ctx, repository.NoTX, f)
	if err != nil {
		return nil, err
	}
	return &ListingPage{
		Listings: items,
		Page:     page,
		Limit:    limit,
		Total:    total,
		Pages:    (total + limit - 1) / limit,
	}, nil
}

func (uc *listingUC) ListMine(ctx context.Context, ownerID string) ([]*model.Listing, error) {
	defer logging.TraceDuration(uc.log, "ListingUseCase.ListMine")()

	a, err := uc.agencies.FindByOwner(ctx, repository.NoTX, ownerID)
	if err != nil {
		return nil, err
	}
	items, _, err := uc.listings.Search(ctx, repository.NoTX, model.ListingFilter{
		AgencyID: a.ID,
		SortBy:   model.SortCreatedAt,
		SortDesc: true,
	})
	return items, err
}

// withTenant resolves the owner's agency, takes its lock and runs fn in a
// transaction with a fresh copy of the agency. When the owner has no agency
// and noAgency is set, noAgency is returned instead of ErrNotFound.
func (uc *listingUC) withTenant(ctx context.Context, ownerID string, noAgency error, fn func(ctx context.Context, tx repository.Tx, a *model.Agency) error) error {
	a, err := uc.agencies.FindByOwner(ctx, repository.NoTX, ownerID)
	if err != nil {
		if noAgency != nil && errors.Is(err, domain.ErrNotFound) {
			return noAgency
		}
		return err
	}
	ctx = logging.WithAgencyID(ctx, a.ID)

	unlock, err := uc.locker.Lock(ctx, a.ID)
	if err != nil {
		return err
	}
	defer unlock()

	return uc.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		fresh, err := uc.agencies.FindByID(ctx, tx, a.ID)
		if err != nil {
			return err
		}
		return fn(ctx, tx, fresh)
	})
}

// describe stats every uploaded file and returns the image records and their
// total stored size.
func (uc *listingUC) describe(ctx context.Context, files []model.UploadedFile) ([]model.Image, int64, error) {
	images := make([]model.Image, 0, len(files))
	var total int64
	for _, f := range files {
		size, err := uc.storage.Stat(ctx, f.Path)
		if err != nil {
			return nil, 0, fmt.Errorf("stat upload %s: %w", f.Path, err)
		}
		total += size
		images = append(images, model.Image{
			URL:        uc.storage.URL(f.Path),
			SizeBytes:  size,
			StorageKey: f.Path,
		})
	}
	return images, total, nil
}

// discard deletes the files of a failed request. It must run even when ctx
// was cancelled.
func (uc *listingUC) discard(ctx context.Context, files []model.UploadedFile) {
	for _, f := range files {
		uc.removeFile(ctx, f.Path, "")
	}
}

func (uc *listingUC) removeFile(ctx context.Context, key, listingID string) {
	if key == "" {
		return
	}
	if err := uc.storage.Delete(context.WithoutCancel(ctx), key); err != nil {
		metrics.IncCleanupFailure()
		logging.With(ctx, uc.log).Warn().
			Err(fmt.Errorf("%w: %v", domain.ErrPartialCleanup, err)).
			Str("key", key).
			Str("listing_id", listingID).
			Msg("image file not removed")
	}
}

func (uc *listingUC) countFailure(op string, err error) {
	switch {
	case errors.Is(err, domain.ErrSubscriptionExpired):
		metrics.IncQuotaRejection("subscription_expired")
	case errors.Is(err, domain.ErrListingLimitReached):
		metrics.IncQuotaRejection("listing_limit")
	case errors.Is(err, domain.ErrStorageLimitExceeded):
		metrics.IncQuotaRejection("storage_limit")
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrMalformedInput):
	default:
		metrics.IncListingOperation(op, "error")
		uc.log.Error().Err(err).Str("op", op).Msg("listing mutation failed")
		return
	}
	metrics.IncListingOperation(op, "rejected")
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}
