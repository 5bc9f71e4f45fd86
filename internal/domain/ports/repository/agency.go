package repository

import (
	"context"
	"time"

	"realty-marketplace/internal/domain/model"
)

type AgencyQuery struct {
	Search string
	Offset int
	Limit  int
}

type AgencyTotals struct {
	Agencies           int
	ValidSubscriptions int
	StorageUsedBytes   int64
}

// AgencyRepository persists tenants. Profile, subscription and ledger columns
// are written by separate methods so that no caller can overwrite the ledger
// by saving a stale agency.
type AgencyRepository interface {
	Create(ctx context.Context, tx Tx, a *model.Agency) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Agency, error)
	FindByOwner(ctx context.Context, tx Tx, ownerID string) (*model.Agency, error)

	SaveProfile(ctx context.Context, tx Tx, a *model.Agency) error
	SaveSubscription(ctx context.Context, tx Tx, agencyID string, sub model.Subscription) error
	SaveLedger(ctx context.Context, tx Tx, agencyID string, storageUsedBytes int64, listingIDs []string) error

	ListPublic(ctx context.Context, tx Tx, q AgencyQuery) ([]*model.Agency, int, error)
	ListExpiringBetween(ctx context.Context, tx Tx, from, to time.Time) ([]*model.Agency, error)
	Totals(ctx context.Context, tx Tx, now time.Time) (AgencyTotals, error)
}
