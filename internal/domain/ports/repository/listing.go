package repository

import (
	"context"

	"realty-marketplace/internal/domain/model"
)

type ListingRepository interface {
	Create(ctx context.Context, tx Tx, l *model.Listing) error
	Update(ctx context.Context, tx Tx, l *model.Listing) error
	Delete(ctx context.Context, tx Tx, id string) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Listing, error)
	// Search returns one page of matches and the total match count.
	Search(ctx context.Context, tx Tx, f model.ListingFilter) ([]*model.Listing, int, error)
	IncrementViews(ctx context.Context, tx Tx, id string) error
}
