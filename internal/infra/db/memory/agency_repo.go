package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/domain/model"
	"realty-marketplace/internal/domain/ports/repository"
)

var _ repository.AgencyRepository = (*AgencyRepo)(nil)

type AgencyRepo struct {
	s *Store
}

func NewAgencyRepo(s *Store) *AgencyRepo { return &AgencyRepo{s: s} }

func (r *AgencyRepo) Create(ctx context.Context, tx repository.Tx, a *model.Agency) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.agencies[a.ID]; ok {
		return domain.ErrAlreadyExists
	}
	if _, ok := r.s.owners[a.OwnerID]; ok {
		return domain.ErrAlreadyExists
	}
	r.s.agencies[a.ID] = a.Clone()
	r.s.owners[a.OwnerID] = a.ID
	id, owner := a.ID, a.OwnerID
	t.record(func() {
		delete(r.s.agencies, id)
		delete(r.s.owners, owner)
	})
	return nil
}

func (r *AgencyRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Agency, error) {
	if _, err := asTx(tx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.agencies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a.Clone(), nil
}

func (r *AgencyRepo) FindByOwner(ctx context.Context, tx repository.Tx, ownerID string) (*model.Agency, error) {
	if _, err := asTx(tx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.owners[ownerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.s.agencies[id].Clone(), nil
}

// update applies fn to the stored agency and journals the previous version.
func (r *AgencyRepo) update(tx repository.Tx, id string, fn func(a *model.Agency)) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.agencies[id]
	if !ok {
		return domain.ErrNotFound
	}
	prev := cur.Clone()
	next := cur.Clone()
	fn(next)
	next.UpdatedAt = time.Now()
	r.s.agencies[id] = next
	t.record(func() { r.s.agencies[id] = prev })
	return nil
}

func (r *AgencyRepo) SaveProfile(ctx context.Context, tx repository.Tx, a *model.Agency) error {
	return r.update(tx, a.ID, func(cur *model.Agency) {
		cur.Name = a.Name
		cur.Description = a.Description
		cur.Email = a.Email
		cur.Phone = a.Phone
		cur.Address = a.Address
		cur.Logo = a.Logo
		cur.Website = a.Website
		cur.SocialLinks = a.SocialLinks
		cur.IsActive = a.IsActive
		cur.IsVerified = a.IsVerified
	})
}

func (r *AgencyRepo) SaveSubscription(ctx context.Context, tx repository.Tx, agencyID string, sub model.Subscription) error {
	return r.update(tx, agencyID, func(cur *model.Agency) {
		if sub.EndDate != nil {
			end := *sub.EndDate
			sub.EndDate = &end
		}
		cur.Subscription = sub
	})
}

func (r *AgencyRepo) SaveLedger(ctx context.Context, tx repository.Tx, agencyID string, storageUsedBytes int64, listingIDs []string) error {
	if storageUsedBytes < 0 {
		return domain.ErrInvalidArgument
	}
	return r.update(tx, agencyID, func(cur *model.Agency) {
		cur.StorageUsedBytes = storageUsedBytes
		cur.ListingIDs = append([]string{}, listingIDs...)
	})
}

func (r *AgencyRepo) ListPublic(ctx context.Context, tx repository.Tx, q repository.AgencyQuery) ([]*model.Agency, int, error) {
	if _, err := asTx(tx); err != nil {
		return nil, 0, err
	}
	r.s.mu.RLock()
	var matched []*model.Agency
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	for _, a := range r.s.agencies {
		if !a.IsActive || !a.IsVerified {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(a.Name), needle) &&
			!strings.Contains(strings.ToLower(a.Address.City), needle) {
			continue
		}
		matched = append(matched, a.Clone())
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return page(matched, q.Offset, q.Limit), len(matched), nil
}

func (r *AgencyRepo) ListExpiringBetween(ctx context.Context, tx repository.Tx, from, to time.Time) ([]*model.Agency, error) {
	if _, err := asTx(tx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.Agency
	for _, a := range r.s.agencies {
		end := a.Subscription.EndDate
		if end == nil || end.Before(from) || !end.Before(to) {
			continue
		}
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subscription.EndDate.Before(*out[j].Subscription.EndDate) })
	return out, nil
}

func (r *AgencyRepo) Totals(ctx context.Context, tx repository.Tx, now time.Time) (repository.AgencyTotals, error) {
	if _, err := asTx(tx); err != nil {
		return repository.AgencyTotals{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var t repository.AgencyTotals
	for _, a := range r.s.agencies {
		t.Agencies++
		if a.Subscription.IsValidAt(now) {
			t.ValidSubscriptions++
		}
		t.StorageUsedBytes += a.StorageUsedBytes
	}
	return t, nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
