package memory

import (
	"context"
	"sort"
	"time"

	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/domain/model"
	"realty-marketplace/internal/domain/ports/repository"
)

var _ repository.ListingRepository = (*ListingRepo)(nil)

type ListingRepo struct {
	s *Store
}

func NewListingRepo(s *Store) *ListingRepo { return &ListingRepo{s: s} }

func (r *ListingRepo) Create(ctx context.Context, tx repository.Tx, l *model.Listing) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.listings[l.ID]; ok {
		return domain.ErrAlreadyExists
	}
	r.s.listings[l.ID] = l.Clone()
	id := l.ID
	t.record(func() { delete(r.s.listings, id) })
	return nil
}

func (r *ListingRepo) Update(ctx context.Context, tx repository.Tx, l *model.Listing) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.listings[l.ID]
	if !ok {
		return domain.ErrNotFound
	}
	r.s.listings[l.ID] = l.Clone()
	id := l.ID
	t.record(func() { r.s.listings[id] = prev })
	return nil
}

func (r *ListingRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.listings[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.s.listings, id)
	t.record(func() { r.s.listings[id] = prev })
	return nil
}

func (r *ListingRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Listing, error) {
	if _, err := asTx(tx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.listings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return l.Clone(), nil
}

func (r *ListingRepo) Search(ctx context.Context, tx repository.Tx, f model.ListingFilter) ([]*model.Listing, int, error) {
	if _, err := asTx(tx); err != nil {
		return nil, 0, err
	}
	r.s.mu.RLock()
	var matched []*model.Listing
	for _, l := range r.s.listings {
		if f.Matches(l) {
			matched = append(matched, l.Clone())
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, less(matched, f.SortBy, f.SortDesc))
	return page(matched, f.Offset, f.Limit), len(matched), nil
}

func less(ls []*model.Listing, by model.SortField, desc bool) func(i, j int) bool {
	return func(i, j int) bool {
		a, b := ls[i], ls[j]
		var c int
		switch by {
		case model.SortPrice:
			c = cmp(a.Price, b.Price)
		case model.SortViews:
			c = cmp(int64(a.Views), int64(b.Views))
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if c == 0 {
			return a.ID < b.ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	}
}

func cmp(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (r *ListingRepo) IncrementViews(ctx context.Context, tx repository.Tx, id string) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.listings[id]
	if !ok {
		return domain.ErrNotFound
	}
	prev := l
	next := l.Clone()
	next.Views++
	next.UpdatedAt = time.Now()
	r.s.listings[id] = next
	t.record(func() { r.s.listings[id] = prev })
	return nil
}
