package memory

import (
	"context"
	"sort"

	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/domain/model"
	"realty-marketplace/internal/domain/ports/repository"
)

var _ repository.PlanRepository = (*PlanRepo)(nil)

type PlanRepo struct {
	s *Store
}

func NewPlanRepo(s *Store) *PlanRepo { return &PlanRepo{s: s} }

func clonePlan(p *model.Plan) *model.Plan {
	c := *p
	c.Features = append([]string(nil), p.Features...)
	return &c
}

func (r *PlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.Plan) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, existed := r.s.plans[p.Tier]
	r.s.plans[p.Tier] = clonePlan(p)
	tier := p.Tier
	t.record(func() {
		if existed {
			r.s.plans[tier] = prev
		} else {
			delete(r.s.plans, tier)
		}
	})
	return nil
}

func (r *PlanRepo) FindByTier(ctx context.Context, tx repository.Tx, tier model.PlanTier) (*model.Plan, error) {
	if _, err := asTx(tx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.plans[tier]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clonePlan(p), nil
}

// ListAll returns every plan ordered by monthly price.
func (r *PlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	if _, err := asTx(tx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	out := make([]*model.Plan, 0, len(r.s.plans))
	for _, p := range r.s.plans {
		out = append(out, clonePlan(p))
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].PriceMonthly < out[j].PriceMonthly })
	return out, nil
}
