package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"realty-marketplace/internal/domain/model"
	"realty-marketplace/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.PlanRepository = (*PostgresPlanRepo)(nil)

type PostgresPlanRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPlanRepo(pool *pgxpool.Pool) *PostgresPlanRepo {
	return &PostgresPlanRepo{pool: pool}
}

func (r *PostgresPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	const sql = `
INSERT INTO plans (tier, display_name, description, price_monthly, price_yearly,
                   storage_limit_bytes, listing_limit, features, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (tier) DO UPDATE
  SET display_name        = EXCLUDED.display_name,
      description         = EXCLUDED.description,
      price_monthly       = EXCLUDED.price_monthly,
      price_yearly        = EXCLUDED.price_yearly,
      storage_limit_bytes = EXCLUDED.storage_limit_bytes,
      listing_limit       = EXCLUDED.listing_limit,
      features            = EXCLUDED.features,
      is_active           = EXCLUDED.is_active,
      updated_at          = EXCLUDED.updated_at;
`
	feats := plan.Features
	if feats == nil {
		feats = []string{}
	}
	_, err := execSQL(ctx, r.pool, tx, sql,
		plan.Tier, plan.DisplayName, plan.Description, plan.PriceMonthly, plan.PriceYearly,
		plan.StorageLimitBytes, plan.ListingLimit, feats, plan.IsActive, plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Save plan: %w", err)
	}
	return nil
}

const planColumns = `tier, display_name, description, price_monthly, price_yearly,
       storage_limit_bytes, listing_limit, features, is_active, created_at, updated_at`

func (r *PostgresPlanRepo) FindByTier(ctx context.Context, tx repository.Tx, tier model.PlanTier) (*model.Plan, error) {
	row, err := queryRow(ctx, r.pool, tx, `SELECT `+planColumns+` FROM plans WHERE tier = $1`, tier)
	if err != nil {
		return nil, err
	}
	p, err := scanPlan(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return p, nil
}

func (r *PostgresPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT `+planColumns+` FROM plans ORDER BY price_monthly ASC, tier ASC`)
	if err != nil {
		return nil, fmt.Errorf("ListAll plans: %w", err)
	}
	defer rows.Close()
	out := []*model.Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPlan(row pgx.Row) (*model.Plan, error) {
	var p model.Plan
	if err := row.Scan(&p.Tier, &p.DisplayName, &p.Description, &p.PriceMonthly, &p.PriceYearly,
		&p.StorageLimitBytes, &p.ListingLimit, &p.Features, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	return &p, nil
}
