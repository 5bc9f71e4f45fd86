package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/domain/model"
	"realty-marketplace/internal/domain/ports/repository"
)

var _ repository.AgencyRepository = (*PostgresAgencyRepo)(nil)

type PostgresAgencyRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresAgencyRepo(pool *pgxpool.Pool) *PostgresAgencyRepo {
	return &PostgresAgencyRepo{pool: pool}
}

const agencyColumns = `
id, owner_id, name, description, email, phone, address, logo, website, social_links,
plan_tier, billing_cycle, start_date, end_date, storage_limit_bytes, listing_limit,
storage_used_bytes, listing_ids, is_active, is_verified, created_at, updated_at`

func (r *PostgresAgencyRepo) Create(ctx context.Context, tx repository.Tx, a *model.Agency) error {
	const q = `
INSERT INTO agencies (` + agencyColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22);`

	address, err := json.Marshal(a.Address)
	if err != nil {
		return err
	}
	social, err := json.Marshal(a.SocialLinks)
	if err != nil {
		return err
	}
	ids := a.ListingIDs
	if ids == nil {
		ids = []string{}
	}
	s := a.Subscription
	_, err = execSQL(ctx, r.pool, tx, q,
		a.ID, a.OwnerID, a.Name, a.Description, a.Email, a.Phone, address, a.Logo, a.Website, social,
		s.PlanTier, s.BillingCycle, s.StartDate, s.EndDate, s.StorageLimitBytes, s.ListingLimit,
		a.StorageUsedBytes, ids, a.IsActive, a.IsVerified, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create agency: %w", err)
	}
	return nil
}

func (r *PostgresAgencyRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Agency, error) {
	q := `SELECT ` + agencyColumns + ` FROM agencies WHERE id = $1`
	if tx != nil {
		q += ` FOR UPDATE`
	}
	return r.queryOne(ctx, tx, q, id)
}

func (r *PostgresAgencyRepo) FindByOwner(ctx context.Context, tx repository.Tx, ownerID string) (*model.Agency, error) {
	q := `SELECT ` + agencyColumns + ` FROM agencies WHERE owner_id = $1`
	return r.queryOne(ctx, tx, q, ownerID)
}

func (r *PostgresAgencyRepo) SaveProfile(ctx context.Context, tx repository.Tx, a *model.Agency) error {
	const q = `
UPDATE agencies
   SET name=$2, description=$3, phone=$4, address=$5, logo=$6, website=$7, social_links=$8,
       is_active=$9, is_verified=$10, updated_at=NOW()
 WHERE id=$1;`
	address, err := json.Marshal(a.Address)
	if err != nil {
		return err
	}
	social, err := json.Marshal(a.SocialLinks)
	if err != nil {
		return err
	}
	ct, err := execSQL(ctx, r.pool, tx, q, a.ID, a.Name, a.Description, a.Phone, address, a.Logo, a.Website, social, a.IsActive, a.IsVerified)
	if err != nil {
		return fmt.Errorf("save agency profile: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresAgencyRepo) SaveSubscription(ctx context.Context, tx repository.Tx, agencyID string, sub model.Subscription) error {
	const q = `
UPDATE agencies
   SET plan_tier=$2, billing_cycle=$3, start_date=$4, end_date=$5,
       storage_limit_bytes=$6, listing_limit=$7, updated_at=NOW()
 WHERE id=$1;`
	ct, err := execSQL(ctx, r.pool, tx, q, agencyID, sub.PlanTier, sub.BillingCycle, sub.StartDate, sub.EndDate, sub.StorageLimitBytes, sub.ListingLimit)
	if err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresAgencyRepo) SaveLedger(ctx context.Context, tx repository.Tx, agencyID string, storageUsedBytes int64, listingIDs []string) error {
	if storageUsedBytes < 0 {
		return domain.ErrInvalidArgument
	}
	if listingIDs == nil {
		listingIDs = []string{}
	}
	const q = `
UPDATE agencies
   SET storage_used_bytes=$2, listing_ids=$3, updated_at=NOW()
 WHERE id=$1;`
	ct, err := execSQL(ctx, r.pool, tx, q, agencyID, storageUsedBytes, listingIDs)
	if err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresAgencyRepo) ListPublic(ctx context.Context, tx repository.Tx, q repository.AgencyQuery) ([]*model.Agency, int, error) {
	where := `is_active AND is_verified`
	args := []interface{}{}
	if q.Search != "" {
		args = append(args, "%"+likeEscape(q.Search)+"%")
		where += ` AND (name ILIKE $1 OR address->>'city' ILIKE $1)`
	}

	var total int
	row, err := queryRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM agencies WHERE `+where, args...)
	if err != nil {
		return nil, 0, err
	}
	if err := row.Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count agencies: %w", err)
	}

	sql := `SELECT ` + agencyColumns + ` FROM agencies WHERE ` + where + ` ORDER BY created_at DESC, id`
	sql, args = paginate(sql, args, q.Offset, q.Limit)
	out, err := r.queryMany(ctx, tx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *PostgresAgencyRepo) ListExpiringBetween(ctx context.Context, tx repository.Tx, from, to time.Time) ([]*model.Agency, error) {
	q := `SELECT ` + agencyColumns + `
  FROM agencies
 WHERE end_date >= $1 AND end_date < $2
 ORDER BY end_date ASC`
	return r.queryMany(ctx, tx, q, from, to)
}

func (r *PostgresAgencyRepo) Totals(ctx context.Context, tx repository.Tx, now time.Time) (repository.AgencyTotals, error) {
	const q = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE end_date > $1),
       COALESCE(SUM(storage_used_bytes), 0)
  FROM agencies;`
	var t repository.AgencyTotals
	row, err := queryRow(ctx, r.pool, tx, q, now)
	if err != nil {
		return t, err
	}
	if err := row.Scan(&t.Agencies, &t.ValidSubscriptions, &t.StorageUsedBytes); err != nil {
		return t, fmt.Errorf("agency totals: %w", err)
	}
	return t, nil
}

func (r *PostgresAgencyRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.Agency, error) {
	row, err := queryRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	a, err := scanAgency(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return a, nil
}

func (r *PostgresAgencyRepo) queryMany(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Agency, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.Agency{}
	for rows.Next() {
		a, err := scanAgency(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAgency(row pgx.Row) (*model.Agency, error) {
	var (
		a       model.Agency
		address []byte
		social  []byte
	)
	s := &a.Subscription
	err := row.Scan(
		&a.ID, &a.OwnerID, &a.Name, &a.Description, &a.Email, &a.Phone, &address, &a.Logo, &a.Website, &social,
		&s.PlanTier, &s.BillingCycle, &s.StartDate, &s.EndDate, &s.StorageLimitBytes, &s.ListingLimit,
		&a.StorageUsedBytes, &a.ListingIDs, &a.IsActive, &a.IsVerified, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(address, &a.Address); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(social, &a.SocialLinks); err != nil {
		return nil, err
	}
	if a.ListingIDs == nil {
		a.ListingIDs = []string{}
	}
	return &a, nil
}
