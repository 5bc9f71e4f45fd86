package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/domain/model"
	"realty-marketplace/internal/domain/ports/repository"
)

var _ repository.ListingRepository = (*PostgresListingRepo)(nil)

type PostgresListingRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresListingRepo(pool *pgxpool.Pool) *PostgresListingRepo {
	return &PostgresListingRepo{pool: pool}
}

const listingColumns = `
id, agency_id, broker_id, title, description, price, property_type, location, google_maps_link,
images, bedrooms, bathrooms, area, furnished, availability, listing_type, features,
contact_details, social_links, views, is_active, is_featured, created_at, updated_at`

// listingDocs holds the JSONB encodings of a listing's nested values.
type listingDocs struct {
	location, images, area, contact, social []byte
}

func encodeListing(l *model.Listing) (listingDocs, error) {
	var (
		d   listingDocs
		err error
	)
	if d.location, err = json.Marshal(l.Location); err != nil {
		return d, err
	}
	images := l.Images
	if images == nil {
		images = []model.Image{}
	}
	if d.images, err = json.Marshal(images); err != nil {
		return d, err
	}
	if l.Area != nil {
		if d.area, err = json.Marshal(l.Area); err != nil {
			return d, err
		}
	}
	if d.contact, err = json.Marshal(l.ContactDetails); err != nil {
		return d, err
	}
	if d.social, err = json.Marshal(l.SocialLinks); err != nil {
		return d, err
	}
	return d, nil
}

func features(l *model.Listing) []string {
	if l.Features == nil {
		return []string{}
	}
	return l.Features
}

func (r *PostgresListingRepo) Create(ctx context.Context, tx repository.Tx, l *model.Listing) error {
	const q = `
INSERT INTO listings (` + listingColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24);`
	d, err := encodeListing(l)
	if err != nil {
		return err
	}
	_, err = execSQL(ctx, r.pool, tx, q,
		l.ID, l.AgencyID, l.BrokerID, l.Title, l.Description, l.Price, l.PropertyType, d.location, l.GoogleMapsLink,
		d.images, l.Bedrooms, l.Bathrooms, d.area, l.Furnished, l.Availability, l.ListingType, features(l),
		d.contact, d.social, l.Views, l.IsActive, l.IsFeatured, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create listing: %w", err)
	}
	return nil
}

// Update rewrites every mutable column. Views are left to IncrementViews.
func (r *PostgresListingRepo) Update(ctx context.Context, tx repository.Tx, l *model.Listing) error {
	const q = `
UPDATE listings
   SET title=$2, description=$3, price=$4, property_type=$5, location=$6, google_maps_link=$7,
       images=$8, bedrooms=$9, bathrooms=$10, area=$11, furnished=$12, availability=$13,
       listing_type=$14, features=$15, contact_details=$16, social_links=$17,
       is_active=$18, is_featured=$19, updated_at=$20
 WHERE id=$1;`
	d, err := encodeListing(l)
	if err != nil {
		return err
	}
	ct, err := execSQL(ctx, r.pool, tx, q,
		l.ID, l.Title, l.Description, l.Price, l.PropertyType, d.location, l.GoogleMapsLink,
		d.images, l.Bedrooms, l.Bathrooms, d.area, l.Furnished, l.Availability,
		l.ListingType, features(l), d.contact, d.social,
		l.IsActive, l.IsFeatured, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresListingRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	ct, err := execSQL(ctx, r.pool, tx, `DELETE FROM listings WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresListingRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Listing, error) {
	row, err := queryRow(ctx, r.pool, tx, `SELECT `+listingColumns+` FROM listings WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	l, err := scanListing(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return l, nil
}

var sortColumns = map[model.SortField]string{
	model.SortCreatedAt: "created_at",
	model.SortPrice:     "price",
	model.SortViews:     "views",
}

func listingWhere(f model.ListingFilter) *whereBuilder {
	w := &whereBuilder{}
	if f.ActiveOnly {
		w.add("is_active")
	}
	if f.Availability != nil {
		w.add("availability = ?", string(*f.Availability))
	}
	if f.MinPrice != nil {
		w.add("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		w.add("price <= ?", *f.MaxPrice)
	}
	if f.Bedrooms != nil {
		w.add("bedrooms = ?", *f.Bedrooms)
	}
	if f.PropertyType != nil {
		w.add("property_type = ?", string(*f.PropertyType))
	}
	if f.CityContains != "" {
		w.add("location->>'city' ILIKE ?", "%"+likeEscape(f.CityContains)+"%")
	}
	if f.Furnished != nil {
		w.add("furnished = ?", string(*f.Furnished))
	}
	if f.ListingType != nil {
		w.add("listing_type = ?", string(*f.ListingType))
	}
	if f.AgencyID != "" {
		w.add("agency_id = ?", f.AgencyID)
	}
	for _, word := range strings.Fields(f.Text) {
		w.add("(title || ' ' || description) ILIKE ?", "%"+likeEscape(word)+"%")
	}
	return w
}

func (r *PostgresListingRepo) Search(ctx context.Context, tx repository.Tx, f model.ListingFilter) ([]*model.Listing, int, error) {
	w := listingWhere(f)

	var total int
	row, err := queryRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM listings WHERE `+w.sql(), w.args...)
	if err != nil {
		return nil, 0, err
	}
	if err := row.Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}

	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	q := fmt.Sprintf(`SELECT %s FROM listings WHERE %s ORDER BY %s %s, id ASC`, listingColumns, w.sql(), col, dir)
	q, args := paginate(q, w.args, f.Offset, f.Limit)

	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search listings: %w", err)
	}
	defer rows.Close()
	out := []*model.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *PostgresListingRepo) IncrementViews(ctx context.Context, tx repository.Tx, id string) error {
	ct, err := execSQL(ctx, r.pool, tx, `UPDATE listings SET views = views + 1 WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanListing(row pgx.Row) (*model.Listing, error) {
	var (
		l                                       model.Listing
		location, images, area, contact, social []byte
	)
	err := row.Scan(
		&l.ID, &l.AgencyID, &l.BrokerID, &l.Title, &l.Description, &l.Price, &l.PropertyType, &location, &l.GoogleMapsLink,
		&images, &l.Bedrooms, &l.Bathrooms, &area, &l.Furnished, &l.Availability, &l.ListingType, &l.Features,
		&contact, &social, &l.Views, &l.IsActive, &l.IsFeatured, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(location, &l.Location); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(images, &l.Images); err != nil {
		return nil, err
	}
	if len(area) > 0 && string(area) != "null" {
		l.Area = &model.Area{}
		if err := unmarshalJSONB(area, l.Area); err != nil {
			return nil, err
		}
	}
	if err := unmarshalJSONB(contact, &l.ContactDetails); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(social, &l.SocialLinks); err != nil {
		return nil, err
	}
	if l.Images == nil {
		l.Images = []model.Image{}
	}
	if l.Features == nil {
		l.Features = []string{}
	}
	return &l, nil
}
