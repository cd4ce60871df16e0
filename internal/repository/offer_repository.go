package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/iliyamo/travel-booking-admin/internal/model"
)

// OfferRepo provides persistence for offers.  selected_packages is stored as
// a JSON array of package ids.
type OfferRepo struct{ db *sql.DB }

func NewOfferRepo(db *sql.DB) *OfferRepo { return &OfferRepo{db: db} }

// OfferFilter narrows List.
type OfferFilter struct {
	ActiveOnly   bool
	HomepageOnly bool
	CreatedBy    string
	ActivityID   uint64
}

const offerColumns = `id, title, image, discount, discount_percentage, active, selected_for_homepage, created_by,
       activity_id, activity_title, start_date, end_date, COALESCE(selected_packages, ''), COALESCE(description, ''),
       created_at`

// Create inserts o and fills its id and created_at.
func (r *OfferRepo) Create(ctx context.Context, o *model.Offer) error {
	pkgs, err := encodePackageIDs(o.SelectedPackages)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO offers (title, image, discount, discount_percentage, active, selected_for_homepage, created_by,
		                     activity_id, activity_title, start_date, end_date, selected_packages, description)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.Title, o.Image, o.Discount, o.DiscountPercentage, o.Active, o.SelectedForHomepage, o.CreatedBy,
		o.ActivityID, o.ActivityTitle, nullTime(o.StartDate), nullTime(o.EndDate), pkgs, o.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.Get(ctx, uint64(id))
	if err != nil {
		return err
	}
	*o = created
	return nil
}

// Update overwrites every editable column of o.
func (r *OfferRepo) Update(ctx context.Context, o *model.Offer) error {
	pkgs, err := encodePackageIDs(o.SelectedPackages)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE offers SET title=?, image=?, discount=?, discount_percentage=?, active=?, selected_for_homepage=?,
		        created_by=?, activity_id=?, activity_title=?, start_date=?, end_date=?, selected_packages=?, description=?
		 WHERE id=?`,
		o.Title, o.Image, o.Discount, o.DiscountPercentage, o.Active, o.SelectedForHomepage,
		o.CreatedBy, o.ActivityID, o.ActivityTitle, nullTime(o.StartDate), nullTime(o.EndDate), pkgs, o.Description, o.ID)
	if err != nil {
		return err
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	updated, err := r.Get(ctx, o.ID)
	if err != nil {
		return err
	}
	*o = updated
	return nil
}

// SetHomepage sets the homepage flag.
func (r *OfferRepo) SetHomepage(ctx context.Context, id uint64, selected bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE offers SET selected_for_homepage=? WHERE id=?", selected, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Get returns an offer by id, or ErrNotFound.
func (r *OfferRepo) Get(ctx context.Context, id uint64) (model.Offer, error) {
	o, err := scanOffer(r.db.QueryRowContext(ctx, "SELECT "+offerColumns+" FROM offers WHERE id=?", id))
	if err != nil {
		return model.Offer{}, notFound(err)
	}
	return o, nil
}

// List returns offers matching f, newest first.
func (r *OfferRepo) List(ctx context.Context, f OfferFilter) ([]model.Offer, error) {
	where := []string{}
	args := []any{}
	if f.ActiveOnly {
		where = append(where, "active = 1")
	}
	if f.HomepageOnly {
		where = append(where, "selected_for_homepage = 1")
	}
	if f.CreatedBy != "" {
		where = append(where, "created_by = ?")
		args = append(args, f.CreatedBy)
	}
	if f.ActivityID != 0 {
		where = append(where, "activity_id = ?")
		args = append(args, f.ActivityID)
	}
	q := "SELECT " + offerColumns + " FROM offers"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Offer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Count returns offers created by createdBy (all offers when empty),
// optionally only those selected for the homepage.
func (r *OfferRepo) Count(ctx context.Context, createdBy string, homepageOnly bool) (int64, error) {
	where := []string{}
	args := []any{}
	if createdBy != "" {
		where = append(where, "created_by = ?")
		args = append(args, createdBy)
	}
	if homepageOnly {
		where = append(where, "selected_for_homepage = 1")
	}
	q := "SELECT COUNT(*) FROM offers"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	var n int64
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

// Delete removes one offer.
func (r *OfferRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM offers WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeleteAll removes every offer.
func (r *OfferRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM offers")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanOffer(s rowScanner) (model.Offer, error) {
	var (
		o          model.Offer
		start, end sql.NullTime
		pkgs       string
	)
	err := s.Scan(&o.ID, &o.Title, &o.Image, &o.Discount, &o.DiscountPercentage, &o.Active, &o.SelectedForHomepage,
		&o.CreatedBy, &o.ActivityID, &o.ActivityTitle, &start, &end, &pkgs, &o.Description, &o.CreatedAt)
	if err != nil {
		return model.Offer{}, err
	}
	if start.Valid {
		o.StartDate = &start.Time
	}
	if end.Valid {
		o.EndDate = &end.Time
	}
	o.SelectedPackages = []uint64{}
	if strings.TrimSpace(pkgs) != "" {
		if err := json.Unmarshal([]byte(pkgs), &o.SelectedPackages); err != nil {
			return model.Offer{}, err
		}
	}
	return o, nil
}

func encodePackageIDs(ids []uint64) (string, error) {
	if len(ids) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(ids)
	return string(b), err
}
