package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/travel-booking-admin/internal/model"
)

// ActivityRepo encapsulates queries for activities and their packages.
// Packages are always written through their activity so the ordered list
// stays consistent; features live in package_features keyed by position.
type ActivityRepo struct {
	db *sql.DB
}

// NewActivityRepo constructs an ActivityRepo with the provided DB handle.
func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{db: db} }

// ActivityFilter narrows List.  Zero values mean "no filter"; Page and
// PageSize of zero return every row.
type ActivityFilter struct {
	ActiveOnly bool
	CreatedBy  string
	Query      string // matched against title and description
	Location   string
	Category   string
	Page       int
	PageSize   int
}

const activityColumns = `a.id, a.title, a.location, a.image, COALESCE(a.description, ''), a.category,
       a.rating, a.duration, a.active, a.created_by, a.created_at, a.updated_at`

// Create inserts the activity and its packages in one transaction and fills
// the generated ids and timestamps.
func (r *ActivityRepo) Create(ctx context.Context, a *model.Activity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO activities (title, location, image, description, category, rating, duration, active, created_by)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		a.Title, a.Location, a.Image, a.Description, a.Category, a.Rating, a.Duration, a.Active, a.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	if err := r.syncPackagesTx(ctx, tx, a); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	created, err := r.Get(ctx, a.ID)
	if err != nil {
		return err
	}
	*a = created
	return nil
}

// Update overwrites the activity's fields and reconciles its packages:
// packages whose id matches an existing one are updated in place (keeping
// their id stable for bookings and offers), new ones are inserted and the
// rest are removed.
func (r *ActivityRepo) Update(ctx context.Context, a *model.Activity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE activities SET title=?, location=?, image=?, description=?, category=?, rating=?, duration=?, active=?, created_by=?
		 WHERE id=?`,
		a.Title, a.Location, a.Image, a.Description, a.Category, a.Rating, a.Duration, a.Active, a.CreatedBy, a.ID)
	if err != nil {
		return err
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	if err := r.syncPackagesTx(ctx, tx, a); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	updated, err := r.Get(ctx, a.ID)
	if err != nil {
		return err
	}
	*a = updated
	return nil
}

func (r *ActivityRepo) syncPackagesTx(ctx context.Context, tx *sql.Tx, a *model.Activity) error {
	existing := map[uint64]bool{}
	rows, err := tx.QueryContext(ctx, "SELECT id FROM packages WHERE activity_id=?", a.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		existing[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	keep := map[uint64]bool{}
	for i := range a.Packages {
		p := &a.Packages[i]
		p.ActivityID = a.ID
		p.Position = i
		if p.ID != 0 && existing[p.ID] {
			if _, err := tx.ExecContext(ctx,
				`UPDATE packages SET position=?, name=?, description=?, price=?, foreign_adult_price=?, foreign_kid_price=?,
				        local_adult_price=?, local_kid_price=?, availability=?
				 WHERE id=? AND activity_id=?`,
				p.Position, p.Name, p.Description, p.Price, p.ForeignAdultPrice, p.ForeignKidPrice,
				p.LocalAdultPrice, p.LocalKidPrice, p.Availability, p.ID, a.ID); err != nil {
				return err
			}
		} else {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO packages (activity_id, position, name, description, price, foreign_adult_price, foreign_kid_price,
				                       local_adult_price, local_kid_price, availability)
				 VALUES (?,?,?,?,?,?,?,?,?,?)`,
				a.ID, p.Position, p.Name, p.Description, p.Price, p.ForeignAdultPrice, p.ForeignKidPrice,
				p.LocalAdultPrice, p.LocalKidPrice, p.Availability)
			if err != nil {
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			p.ID = uint64(id)
		}
		keep[p.ID] = true

		if _, err := tx.ExecContext(ctx, "DELETE FROM package_features WHERE package_id=?", p.ID); err != nil {
			return err
		}
		for pos, f := range p.Features {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO package_features (package_id, position, feature) VALUES (?,?,?)", p.ID, pos, f); err != nil {
				return err
			}
		}
	}

	for id := range existing {
		if keep[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM packages WHERE id=?", id); err != nil {
			return err
		}
	}
	return nil
}

// Get returns an activity with its packages, or ErrNotFound.
func (r *ActivityRepo) Get(ctx context.Context, id uint64) (model.Activity, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+activityColumns+" FROM activities a WHERE a.id=?", id)
	a, err := scanActivity(row)
	if err != nil {
		return model.Activity{}, notFound(err)
	}
	list := []model.Activity{a}
	if err := r.attachPackages(ctx, list); err != nil {
		return model.Activity{}, err
	}
	return list[0], nil
}

// List returns activities matching f ordered by id, plus the total count
// before paging.
func (r *ActivityRepo) List(ctx context.Context, f ActivityFilter) ([]model.Activity, int64, error) {
	where := []string{}
	args := []any{}
	if f.ActiveOnly {
		where = append(where, "a.active = 1")
	}
	if f.CreatedBy != "" {
		where = append(where, "a.created_by = ?")
		args = append(args, f.CreatedBy)
	}
	if f.Query != "" {
		where = append(where, "(LOWER(a.title) LIKE ? OR LOWER(a.description) LIKE ?)")
		like := "%" + strings.ToLower(f.Query) + "%"
		args = append(args, like, like)
	}
	if f.Location != "" {
		where = append(where, "LOWER(a.location) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Location)+"%")
	}
	if f.Category != "" {
		where = append(where, "a.category = ?")
		args = append(args, f.Category)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM activities a WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := "SELECT " + activityColumns + " FROM activities a WHERE " + cond + " ORDER BY a.id"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		q += " LIMIT ? OFFSET ?"
		args = append(args, f.PageSize, (page-1)*f.PageSize)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []model.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.attachPackages(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Delete removes an activity; packages and features cascade.
func (r *ActivityRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM activities WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeleteAll removes every activity and returns how many were deleted.
func (r *ActivityRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM activities")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Count returns the number of activities, optionally only those created by
// createdBy.
func (r *ActivityRepo) Count(ctx context.Context, createdBy string) (int64, error) {
	q, args := "SELECT COUNT(*) FROM activities", []any{}
	if createdBy != "" {
		q += " WHERE created_by=?"
		args = append(args, createdBy)
	}
	var n int64
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

// attachPackages loads packages and features for the given activities in
// two queries and assigns them in position order.
func (r *ActivityRepo) attachPackages(ctx context.Context, list []model.Activity) error {
	if len(list) == 0 {
		return nil
	}
	index := make(map[uint64]int, len(list))
	ids := make([]any, 0, len(list))
	for i := range list {
		list[i].Packages = []model.Package{}
		index[list[i].ID] = i
		ids = append(ids, list[i].ID)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, activity_id, position, name, COALESCE(description, ''), price, foreign_adult_price, foreign_kid_price,
		        local_adult_price, local_kid_price, availability
		 FROM packages WHERE activity_id IN (`+placeholders(len(ids))+`) ORDER BY activity_id, position, id`, ids...)
	if err != nil {
		return err
	}
	type loc struct{ act, pkg int }
	where := map[uint64]loc{}
	pkgIDs := []any{}
	for rows.Next() {
		var p model.Package
		if err := rows.Scan(&p.ID, &p.ActivityID, &p.Position, &p.Name, &p.Description, &p.Price,
			&p.ForeignAdultPrice, &p.ForeignKidPrice, &p.LocalAdultPrice, &p.LocalKidPrice, &p.Availability); err != nil {
			rows.Close()
			return err
		}
		p.Features = []string{}
		ai := index[p.ActivityID]
		list[ai].Packages = append(list[ai].Packages, p)
		where[p.ID] = loc{act: ai, pkg: len(list[ai].Packages) - 1}
		pkgIDs = append(pkgIDs, p.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(pkgIDs) == 0 {
		return nil
	}

	frows, err := r.db.QueryContext(ctx,
		"SELECT package_id, feature FROM package_features WHERE package_id IN ("+placeholders(len(pkgIDs))+") ORDER BY package_id, position",
		pkgIDs...)
	if err != nil {
		return err
	}
	defer frows.Close()
	for frows.Next() {
		var (
			pid     uint64
			feature string
		)
		if err := frows.Scan(&pid, &feature); err != nil {
			return err
		}
		if l, ok := where[pid]; ok {
			p := &list[l.act].Packages[l.pkg]
			p.Features = append(p.Features, feature)
		}
	}
	return frows.Err()
}

func scanActivity(s rowScanner) (model.Activity, error) {
	var a model.Activity
	err := s.Scan(&a.ID, &a.Title, &a.Location, &a.Image, &a.Description, &a.Category,
		&a.Rating, &a.Duration, &a.Active, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// placeholders returns "?,?,...,?" with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
