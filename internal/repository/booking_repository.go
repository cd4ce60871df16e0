package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/travel-booking-admin/internal/model"
)

// BookingRepo provides persistence for bookings.  activity_id and
// package_id are weak references: they are validated when a booking is
// created but not enforced by the schema, so bookings survive catalog
// edits.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CapacitySnapshot is the capacity arithmetic observed while creating a
// booking.  Capacity and Booked cover the whole activity on the date;
// Package is set when the booking names one.  Booked counts exclude the
// booking being created.
type CapacitySnapshot struct {
	Capacity int
	Booked   int
	Package  *PackageLoad
}

// PackageLoad is one package's share of a CapacitySnapshot.
type PackageLoad struct {
	ID       uint64
	Capacity int
	Booked   int
}

// Available returns the free spots, never negative.  With a package it is
// the smaller of the package's and the activity's remaining room.
func (s CapacitySnapshot) Available() int {
	n := s.Capacity - s.Booked
	if s.Package != nil {
		if p := s.Package.Capacity - s.Package.Booked; p < n {
			n = p
		}
	}
	if n > 0 {
		return n
	}
	return 0
}

// BookingFilter narrows List.  UserID limits to one customer, OwnerEmail to
// bookings whose activity was created by that owner, Status to one status.
type BookingFilter struct {
	UserID     *uint64
	OwnerEmail string
	Status     model.BookingStatus
}

const bookingColumns = `b.id, b.order_number, b.user_id, b.activity_id, b.package_id, b.package_name, b.title, b.location,
       b.image, COALESCE(b.description, ''), b.booking_date, b.booking_time, b.status, b.base_price, b.service_fee,
       b.tax, b.total_price, b.total_persons, b.people_counts, b.payment_method, b.has_discount,
       b.discount_percentage, b.offer_title, b.contact_email, b.contact_phone,
       COALESCE(b.ticket_instructions, ''), COALESCE(b.itinerary, ''), COALESCE(b.cancellation_policy, ''),
       COALESCE(b.qr_code_data, ''), b.created_at, b.updated_at`

// CreateWithinCapacity inserts b only if its persons fit.  The activity row
// is locked with SELECT ... FOR UPDATE so concurrent creations for the same
// activity serialize.  Every booking counts against the activity total (the
// sum of its package spot counts); one naming a package must also fit that
// package.  It returns ErrNotFound for an unknown activity or a package
// outside the activity and ErrCapacityExceeded when either limit would be
// passed.
func (r *BookingRepo) CreateWithinCapacity(ctx context.Context, b *model.Booking) (CapacitySnapshot, error) {
	var snap CapacitySnapshot
	counts, err := b.PeopleCounts.Encode()
	if err != nil {
		return snap, err
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return snap, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var locked uint64
	if err := tx.QueryRowContext(ctx, "SELECT id FROM activities WHERE id=? FOR UPDATE", b.ActivityID).Scan(&locked); err != nil {
		return snap, notFound(err)
	}

	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(availability), 0) FROM packages WHERE activity_id=?", b.ActivityID).Scan(&snap.Capacity); err != nil {
		return snap, err
	}
	q, args := bookedPersonsQuery(b.ActivityID, b.BookingDate, nil)
	if err := tx.QueryRowContext(ctx, q, args...).Scan(&snap.Booked); err != nil {
		return snap, err
	}

	if b.PackageID != nil {
		load := &PackageLoad{ID: *b.PackageID}
		if err := tx.QueryRowContext(ctx,
			"SELECT availability FROM packages WHERE id=? AND activity_id=?", *b.PackageID, b.ActivityID).Scan(&load.Capacity); err != nil {
			return snap, notFound(err)
		}
		q, args := bookedPersonsQuery(b.ActivityID, b.BookingDate, b.PackageID)
		if err := tx.QueryRowContext(ctx, q, args...).Scan(&load.Booked); err != nil {
			return snap, err
		}
		snap.Package = load
	}
	if b.TotalPersons > snap.Available() {
		return snap, ErrCapacityExceeded
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bookings (id, order_number, user_id, activity_id, package_id, package_name, title, location, image,
		                       description, booking_date, booking_time, status, base_price, service_fee, tax, total_price,
		                       total_persons, people_counts, payment_method, has_discount, discount_percentage, offer_title,
		                       contact_email, contact_phone, ticket_instructions, itinerary, cancellation_policy, qr_code_data)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.ID, b.OrderNumber, b.UserID, b.ActivityID, nullUint(b.PackageID), b.PackageName, b.Title, b.Location, b.Image,
		b.Description, b.BookingDate, b.BookingTime, string(b.Status), b.BasePrice, b.ServiceFee, b.Tax, b.TotalPrice,
		b.TotalPersons, counts, b.PaymentMethod, b.HasDiscount, b.DiscountPercentage, b.OfferTitle,
		b.ContactEmail, b.ContactPhone, b.TicketInstructions, b.Itinerary, b.CancellationPolicy, b.QRCodeData)
	if err != nil {
		if _, dup := duplicateKey(err); dup {
			return snap, ErrConflict
		}
		return snap, err
	}

	if err := tx.Commit(); err != nil {
		return snap, err
	}
	committed = true

	created, err := r.Get(ctx, b.ID)
	if err != nil {
		return snap, err
	}
	*b = created
	return snap, nil
}

// bookedPersonsQuery sums persons of bookings that hold spots for the
// activity and date, narrowed to one package when packageID is set.
func bookedPersonsQuery(activityID uint64, date string, packageID *uint64) (string, []any) {
	q := `SELECT COALESCE(SUM(total_persons), 0) FROM bookings
	      WHERE activity_id=? AND booking_date=? AND status <> 'CANCELLED'`
	args := []any{activityID, date}
	if packageID != nil {
		q += " AND package_id=?"
		args = append(args, *packageID)
	}
	return q, args
}

// BookedPersons returns the persons holding spots for (activity, date[, package]).
func (r *BookingRepo) BookedPersons(ctx context.Context, activityID uint64, date string, packageID *uint64) (int, error) {
	q, args := bookedPersonsQuery(activityID, date, packageID)
	var n int
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

// Get returns a booking by id, or ErrNotFound.
func (r *BookingRepo) Get(ctx context.Context, id string) (model.Booking, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings b WHERE b.id=?", id)
	b, err := scanBooking(row)
	if err != nil {
		return model.Booking{}, notFound(err)
	}
	return b, nil
}

// List returns bookings matching f, newest first.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]model.Booking, error) {
	q := "SELECT " + bookingColumns + " FROM bookings b"
	where := []string{}
	args := []any{}
	if f.OwnerEmail != "" {
		q += " JOIN activities a ON a.id = b.activity_id"
		where = append(where, "a.created_by = ?")
		args = append(args, f.OwnerEmail)
	}
	if f.UserID != nil {
		where = append(where, "b.user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.Status != "" {
		where = append(where, "b.status = ?")
		args = append(args, string(f.Status))
	}
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY b.created_at DESC, b.id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateStatus writes a new status.  No version check is made; the last
// writer wins.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) error {
	res, err := r.db.ExecContext(ctx, "UPDATE bookings SET status=? WHERE id=?", string(status), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// UpdateQRCode stores a regenerated ticket token.
func (r *BookingRepo) UpdateQRCode(ctx context.Context, id, data string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE bookings SET qr_code_data=? WHERE id=?", data, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete removes one booking.
func (r *BookingRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM bookings WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeleteAll removes every booking and returns the count.  An empty table is
// left untouched.
func (r *BookingRepo) DeleteAll(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings").Scan(&n); err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM bookings")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// BookingStats aggregates bookings for dashboards.
type BookingStats struct {
	Total    int64
	ByStatus map[model.BookingStatus]int64
	Revenue  float64 // sum of total_price over non-cancelled bookings
}

// ActivityRevenue is revenue grouped by activity.
type ActivityRevenue struct {
	ActivityID uint64  `json:"activityId"`
	Title      string  `json:"title"`
	Bookings   int64   `json:"bookings"`
	Revenue    float64 `json:"revenue"`
}

// Stats returns counts per status and revenue, over all bookings or only
// those of activities created by ownerEmail.
func (r *BookingRepo) Stats(ctx context.Context, ownerEmail string) (BookingStats, error) {
	from, args := "FROM bookings b", []any{}
	if ownerEmail != "" {
		from += " JOIN activities a ON a.id = b.activity_id WHERE a.created_by = ?"
		args = append(args, ownerEmail)
	}
	stats := BookingStats{ByStatus: map[model.BookingStatus]int64{}}
	for _, s := range model.BookingStatuses {
		stats.ByStatus[s] = 0
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT b.status, COUNT(*), COALESCE(SUM(CASE WHEN b.status <> 'CANCELLED' THEN b.total_price ELSE 0 END), 0) "+
			from+" GROUP BY b.status", args...)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status  string
			count   int64
			revenue float64
		)
		if err := rows.Scan(&status, &count, &revenue); err != nil {
			return stats, err
		}
		stats.ByStatus[model.BookingStatus(status)] = count
		stats.Total += count
		stats.Revenue += revenue
	}
	return stats, rows.Err()
}

// RevenueByActivity groups non-cancelled revenue by activity, highest first.
func (r *BookingRepo) RevenueByActivity(ctx context.Context, ownerEmail string) ([]ActivityRevenue, error) {
	q := `SELECT b.activity_id, MAX(b.title), COUNT(*), COALESCE(SUM(b.total_price), 0)
	      FROM bookings b`
	args := []any{}
	if ownerEmail != "" {
		q += " JOIN activities a ON a.id = b.activity_id WHERE a.created_by = ? AND b.status <> 'CANCELLED'"
		args = append(args, ownerEmail)
	} else {
		q += " WHERE b.status <> 'CANCELLED'"
	}
	q += " GROUP BY b.activity_id ORDER BY 4 DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ActivityRevenue{}
	for rows.Next() {
		var ar ActivityRevenue
		if err := rows.Scan(&ar.ActivityID, &ar.Title, &ar.Bookings, &ar.Revenue); err != nil {
			return nil, err
		}
		out = append(out, ar)
	}
	return out, rows.Err()
}

func scanBooking(s rowScanner) (model.Booking, error) {
	var (
		b         model.Booking
		packageID sql.NullInt64
		status    string
		counts    string
	)
	err := s.Scan(&b.ID, &b.OrderNumber, &b.UserID, &b.ActivityID, &packageID, &b.PackageName, &b.Title, &b.Location,
		&b.Image, &b.Description, &b.BookingDate, &b.BookingTime, &status, &b.BasePrice, &b.ServiceFee,
		&b.Tax, &b.TotalPrice, &b.TotalPersons, &counts, &b.PaymentMethod, &b.HasDiscount,
		&b.DiscountPercentage, &b.OfferTitle, &b.ContactEmail, &b.ContactPhone,
		&b.TicketInstructions, &b.Itinerary, &b.CancellationPolicy,
		&b.QRCodeData, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Booking{}, err
	}
	if packageID.Valid {
		id := uint64(packageID.Int64)
		b.PackageID = &id
	}
	b.Status = model.BookingStatus(status)
	b.PeopleCounts, err = model.DecodePeopleCounts(counts)
	if err != nil {
		return model.Booking{}, fmt.Errorf("booking %s: %w", b.ID, err)
	}
	return b, nil
}

// IsNotFound reports whether err is ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
