package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/travel-booking-admin/internal/model"
)

// UserRepo provides persistence for the users table.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, first_name, last_name, email, phone_number, nic, password_hash,
       birthdate, gender, role, is_active, created_at, updated_at`

// NormalizeEmail lower-cases and trims an email address the way it is stored.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create inserts u (PasswordHash must already be set) and fills its ID and
// timestamps.  Unique violations map to ErrEmailExists, ErrNICExists or
// ErrPhoneExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (first_name, last_name, email, phone_number, nic, password_hash, birthdate, gender, role)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		u.FirstName, u.LastName, u.Email, nullString(u.PhoneNumber), nullString(u.NIC),
		u.PasswordHash, nullTime(u.Birthdate), u.Gender, u.Role)
	if err != nil {
		return userConflict(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*u = created
	return nil
}

func userConflict(err error) error {
	key, dup := duplicateKey(err)
	if !dup {
		return err
	}
	switch {
	case strings.Contains(key, "nic"):
		return ErrNICExists
	case strings.Contains(key, "phone"):
		return ErrPhoneExists
	case strings.Contains(key, "email"):
		return ErrEmailExists
	}
	return ErrConflict
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email))
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// Exists reports whether a user with id exists.
func (r *UserRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// List returns every user ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Count returns the number of users.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// UpdateRole sets a user's role.
func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, role string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET role=? WHERE id=?", role, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// UpdateProfile writes the editable profile fields of u.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET first_name=?, last_name=?, phone_number=?, nic=?, birthdate=?, gender=? WHERE id=?`,
		u.FirstName, u.LastName, nullString(u.PhoneNumber), nullString(u.NIC), nullTime(u.Birthdate), u.Gender, u.ID)
	if err != nil {
		return userConflict(err)
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (model.User, error) {
	var (
		u         model.User
		phone     sql.NullString
		nic       sql.NullString
		birthdate sql.NullTime
	)
	err := s.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &phone, &nic, &u.PasswordHash,
		&birthdate, &u.Gender, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, notFound(err)
	}
	if phone.Valid {
		u.PhoneNumber = &phone.String
	}
	if nic.Valid {
		u.NIC = &nic.String
	}
	if birthdate.Valid {
		u.Birthdate = &birthdate.Time
	}
	return u, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil || strings.TrimSpace(*s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: strings.TrimSpace(*s), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullUint(v *uint64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
