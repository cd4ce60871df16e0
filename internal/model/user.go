package model

import "time"

// Role names stored in users.role.
const (
	RoleUser          = "USER"
	RoleAdmin         = "ADMIN"
	RoleActivityOwner = "ACTIVITY_OWNER"
)

// ValidRole reports whether r is one of the known role names.
func ValidRole(r string) bool {
	switch r {
	case RoleUser, RoleAdmin, RoleActivityOwner:
		return true
	}
	return false
}

// User represents an application user record as stored in the
// `users` table.  Email is unique; phone number and NIC are unique
// when present.  Activity owners are linked to their activities
// through Activity.CreatedBy, which holds the owner's email.
//
// Fields:
//  ID           – primary key identifier of the user.
//  FirstName    – given name.
//  LastName     – family name.
//  Email        – unique email address, stored lower-cased.
//  PhoneNumber  – contact number (nullable, unique).
//  NIC          – national identity card number (nullable, unique).
//  PasswordHash – bcrypt hashed password.
//  Birthdate    – optional date of birth.
//  Gender       – free-form gender label.
//  Role         – USER, ADMIN or ACTIVITY_OWNER.
//  IsActive     – whether the account may sign in.
type User struct {
	ID           uint64     `json:"id"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email"`
	PhoneNumber  *string    `json:"phoneNumber,omitempty"`
	NIC          *string    `json:"nic,omitempty"`
	PasswordHash string     `json:"-"`
	Birthdate    *time.Time `json:"birthdate,omitempty"`
	Gender       string     `json:"gender,omitempty"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// FullName joins first and last name the way tickets print it.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// RefreshToken models an entry in the `refresh_tokens` table.  The
// plain token is never stored; only its SHA‑256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
