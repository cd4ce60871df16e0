// Package repository holds the MySQL data access layer.  The sentinel
// values below let services distinguish failure scenarios without
// inspecting driver errors.  ErrNotFound replaces sql.ErrNoRows at the
// package boundary.  ErrCapacityExceeded reports that a booking insert was
// refused because the activity or package is full for the date.
package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with a unique key that has
// no more specific sentinel.
var ErrConflict = errors.New("conflict")

// Unique-key collisions on users.
var (
	ErrEmailExists = errors.New("email already exists")
	ErrNICExists   = errors.New("nic already exists")
	ErrPhoneExists = errors.New("phone number already exists")
)

// ErrCapacityExceeded is returned by BookingRepo.CreateWithinCapacity when
// the requested persons do not fit.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// mysqlDuplicateEntry is the server error number for a unique-key violation.
const mysqlDuplicateEntry = 1062

// notFound maps sql.ErrNoRows to ErrNotFound and leaves other errors as is.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// duplicateKey reports whether err is a unique-key violation and returns
// the offending key name when the server included one.
func duplicateKey(err error) (string, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		// Message shape: Duplicate entry 'x' for key 'users.uq_users_email'
		msg := me.Message
		if i := strings.LastIndex(msg, "for key '"); i >= 0 {
			key := strings.TrimSuffix(msg[i+len("for key '"):], "'")
			if j := strings.LastIndex(key, "."); j >= 0 {
				key = key[j+1:]
			}
			return key, true
		}
		return "", true
	}
	return "", false
}
