package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch is returned when a password and its confirmation differ.
var ErrPasswordMismatch = errors.New("passwords do not match")

// HashPassword returns bcrypt hash using the given cost.  Costs outside
// bcrypt's range fall back to bcrypt.DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ConfirmPassword checks a registration password against its confirmation.
func ConfirmPassword(password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}
