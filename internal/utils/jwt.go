package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"     // secure random number generation
	"crypto/sha256"   // SHA‑256 hashing for refresh tokens
	"encoding/base64" // legacy access tokens
	"encoding/hex"    // hex encoding and decoding functions
	"errors"
	"strconv"
	"strings"
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidToken is returned for any access token that cannot be trusted:
// bad signature, wrong algorithm, expired, or missing claims.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long‑lived token used to obtain new access tokens.
// Only the SHA‑256 hash of Raw is stored.
type RefreshToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// AccessClaims are the claims carried by an access token.  Subject holds
// the user id as a decimal string.
type AccessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c AccessClaims) UserID() (uint64, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The token
// carries sub (user id), email and role, plus exp and iat.
func NewAccessToken(secret string, userID uint64, email, role string, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := AccessClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies signature, algorithm and expiry and returns the
// claims.  Every failure is reported as ErrInvalidToken.
func ParseAccessToken(secret, raw string) (AccessClaims, error) {
	var claims AccessClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		// Reject anything that is not HMAC so a token cannot choose its own key type.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return AccessClaims{}, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return AccessClaims{}, ErrInvalidToken
	}
	return claims, nil
}

// DecodeLegacyToken decodes the unsigned base64 "<userId>:<email>:<issuedAt>"
// token format.  ok is false when decoding fails, fewer than two parts are
// present or the id is not numeric.
func DecodeLegacyToken(raw string) (userID uint64, email string, ok bool) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return 0, "", false
	}
	parts := strings.Split(string(decoded), ":")
	if len(parts) < 2 {
		return 0, "", false
	}
	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || id == 0 {
		return 0, "", false
	}
	return id, parts[1], true
}

// EncodeLegacyToken produces a legacy token.  Only tests and migration
// tooling should need it.
func EncodeLegacyToken(userID uint64, email string, issuedAt time.Time) string {
	s := strconv.FormatUint(userID, 10) + ":" + email + ":" + strconv.FormatInt(issuedAt.UnixMilli(), 10)
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// NewRefreshToken returns a cryptographically secure random token (raw) and
// its expiration time.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	raw, err := randomHex(48) // 48 bytes -> 96 hex chars
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshRaw returns the SHA‑256 hash of the raw refresh token as a hex
// string.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns n bytes of secure random data, hex encoded.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
