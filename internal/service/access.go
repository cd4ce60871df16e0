package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/model"
	"github.com/iliyamo/travel-booking-admin/internal/utils"
)

// UserLookup is the part of the user store the access gate needs.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// AccessGate turns bearer tokens into users.  Signed access tokens are the
// primary form; unsigned legacy tokens are accepted only when enabled.  The
// role always comes from the stored user, never from the token.
type AccessGate struct {
	secret string
	legacy bool
	users  UserLookup
	log    *zap.Logger
}

func NewAccessGate(secret string, legacy bool, users UserLookup, log *zap.Logger) *AccessGate {
	return &AccessGate{secret: secret, legacy: legacy, users: users, log: log}
}

// Resolve returns the active user the token identifies.  Any malformed,
// expired or unknown token yields false.
func (g *AccessGate) Resolve(ctx context.Context, token string) (model.User, bool) {
	token = strings.TrimSpace(token)
	if len(token) > 7 && strings.EqualFold(token[:7], "Bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return model.User{}, false
	}

	var (
		uid   uint64
		email string
	)
	if claims, err := utils.ParseAccessToken(g.secret, token); err == nil {
		if uid, err = claims.UserID(); err != nil {
			return model.User{}, false
		}
	} else if g.legacy {
		var ok bool
		if uid, email, ok = utils.DecodeLegacyToken(token); !ok {
			return model.User{}, false
		}
	} else {
		return model.User{}, false
	}

	u, err := g.users.GetByID(ctx, uid)
	if err != nil {
		g.log.Debug("token user lookup failed", zap.Uint64("user_id", uid), zap.Error(err))
		return model.User{}, false
	}
	if !u.IsActive {
		return model.User{}, false
	}
	if email != "" && !strings.EqualFold(email, u.Email) {
		return model.User{}, false
	}
	return u, true
}

// IsAdmin reports whether the token resolves to an administrator.
func (g *AccessGate) IsAdmin(ctx context.Context, token string) bool {
	u, ok := g.Resolve(ctx, token)
	return ok && u.Role == model.RoleAdmin
}

// IsOwner reports whether the token resolves to an activity owner.
func (g *AccessGate) IsOwner(ctx context.Context, token string) bool {
	u, ok := g.Resolve(ctx, token)
	return ok && u.Role == model.RoleActivityOwner
}
