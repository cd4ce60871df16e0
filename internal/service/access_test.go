package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/model"
	"github.com/iliyamo/travel-booking-admin/internal/utils"
)

const gateSecret = "test-secret"

func TestAccessGate_ResolvesSignedToken(t *testing.T) {
	users := newMemUsers(alice, owner, admin)
	gate := NewAccessGate(gateSecret, false, users, zap.NewNop())
	ctx := context.Background()

	tok, err := utils.NewAccessToken(gateSecret, alice.ID, alice.Email, model.RoleAdmin, 15)
	require.NoError(t, err)

	u, ok := gate.Resolve(ctx, "Bearer "+tok.Token)
	require.True(t, ok)
	assert.Equal(t, alice.ID, u.ID)
	assert.Equal(t, model.RoleUser, u.Role, "role comes from the stored user")
	assert.False(t, gate.IsAdmin(ctx, tok.Token))

	ownerTok, err := utils.NewAccessToken(gateSecret, owner.ID, owner.Email, owner.Role, 15)
	require.NoError(t, err)
	assert.True(t, gate.IsOwner(ctx, ownerTok.Token))

	adminTok, err := utils.NewAccessToken(gateSecret, admin.ID, admin.Email, admin.Role, 15)
	require.NoError(t, err)
	assert.True(t, gate.IsAdmin(ctx, "bearer "+adminTok.Token))
}

func TestAccessGate_Rejects(t *testing.T) {
	inactive := model.User{ID: 8, Email: "gone@example.com", Role: model.RoleUser}
	users := newMemUsers(alice, inactive)
	gate := NewAccessGate(gateSecret, false, users, zap.NewNop())
	ctx := context.Background()

	wrongKey, err := utils.NewAccessToken("other-secret", alice.ID, alice.Email, alice.Role, 15)
	require.NoError(t, err)
	expired, err := utils.NewAccessToken(gateSecret, alice.ID, alice.Email, alice.Role, -5)
	require.NoError(t, err)
	unknown, err := utils.NewAccessToken(gateSecret, 99, "x@example.com", model.RoleUser, 15)
	require.NoError(t, err)
	disabled, err := utils.NewAccessToken(gateSecret, inactive.ID, inactive.Email, inactive.Role, 15)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"empty":         "",
		"bearer only":   "Bearer ",
		"garbage":       "not-a-token",
		"wrong key":     wrongKey.Token,
		"expired":       expired.Token,
		"unknown user":  unknown.Token,
		"inactive user": disabled.Token,
		"legacy off":    utils.EncodeLegacyToken(alice.ID, alice.Email, time.Now()),
	} {
		t.Run(name, func(t *testing.T) {
			_, ok := gate.Resolve(ctx, tok)
			assert.False(t, ok)
		})
	}
}

func TestAccessGate_LegacyTokens(t *testing.T) {
	users := newMemUsers(alice, admin)
	gate := NewAccessGate(gateSecret, true, users, zap.NewNop())
	ctx := context.Background()

	u, ok := gate.Resolve(ctx, "Bearer "+utils.EncodeLegacyToken(alice.ID, alice.Email, time.Now()))
	require.True(t, ok)
	assert.Equal(t, alice.ID, u.ID)

	_, ok = gate.Resolve(ctx, utils.EncodeLegacyToken(alice.ID, admin.Email, time.Now()))
	assert.False(t, ok, "email must match the stored user")

	assert.True(t, gate.IsAdmin(ctx, utils.EncodeLegacyToken(admin.ID, admin.Email, time.Now())))
	assert.False(t, gate.IsOwner(ctx, utils.EncodeLegacyToken(admin.ID, admin.Email, time.Now())))
}
