package service

import (
	"strings"

	"github.com/iliyamo/travel-booking-admin/internal/model"
)

// Scope is the surface an actor is calling through.  It decides which
// bookings the actor may touch.
type Scope int

const (
	// ScopeSelf is the customer surface: the booking's own user, or an admin.
	ScopeSelf Scope = iota
	// ScopeOwner is the activity-owner surface: bookings of activities the
	// owner created, or any booking for an admin.
	ScopeOwner
	// ScopeAdmin is the admin surface.
	ScopeAdmin
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID uint64
	Email  string
	Role   string
	Scope  Scope
}

// NewActor builds an actor for u calling through scope.
func NewActor(u model.User, scope Scope) Actor {
	return Actor{UserID: u.ID, Email: u.Email, Role: u.Role, Scope: scope}
}

func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

func (a Actor) IsOwner() bool { return a.Role == model.RoleActivityOwner }

// owns reports whether createdBy attributes an activity to this actor.
func (a Actor) owns(createdBy string) bool {
	return a.Email != "" && strings.EqualFold(strings.TrimSpace(createdBy), a.Email)
}
