package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-admin/internal/model"
)

// RequireRole lets the request through only when the role stored by an
// identity middleware is one of roles.  It must run after Bearer or
// UserIdentity.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	msg := roleMessage(roles)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(string)
			if !ok || !allowed[role] {
				return deny(c, http.StatusForbidden, msg)
			}
			return next(c)
		}
	}
}

func roleMessage(roles []string) string {
	if len(roles) == 1 {
		switch roles[0] {
		case model.RoleAdmin:
			return "Access denied. Admin role required."
		case model.RoleActivityOwner:
			return "Access denied. Activity owner role required."
		}
	}
	return "Access denied. Requires one of: " + strings.Join(roles, ", ")
}
