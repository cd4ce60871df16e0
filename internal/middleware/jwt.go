package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Bearer requires an Authorization header that resolves to an active user
// and stores that user on the context.  The role stored is the one from
// the database, not the token's claim.
func Bearer(gate TokenResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if auth == "" {
				return deny(c, http.StatusUnauthorized, "missing bearer token")
			}
			u, ok := gate.Resolve(c.Request().Context(), auth)
			if !ok {
				return deny(c, http.StatusUnauthorized, "invalid token")
			}
			setUser(c, u)
			return next(c)
		}
	}
}

// OptionalBearer stores the user when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalBearer(gate TokenResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if auth := c.Request().Header.Get(echo.HeaderAuthorization); auth != "" {
				if u, ok := gate.Resolve(c.Request().Context(), auth); ok {
					setUser(c, u)
				}
			}
			return next(c)
		}
	}
}
