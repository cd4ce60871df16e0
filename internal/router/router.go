// Package router wires the HTTP surface: route groups, identity checks,
// rate limits and the catalog cache.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/config"
	"github.com/iliyamo/travel-booking-admin/internal/handler"
	"github.com/iliyamo/travel-booking-admin/internal/middleware"
	"github.com/iliyamo/travel-booking-admin/internal/model"
)

// Guard builds the middleware chains shared by the route groups.  A nil
// Redis client disables caching and rate limiting.
type Guard struct {
	Gate      middleware.TokenResolver
	Users     middleware.EmailLookup
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Log       *zap.Logger
}

// bearer requires a valid token and, when roles are given, one of them.
func (g Guard) bearer(roles ...string) []echo.MiddlewareFunc {
	mw := []echo.MiddlewareFunc{middleware.Bearer(g.Gate)}
	if len(roles) > 0 {
		mw = append(mw, middleware.RequireRole(roles...))
	}
	return append(mw, g.limit())
}

// identity accepts a bearer token or the X-User-Email header.
func (g Guard) identity() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{middleware.UserIdentity(g.Gate, g.Users), g.limit()}
}

func (g Guard) optional() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{middleware.OptionalBearer(g.Gate), g.limit()}
}

func (g Guard) limit() echo.MiddlewareFunc {
	return middleware.NewTokenBucket(g.RateLimit, g.Redis, g.Log)
}

// bookingLimit is the tighter bucket in front of booking creation.
func (g Guard) bookingLimit() echo.MiddlewareFunc {
	return middleware.NewTokenBucket(g.RateLimit.WithCapacity(g.RateLimit.BookingCapacity, "booking"), g.Redis, g.Log)
}

func (g Guard) cached() echo.MiddlewareFunc {
	return middleware.NewRedisCache(g.Cache, g.Redis, g.Log)
}

func (g Guard) purge() echo.MiddlewareFunc {
	return middleware.PurgeCache(g.Cache, g.Redis, g.Log)
}

// staff is the bearer chain for catalog and ticket writes.
func (g Guard) staff() []echo.MiddlewareFunc {
	return g.bearer(model.RoleAdmin, model.RoleActivityOwner)
}

// RegisterRoutes registers routes that need no identity.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers account routes under /api/v1.  Logout takes an
// optional bearer so a refresh token alone can end a session.
func RegisterAuth(e *echo.Echo, g Guard, a *handler.AuthHandler, p *handler.ProfileHandler) {
	auth := e.Group("/api/v1/auth")
	auth.POST("/register", a.Register, g.limit())
	auth.POST("/login", a.Login, g.limit())
	auth.POST("/refresh", a.Refresh, g.limit())
	auth.POST("/logout", a.Logout, g.optional()...)
	auth.GET("/me", a.Me, g.bearer()...)

	users := e.Group("/api/v1/users", g.identity()...)
	users.GET("/profile", p.Get)
	users.PUT("/profile", p.Update)
}
