package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-admin/internal/handler"
	"github.com/iliyamo/travel-booking-admin/internal/model"
)

// RegisterCatalog registers activities, offers and availability.  Reads are
// public and served through the Redis cache; writes need an admin or
// activity owner bearer and purge the cache once they succeed.
func RegisterCatalog(e *echo.Echo, g Guard, a *handler.ActivityHandler, o *handler.OfferHandler, av *handler.AvailabilityHandler) {
	write := append(g.staff(), g.purge())

	acts := e.Group("/api/v1/activities")
	acts.GET("", a.List, g.limit(), g.cached())
	acts.GET("/active", a.ListActive, g.limit(), g.cached())
	acts.GET("/search", a.Search, g.limit(), g.cached())
	acts.GET("/owner", a.ListByOwner, g.limit(), g.cached())
	acts.GET("/:id", a.Get, g.limit(), g.cached())
	acts.GET("/:id/packages", a.Packages, g.limit(), g.cached())
	acts.POST("", a.Create, write...)
	acts.PUT("/:id", a.Update, write...)
	acts.DELETE("/all", a.DeleteAll, append(g.bearer(model.RoleAdmin), g.purge())...)
	acts.DELETE("/:id", a.Delete, write...)

	offers := e.Group("/api/v1/offers")
	offers.GET("", o.List, g.limit(), g.cached())
	offers.GET("/active", o.ListActive, g.limit(), g.cached())
	offers.GET("/homepage", o.ListHomepage, g.limit(), g.cached())
	offers.GET("/owner", o.ListByOwner, g.limit(), g.cached())
	offers.GET("/check-package", o.CheckPackage, g.limit(), g.cached())
	offers.GET("/:id", o.Get, g.limit(), g.cached())
	offers.POST("", o.Create, write...)
	offers.PUT("/:id", o.Update, write...)
	offers.PUT("/:id/homepage", o.ToggleHomepage, write...)
	offers.DELETE("/all", o.DeleteAll, append(g.bearer(model.RoleAdmin), g.purge())...)
	offers.DELETE("/:id", o.Delete, write...)

	// Availability changes with every booking, so it is never cached.
	e.GET("/api/v1/availability/check", av.Check, g.limit())
}
