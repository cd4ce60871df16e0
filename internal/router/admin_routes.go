package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-admin/internal/handler"
	"github.com/iliyamo/travel-booking-admin/internal/model"
)

// RegisterAdmin registers /api/v1/admin.  The role checks answer anonymous
// callers too; everything else needs an ADMIN bearer, except the owner
// routes which need an ACTIVITY_OWNER bearer.
func RegisterAdmin(e *echo.Echo, g Guard, a *handler.AdminHandler, b BookingSurfaces, n *handler.NotificationHandler) {
	root := e.Group("/api/v1/admin")
	root.GET("/check-admin", a.CheckAdmin, g.optional()...)
	root.GET("/check-owner", a.CheckOwner, g.optional()...)

	adm := root.Group("", g.bearer(model.RoleAdmin)...)
	adm.GET("/dashboard", a.Dashboard)
	adm.GET("/users", a.Users)
	adm.PUT("/users/:id/role", a.UpdateRole)

	adm.GET("/bookings", b.Admin.List)
	adm.POST("/bookings/verify-qr", b.Admin.VerifyQR)
	adm.GET("/bookings/:id", b.Admin.Get)
	adm.PUT("/bookings/:id/status", b.Admin.UpdateStatus)
	adm.POST("/bookings/:id/complete", b.Admin.Complete)
	adm.DELETE("/bookings/:id", b.Admin.Delete)

	adm.GET("/notifications", n.List)
	adm.POST("/notifications", n.Create)
	adm.POST("/notifications/cleanup", n.Cleanup)
	adm.GET("/notifications/types", n.Types)
	adm.GET("/notifications/target-types", n.TargetTypes)
	adm.GET("/notifications/:id", n.Get)
	adm.PUT("/notifications/:id", n.Update)
	adm.DELETE("/notifications/:id", n.Delete)

	own := root.Group("/owner", g.bearer(model.RoleActivityOwner)...)
	own.GET("/dashboard", a.OwnerDashboard)
	own.GET("/bookings", b.Owner.List)
	own.POST("/bookings/verify-qr", b.Owner.VerifyQR)
	own.PUT("/bookings/:id/status", b.Owner.UpdateStatus)
	own.POST("/bookings/:id/complete", b.Owner.Complete)
}
