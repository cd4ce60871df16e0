package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-admin/internal/handler"
	"github.com/iliyamo/travel-booking-admin/internal/model"
)

// BookingSurfaces are the booking handlers of the three scopes.
type BookingSurfaces struct {
	Customer *handler.BookingHandler
	Owner    *handler.BookingHandler
	Admin    *handler.BookingHandler
}

// RegisterBookings registers the customer booking routes and the
// notification inbox.  Callers are identified by bearer token or the
// X-User-Email header; ticket scanning and completion need staff.
func RegisterBookings(e *echo.Echo, g Guard, b BookingSurfaces, n *handler.NotificationHandler) {
	bookings := e.Group("/api/v1/bookings")
	bookings.POST("", b.Customer.Create, append(g.identity(), g.bookingLimit())...)
	bookings.GET("", b.Customer.List, g.identity()...)
	bookings.POST("/verify-qr", b.Owner.VerifyQR, g.staff()...)
	bookings.DELETE("/all", b.Admin.DeleteAll, g.bearer(model.RoleAdmin)...)
	bookings.GET("/:id", b.Customer.Get, g.identity()...)
	bookings.GET("/:id/qr.png", b.Customer.QRCode, g.identity()...)
	bookings.PUT("/:id/status", b.Customer.UpdateStatus, g.identity()...)
	bookings.PUT("/:id/cancel", b.Customer.Cancel, g.identity()...)
	bookings.POST("/:id/complete", b.Owner.Complete, g.staff()...)
	bookings.DELETE("/:id", b.Customer.Delete, g.identity()...)

	inbox := e.Group("/api/v1/notifications", g.identity()...)
	inbox.GET("", n.Inbox)
	inbox.GET("/unread-count", n.UnreadCount)
	inbox.PUT("/read-all", n.MarkAllRead)
	inbox.PUT("/:id/read", n.MarkRead)
}
