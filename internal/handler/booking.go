package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/middleware"
	"github.com/iliyamo/travel-booking-admin/internal/model"
	"github.com/iliyamo/travel-booking-admin/internal/service"
)

// Bookings is the booking engine as the HTTP layer sees it.
type Bookings interface {
	Create(ctx context.Context, email string, in service.CreateBookingInput) (model.BookingView, error)
	Get(ctx context.Context, a service.Actor, id string) (model.BookingView, error)
	ListMine(ctx context.Context, a service.Actor, status string) ([]model.BookingView, error)
	ListAll(ctx context.Context, status string) ([]model.BookingView, error)
	ListForOwner(ctx context.Context, ownerEmail, status string) ([]model.BookingView, error)
	UpdateStatus(ctx context.Context, a service.Actor, id, status string) (model.BookingView, error)
	Cancel(ctx context.Context, a service.Actor, id string) (model.BookingView, error)
	MarkCompleted(ctx context.Context, a service.Actor, id string) (model.BookingView, error)
	VerifyQR(ctx context.Context, a service.Actor, raw string) (service.VerifyResult, error)
	TicketPNG(ctx context.Context, a service.Actor, id string) ([]byte, error)
	Delete(ctx context.Context, a service.Actor, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// BookingHandler serves one booking surface.  The scope decides which
// bookings a caller may list and touch: customers see their own, owners
// those of their activities, admins all of them.
type BookingHandler struct {
	bookings Bookings
	scope    service.Scope
	log      *zap.Logger
}

func NewBookingHandler(bookings Bookings, scope service.Scope, log *zap.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, scope: scope, log: log}
}

type createBookingReq struct {
	ActivityID         uint64             `json:"activityId" validate:"required"`
	PackageID          *uint64            `json:"packageId"`
	BookingDate        string             `json:"bookingDate" validate:"required"`
	BookingTime        string             `json:"bookingTime" validate:"max=20"`
	PeopleCounts       model.PeopleCounts `json:"peopleCounts"`
	TotalPersons       int                `json:"totalPersons" validate:"gte=0"`
	BasePrice          float64            `json:"basePrice" validate:"gte=0"`
	ServiceFee         float64            `json:"serviceFee" validate:"gte=0"`
	Tax                float64            `json:"tax" validate:"gte=0"`
	TotalPrice         float64            `json:"totalPrice" validate:"gte=0"`
	PaymentMethod      string             `json:"paymentMethod" validate:"max=50"`
	ContactEmail       string             `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone       string             `json:"contactPhone" validate:"max=30"`
	Title              string             `json:"title"`
	Location           string             `json:"location"`
	Image              string             `json:"image"`
	Description        string             `json:"description"`
	HasDiscount        bool               `json:"hasDiscount"`
	DiscountPercentage float64            `json:"discountPercentage" validate:"gte=0,lte=100"`
	OfferTitle         string             `json:"offerTitle"`
}

type verifyReq struct {
	QRData     string `json:"qrData"`
	QRCodeData string `json:"qrCodeData"`
}

func (h *BookingHandler) actor(c echo.Context) (model.User, service.Actor) {
	u, _ := middleware.CurrentUser(c)
	return u, service.NewActor(u, h.scope)
}

// Create books for the identified user.
func (h *BookingHandler) Create(c echo.Context) error {
	u, _ := h.actor(c)
	var req createBookingReq
	if okBind, err := bind(c, &req); !okBind {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.bookings.Create(ctx, u.Email, service.CreateBookingInput{
		ActivityID:         req.ActivityID,
		PackageID:          req.PackageID,
		BookingDate:        req.BookingDate,
		BookingTime:        req.BookingTime,
		PeopleCounts:       req.PeopleCounts,
		TotalPersons:       req.TotalPersons,
		BasePrice:          req.BasePrice,
		ServiceFee:         req.ServiceFee,
		Tax:                req.Tax,
		TotalPrice:         req.TotalPrice,
		PaymentMethod:      req.PaymentMethod,
		ContactEmail:       req.ContactEmail,
		ContactPhone:       req.ContactPhone,
		Title:              req.Title,
		Location:           req.Location,
		Image:              req.Image,
		Description:        req.Description,
		HasDiscount:        req.HasDiscount,
		DiscountPercentage: req.DiscountPercentage,
		OfferTitle:         req.OfferTitle,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusCreated, "Booking created successfully", b)
}

// List returns the bookings of this surface, narrowed by ?status=.
func (h *BookingHandler) List(c echo.Context) error {
	u, a := h.actor(c)
	status := c.QueryParam("status")

	ctx, cancel := reqCtx(c)
	defer cancel()

	var (
		list []model.BookingView
		err  error
	)
	switch h.scope {
	case service.ScopeAdmin:
		list, err = h.bookings.ListAll(ctx, status)
	case service.ScopeOwner:
		list, err = h.bookings.ListForOwner(ctx, u.Email, status)
	default:
		list, err = h.bookings.ListMine(ctx, a, status)
	}
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "", nonNil(list))
}

func (h *BookingHandler) Get(c echo.Context) error {
	_, a := h.actor(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.bookings.Get(ctx, a, c.Param("id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "", b)
}

// UpdateStatus takes the target status from ?status= or {"status": ...}.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	_, a := h.actor(c)
	status := c.QueryParam("status")
	if status == "" {
		var req struct {
			Status string `json:"status"`
		}
		_ = c.Bind(&req)
		status = req.Status
	}
	if strings.TrimSpace(status) == "" {
		return badRequest(c, "status is required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.bookings.UpdateStatus(ctx, a, c.Param("id"), status)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "Booking status updated to "+string(b.Status), b)
}

func (h *BookingHandler) Cancel(c echo.Context) error {
	_, a := h.actor(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.bookings.Cancel(ctx, a, c.Param("id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "Booking cancelled successfully", b)
}

func (h *BookingHandler) Complete(c echo.Context) error {
	_, a := h.actor(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	b, err := h.bookings.MarkCompleted(ctx, a, c.Param("id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "Booking marked as completed", b)
}

// VerifyQR checks a scanned ticket.  A failed check is a 400 carrying the
// reason.
func (h *BookingHandler) VerifyQR(c echo.Context) error {
	_, a := h.actor(c)
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	raw := req.QRData
	if raw == "" {
		raw = req.QRCodeData
	}
	if strings.TrimSpace(raw) == "" {
		return badRequest(c, "qrData is required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.bookings.VerifyQR(ctx, a, raw)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, res.Message, res)
}

// QRCode streams the booking's ticket as a PNG.
func (h *BookingHandler) QRCode(c echo.Context) error {
	_, a := h.actor(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	png, err := h.bookings.TicketPNG(ctx, a, c.Param("id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, "image/png", png)
}

func (h *BookingHandler) Delete(c echo.Context) error {
	_, a := h.actor(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.bookings.Delete(ctx, a, c.Param("id")); err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "Booking deleted successfully", nil)
}

func (h *BookingHandler) DeleteAll(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.bookings.DeleteAll(ctx)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "All bookings deleted", echo.Map{"deleted": n})
}
