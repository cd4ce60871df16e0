package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/middleware"
	"github.com/iliyamo/travel-booking-admin/internal/model"
	"github.com/iliyamo/travel-booking-admin/internal/service"
)

var (
	customer = model.User{ID: 1, Email: "alice@example.com", Role: model.RoleUser, IsActive: true}
	owner    = model.User{ID: 2, Email: "owner@example.com", Role: model.RoleActivityOwner, IsActive: true}
	admin    = model.User{ID: 3, Email: "admin@example.com", Role: model.RoleAdmin, IsActive: true}
)

// as stands in for the identity middlewares.
func as(u model.User) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.CtxUser, u)
			return next(c)
		}
	}
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type decoded struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Meta    *meta           `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) decoded {
	t.Helper()
	var out decoded
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func svcErr(kind error, msg string) error { return &service.Error{Kind: kind, Message: msg} }

// fakeBookings implements Bookings with optional function fields.
type fakeBookings struct {
	CreateFunc       func(ctx context.Context, email string, in service.CreateBookingInput) (model.BookingView, error)
	GetFunc          func(ctx context.Context, a service.Actor, id string) (model.BookingView, error)
	ListMineFunc     func(ctx context.Context, a service.Actor, status string) ([]model.BookingView, error)
	ListAllFunc      func(ctx context.Context, status string) ([]model.BookingView, error)
	ListForOwnerFunc func(ctx context.Context, ownerEmail, status string) ([]model.BookingView, error)
	UpdateStatusFunc func(ctx context.Context, a service.Actor, id, status string) (model.BookingView, error)
	VerifyQRFunc     func(ctx context.Context, a service.Actor, raw string) (service.VerifyResult, error)
	TicketPNGFunc    func(ctx context.Context, a service.Actor, id string) ([]byte, error)
}

func (f *fakeBookings) Create(ctx context.Context, email string, in service.CreateBookingInput) (model.BookingView, error) {
	return f.CreateFunc(ctx, email, in)
}
func (f *fakeBookings) Get(ctx context.Context, a service.Actor, id string) (model.BookingView, error) {
	return f.GetFunc(ctx, a, id)
}
func (f *fakeBookings) ListMine(ctx context.Context, a service.Actor, status string) ([]model.BookingView, error) {
	return f.ListMineFunc(ctx, a, status)
}
func (f *fakeBookings) ListAll(ctx context.Context, status string) ([]model.BookingView, error) {
	return f.ListAllFunc(ctx, status)
}
func (f *fakeBookings) ListForOwner(ctx context.Context, ownerEmail, status string) ([]model.BookingView, error) {
	return f.ListForOwnerFunc(ctx, ownerEmail, status)
}
func (f *fakeBookings) UpdateStatus(ctx context.Context, a service.Actor, id, status string) (model.BookingView, error) {
	return f.UpdateStatusFunc(ctx, a, id, status)
}
func (f *fakeBookings) Cancel(ctx context.Context, a service.Actor, id string) (model.BookingView, error) {
	return f.UpdateStatusFunc(ctx, a, id, string(model.StatusCancelled))
}
func (f *fakeBookings) MarkCompleted(ctx context.Context, a service.Actor, id string) (model.BookingView, error) {
	return f.UpdateStatusFunc(ctx, a, id, string(model.StatusCompleted))
}
func (f *fakeBookings) VerifyQR(ctx context.Context, a service.Actor, raw string) (service.VerifyResult, error) {
	return f.VerifyQRFunc(ctx, a, raw)
}
func (f *fakeBookings) TicketPNG(ctx context.Context, a service.Actor, id string) ([]byte, error) {
	return f.TicketPNGFunc(ctx, a, id)
}
func (f *fakeBookings) Delete(context.Context, service.Actor, string) error { return nil }
func (f *fakeBookings) DeleteAll(context.Context) (int64, error)             { return 3, nil }

func TestFail_MapsErrorKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{svcErr(service.ErrNotFound, "Booking not found for ID: X"), http.StatusNotFound, "Booking not found for ID: X"},
		{svcErr(service.ErrInvalidInput, "Invalid status: LATE"), http.StatusBadRequest, "Invalid status: LATE"},
		{svcErr(service.ErrUnauthorized, "Invalid email or password"), http.StatusUnauthorized, "Invalid email or password"},
		{svcErr(service.ErrForbidden, "You can only access your own bookings"), http.StatusForbidden, "You can only access your own bookings"},
		{svcErr(service.ErrConflict, "Email already exists"), http.StatusConflict, "Email already exists"},
		{service.ErrNotFound, http.StatusNotFound, "Not Found"},
		{errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		e := newEcho()
		e.GET("/", func(c echo.Context) error { return fail(c, zap.NewNop(), tc.err) })
		rec := do(e, http.MethodGet, "/", "")
		assert.Equal(t, tc.status, rec.Code, tc.msg)
		out := decode(t, rec)
		assert.False(t, out.Success)
		assert.Equal(t, tc.msg, out.Error)
	}
}

func TestPaged_ComputesTotalPages(t *testing.T) {
	e := newEcho()
	e.GET("/", func(c echo.Context) error {
		return paged(c, "", service.Page[int]{Page: 1, Size: 20, Total: 41})
	})
	out := decode(t, do(e, http.MethodGet, "/", ""))
	require.NotNil(t, out.Meta)
	assert.Equal(t, 3, out.Meta.TotalPages)
	assert.JSONEq(t, `[]`, string(out.Data))
}

func TestCreateBooking(t *testing.T) {
	var gotEmail string
	var gotIn service.CreateBookingInput
	fb := &fakeBookings{CreateFunc: func(_ context.Context, email string, in service.CreateBookingInput) (model.BookingView, error) {
		gotEmail, gotIn = email, in
		return model.BookingView{Booking: model.Booking{ID: "BK1", Status: model.StatusPending}}, nil
	}}
	e := newEcho()
	h := NewBookingHandler(fb, service.ScopeSelf, zap.NewNop())
	e.POST("/bookings", h.Create, as(customer))

	body := `{"activityId":5,"packageId":11,"bookingDate":"2031-01-02","peopleCounts":{"foreignAdult":2},"totalPersons":2,"totalPrice":120}`
	rec := do(e, http.MethodPost, "/bookings", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.True(t, out.Success)
	assert.Equal(t, "Booking created successfully", out.Message)
	assert.Equal(t, customer.Email, gotEmail)
	assert.Equal(t, uint64(5), gotIn.ActivityID)
	require.NotNil(t, gotIn.PackageID)
	assert.Equal(t, uint64(11), *gotIn.PackageID)
	assert.Equal(t, 2, gotIn.PeopleCounts["foreignAdult"])

	rec = do(e, http.MethodPost, "/bookings", `{"bookingDate":"2031-01-02"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "activityId is required", decode(t, rec).Error)

	rec = do(e, http.MethodPost, "/bookings", `{"activityId":5,"bookingDate":"2031-01-02","contactEmail":"nope"}`)
	assert.Equal(t, "Invalid email format", decode(t, rec).Error)
}

func TestListBookings_DispatchesByScope(t *testing.T) {
	var called string
	fb := &fakeBookings{
		ListMineFunc: func(_ context.Context, a service.Actor, status string) ([]model.BookingView, error) {
			called = "mine:" + a.Email + ":" + status
			return nil, nil
		},
		ListForOwnerFunc: func(_ context.Context, ownerEmail, status string) ([]model.BookingView, error) {
			called = "owner:" + ownerEmail + ":" + status
			return nil, nil
		},
		ListAllFunc: func(_ context.Context, status string) ([]model.BookingView, error) {
			called = "all:" + status
			return nil, nil
		},
	}
	cases := []struct {
		scope service.Scope
		user  model.User
		want  string
	}{
		{service.ScopeSelf, customer, "mine:alice@example.com:PENDING"},
		{service.ScopeOwner, owner, "owner:owner@example.com:PENDING"},
		{service.ScopeAdmin, admin, "all:PENDING"},
	}
	for _, tc := range cases {
		e := newEcho()
		e.GET("/bookings", NewBookingHandler(fb, tc.scope, zap.NewNop()).List, as(tc.user))
		rec := do(e, http.MethodGet, "/bookings?status=PENDING", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, tc.want, called)
		assert.JSONEq(t, `[]`, string(decode(t, rec).Data))
	}
}

func TestUpdateBookingStatus(t *testing.T) {
	var gotStatus string
	var gotActor service.Actor
	fb := &fakeBookings{UpdateStatusFunc: func(_ context.Context, a service.Actor, id, status string) (model.BookingView, error) {
		gotActor, gotStatus = a, status
		if status == "LATE" {
			return model.BookingView{}, svcErr(service.ErrInvalidInput, "Invalid status: LATE")
		}
		return model.BookingView{Booking: model.Booking{ID: id, Status: model.BookingStatus(status)}}, nil
	}}
	e := newEcho()
	h := NewBookingHandler(fb, service.ScopeOwner, zap.NewNop())
	e.PUT("/bookings/:id/status", h.UpdateStatus, as(owner))
	e.POST("/bookings/:id/complete", h.Complete, as(owner))

	rec := do(e, http.MethodPut, "/bookings/BK1/status?status=CONFIRMED", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Booking status updated to CONFIRMED", decode(t, rec).Message)
	assert.Equal(t, service.ScopeOwner, gotActor.Scope)

	rec = do(e, http.MethodPut, "/bookings/BK1/status", `{"status":"CANCELLED"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELLED", gotStatus)

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPut, "/bookings/BK1/status", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPut, "/bookings/BK1/status?status=LATE", "").Code)

	rec = do(e, http.MethodPost, "/bookings/BK1/complete", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "COMPLETED", gotStatus)
}

func TestVerifyQR_AcceptsEitherField(t *testing.T) {
	var raw string
	fb := &fakeBookings{VerifyQRFunc: func(_ context.Context, _ service.Actor, r string) (service.VerifyResult, error) {
		raw = r
		if r == "bad" {
			return service.VerifyResult{}, svcErr(service.ErrInvalidInput, "Invalid QR code format")
		}
		return service.VerifyResult{Valid: true, Message: "QR code verified successfully"}, nil
	}}
	e := newEcho()
	e.POST("/verify-qr", NewBookingHandler(fb, service.ScopeAdmin, zap.NewNop()).VerifyQR, as(admin))

	rec := do(e, http.MethodPost, "/verify-qr", `{"qrData":"abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", raw)
	assert.Equal(t, "QR code verified successfully", decode(t, rec).Message)

	do(e, http.MethodPost, "/verify-qr", `{"qrCodeData":"xyz"}`)
	assert.Equal(t, "xyz", raw)

	rec = do(e, http.MethodPost, "/verify-qr", `{"qrData":"bad"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid QR code format", decode(t, rec).Error)

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/verify-qr", `{}`).Code)
}

func TestTicketPNG(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	fb := &fakeBookings{TicketPNGFunc: func(_ context.Context, a service.Actor, id string) ([]byte, error) {
		if a.UserID != customer.ID {
			return nil, svcErr(service.ErrForbidden, "You can only access your own bookings")
		}
		return png, nil
	}}
	e := newEcho()
	h := NewBookingHandler(fb, service.ScopeSelf, zap.NewNop())
	e.GET("/mine/:id/qr.png", h.QRCode, as(customer))
	e.GET("/other/:id/qr.png", h.QRCode, as(owner))

	rec := do(e, http.MethodGet, "/mine/BK1/qr.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, png, rec.Body.Bytes())

	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/other/BK1/qr.png", "").Code)
}

func TestDeleteAllBookings(t *testing.T) {
	e := newEcho()
	e.DELETE("/bookings/all", NewBookingHandler(&fakeBookings{}, service.ScopeAdmin, zap.NewNop()).DeleteAll, as(admin))
	rec := do(e, http.MethodDelete, "/bookings/all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":3}`, string(decode(t, rec).Data))
}
