package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/model"
	"github.com/iliyamo/travel-booking-admin/internal/service"
	"github.com/iliyamo/travel-booking-admin/internal/utils"
)

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) Register(ctx context.Context, in service.RegisterInput) (service.Session, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(service.Session), args.Error(1)
}

func (m *mockAuth) Login(ctx context.Context, email, password string) (service.Session, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(service.Session), args.Error(1)
}

func (m *mockAuth) Refresh(ctx context.Context, raw string) (service.Session, error) {
	args := m.Called(ctx, raw)
	return args.Get(0).(service.Session), args.Error(1)
}

func (m *mockAuth) Logout(ctx context.Context, userID uint64, raw string) error {
	return m.Called(ctx, userID, raw).Error(0)
}

func session(u model.User) service.Session {
	exp := time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)
	return service.Session{
		User:    u,
		Access:  utils.AccessToken{Token: "access-token", Exp: exp},
		Refresh: utils.RefreshToken{Raw: "refresh-token", Exp: exp.AddDate(0, 0, 7)},
	}
}

func TestLogin(t *testing.T) {
	auth := new(mockAuth)
	auth.On("Login", mock.Anything, "alice@example.com", "secret1").Return(session(customer), nil)
	auth.On("Login", mock.Anything, "alice@example.com", "wrong").
		Return(service.Session{}, svcErr(service.ErrUnauthorized, "Invalid email or password"))

	e := newEcho()
	e.POST("/login", NewAuthHandler(auth, zap.NewNop()).Login)

	rec := do(e, http.MethodPost, "/login", `{"email":"alice@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Contains(t, string(out.Data), `"token":"access-token"`)
	assert.Contains(t, string(out.Data), `"token":"refresh-token"`)
	assert.NotContains(t, string(out.Data), "passwordHash")

	rec = do(e, http.MethodPost, "/login", `{"email":"alice@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", decode(t, rec).Error)

	rec = do(e, http.MethodPost, "/login", `{"email":"alice","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	auth.AssertNumberOfCalls(t, "Login", 2)
}

func TestRegister_ParsesBirthdate(t *testing.T) {
	auth := new(mockAuth)
	auth.On("Register", mock.Anything, mock.MatchedBy(func(in service.RegisterInput) bool {
		return in.Birthdate != nil && in.Birthdate.Year() == 1990 && in.FirstName == "Alice"
	})).Return(session(customer), nil)

	e := newEcho()
	e.POST("/register", NewAuthHandler(auth, zap.NewNop()).Register)

	body := `{"firstName":" Alice ","lastName":"Smith","email":"alice@example.com","password":"secret1","confirmPassword":"secret1","birthdate":"1990-05-01"}`
	rec := do(e, http.MethodPost, "/register", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(e, http.MethodPost, "/register", `{"firstName":"A","lastName":"B","email":"a@b.co","password":"123","confirmPassword":"123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password must be at least 6", decode(t, rec).Error)
	auth.AssertExpectations(t)
}

func TestLogout_UsesBearerWhenBodyIsEmpty(t *testing.T) {
	auth := new(mockAuth)
	auth.On("Logout", mock.Anything, uint64(3), "").Return(nil).Once()
	auth.On("Logout", mock.Anything, uint64(0), "r1").Return(nil).Once()
	auth.On("Logout", mock.Anything, uint64(0), "").
		Return(svcErr(service.ErrInvalidInput, "Provide Authorization header or refresh_token")).Once()

	h := NewAuthHandler(auth, zap.NewNop())
	e := newEcho()
	e.POST("/logout-admin", h.Logout, as(admin))
	e.POST("/logout", h.Logout)

	assert.Equal(t, http.StatusNoContent, do(e, http.MethodPost, "/logout-admin", "").Code)
	assert.Equal(t, http.StatusNoContent, do(e, http.MethodPost, "/logout", `{"refresh_token":"r1"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/logout", "").Code)
	auth.AssertExpectations(t)
}

func TestMe(t *testing.T) {
	h := NewAuthHandler(new(mockAuth), zap.NewNop())
	e := newEcho()
	e.GET("/me", h.Me, as(owner))
	e.GET("/anon", h.Me)

	rec := do(e, http.MethodGet, "/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decode(t, rec).Data), `"role":"ACTIVITY_OWNER"`)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/anon", "").Code)
}

type availabilityFunc func(ctx context.Context, q service.AvailabilityQuery) (service.Availability, error)

func (f availabilityFunc) Check(ctx context.Context, q service.AvailabilityQuery) (service.Availability, error) {
	return f(ctx, q)
}

func TestAvailabilityCheck_ParsesQuery(t *testing.T) {
	var got service.AvailabilityQuery
	checker := availabilityFunc(func(_ context.Context, q service.AvailabilityQuery) (service.Availability, error) {
		got = q
		return service.Availability{Available: false, BookedCount: 2, AvailableSpots: 0, Message: "Not available"}, nil
	})
	e := newEcho()
	e.GET("/availability/check", NewAvailabilityHandler(checker, zap.NewNop()).Check)

	rec := do(e, http.MethodGet, "/availability/check?activityId=4&packageId=9&date=2031-01-02&requestedCount=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(4), got.ActivityID)
	require.NotNil(t, got.PackageID)
	assert.Equal(t, uint64(9), *got.PackageID)
	require.NotNil(t, got.RequestedCount)
	assert.Equal(t, 3, *got.RequestedCount)
	assert.Contains(t, string(decode(t, rec).Data), `"availableSpots":0`)

	do(e, http.MethodGet, "/availability/check?activityId=4&date=2031-01-02", "")
	assert.Nil(t, got.PackageID)
	assert.Nil(t, got.RequestedCount)

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/availability/check?activityId=x", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/availability/check?activityId=1&requestedCount=-1", "").Code)
}

type fakeAdmin struct {
	role string
	err  error
}

func (f *fakeAdmin) Dashboard(context.Context) (service.AdminDashboard, error) {
	return service.AdminDashboard{TotalUsers: 4}, f.err
}

func (f *fakeAdmin) OwnerDashboard(_ context.Context, email string) (service.OwnerDashboard, error) {
	return service.OwnerDashboard{OwnerEmail: email}, f.err
}

func (f *fakeAdmin) ListUsers(context.Context) ([]model.User, error) {
	return []model.User{customer, owner, admin}, f.err
}

func (f *fakeAdmin) UpdateUserRole(_ context.Context, id uint64, role string) (model.User, error) {
	f.role = role
	if role == "ROOT" {
		return model.User{}, svcErr(service.ErrInvalidInput, "Invalid role: ROOT")
	}
	return model.User{ID: id, Role: role}, f.err
}

func TestAdminChecksNeverUnauthorized(t *testing.T) {
	h := NewAdminHandler(&fakeAdmin{}, zap.NewNop())
	e := newEcho()
	e.GET("/anon/check-admin", h.CheckAdmin)
	e.GET("/admin/check-admin", h.CheckAdmin, as(admin))
	e.GET("/owner/check-owner", h.CheckOwner, as(owner))
	e.GET("/admin/check-owner", h.CheckOwner, as(admin))

	for path, want := range map[string]string{
		"/anon/check-admin":  `{"isAdmin":false}`,
		"/admin/check-admin": `{"isAdmin":true}`,
		"/owner/check-owner": `{"isOwner":true}`,
		"/admin/check-owner": `{"isOwner":false}`,
	} {
		rec := do(e, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, want, string(decode(t, rec).Data), path)
	}
}

func TestAdminDashboards(t *testing.T) {
	fa := &fakeAdmin{}
	h := NewAdminHandler(fa, zap.NewNop())
	e := newEcho()
	e.GET("/dashboard", h.Dashboard, as(admin))
	e.GET("/owner/dashboard", h.OwnerDashboard, as(owner))
	e.PUT("/users/:id/role", h.UpdateRole, as(admin))

	assert.Contains(t, string(decode(t, do(e, http.MethodGet, "/dashboard", "")).Data), `"totalUsers":4`)
	assert.Contains(t, string(decode(t, do(e, http.MethodGet, "/owner/dashboard", "")).Data), `"ownerEmail":"owner@example.com"`)

	rec := do(e, http.MethodPut, "/users/2/role", `{"role":"ADMIN"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ADMIN", fa.role)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPut, "/users/2/role", `{"role":"ROOT"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPut, "/users/zero/role", `{"role":"ADMIN"}`).Code)

	fa.err = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, do(e, http.MethodGet, "/dashboard", "").Code)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	e := newEcho()
	e.GET("/up", Health(pingFunc(func(context.Context) error { return nil })))
	e.GET("/down", Health(pingFunc(func(context.Context) error { return errors.New("refused") })))

	rec := do(e, http.MethodGet, "/up", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, http.StatusServiceUnavailable, do(e, http.MethodGet, "/down", "").Code)
}
