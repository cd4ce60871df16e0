package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/middleware"
	"github.com/iliyamo/travel-booking-admin/internal/model"
	"github.com/iliyamo/travel-booking-admin/internal/service"
)

// Authenticator is the account side of the service layer.
type Authenticator interface {
	Register(ctx context.Context, in service.RegisterInput) (service.Session, error)
	Login(ctx context.Context, email, password string) (service.Session, error)
	Refresh(ctx context.Context, raw string) (service.Session, error)
	Logout(ctx context.Context, userID uint64, raw string) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	auth Authenticator
	log  *zap.Logger
}

func NewAuthHandler(auth Authenticator, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

// ----- DTOs -----

type registerReq struct {
	FirstName       string  `json:"firstName" validate:"required,max=100"`
	LastName        string  `json:"lastName" validate:"required,max=100"`
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required,min=6"`
	ConfirmPassword string  `json:"confirmPassword" validate:"required"`
	PhoneNumber     *string `json:"phoneNumber" validate:"omitempty,max=20"`
	NIC             *string `json:"nic" validate:"omitempty,max=20"`
	Birthdate       string  `json:"birthdate" validate:"omitempty,datetime=2006-01-02"`
	Gender          string  `json:"gender" validate:"omitempty,max=20"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User    model.User `json:"user"`
	Access  tokenPart  `json:"access"`
	Refresh tokenPart  `json:"refresh"`
}

func sessionResp(s service.Session) authResp {
	return authResp{
		User:    s.User,
		Access:  tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
		Refresh: tokenPart{Token: s.Refresh.Raw, Expires: s.Refresh.Exp},
	}
}

// Register creates a USER account and returns tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if okBind, err := bind(c, &req); !okBind {
		return err
	}
	birth, err := optionalTime(req.Birthdate)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.auth.Register(ctx, service.RegisterInput{
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		PhoneNumber:     req.PhoneNumber,
		NIC:             req.NIC,
		Birthdate:       birth,
		Gender:          req.Gender,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusCreated, "User registered successfully", sessionResp(s))
}

// Login verifies credentials and returns a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if okBind, err := bind(c, &req); !okBind {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "Login successful", sessionResp(s))
}

// Refresh rotates the presented refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if okBind, err := bind(c, &req); !okBind {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "Token refreshed", sessionResp(s))
}

// Logout revokes the refresh token in the body, or every session of the
// bearer when the body carries none.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)

	var uid uint64
	if u, found := middleware.CurrentUser(c); found {
		uid = u.ID
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.auth.Logout(ctx, uid, req.RefreshToken); err != nil {
		return fail(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	u, found := middleware.CurrentUser(c)
	if !found {
		return c.JSON(http.StatusUnauthorized, envelope{Error: "Authentication required"})
	}
	return ok(c, http.StatusOK, "", u)
}
