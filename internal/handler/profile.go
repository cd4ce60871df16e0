package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/middleware"
	"github.com/iliyamo/travel-booking-admin/internal/model"
	"github.com/iliyamo/travel-booking-admin/internal/service"
)

// Profiles loads and edits a user's own profile.
type Profiles interface {
	Profile(ctx context.Context, id uint64) (model.User, error)
	UpdateProfile(ctx context.Context, id uint64, in service.ProfileInput) (model.User, error)
}

type ProfileHandler struct {
	users Profiles
	log   *zap.Logger
}

func NewProfileHandler(users Profiles, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{users: users, log: log}
}

type profileReq struct {
	FirstName   string  `json:"firstName" validate:"max=100"`
	LastName    string  `json:"lastName" validate:"max=100"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,max=20"`
	NIC         *string `json:"nic" validate:"omitempty,max=20"`
	Birthdate   string  `json:"birthdate" validate:"omitempty,datetime=2006-01-02"`
	Gender      string  `json:"gender" validate:"omitempty,max=20"`
}

func (h *ProfileHandler) Get(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.users.Profile(ctx, u.ID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "", out)
}

func (h *ProfileHandler) Update(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	var req profileReq
	if okBind, err := bind(c, &req); !okBind {
		return err
	}
	birth, err := optionalTime(req.Birthdate)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.users.UpdateProfile(ctx, u.ID, service.ProfileInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		NIC:         req.NIC,
		Birthdate:   birth,
		Gender:      req.Gender,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "Profile updated successfully", out)
}
