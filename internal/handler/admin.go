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

// Administration is the dashboard and user-management side.
type Administration interface {
	Dashboard(ctx context.Context) (service.AdminDashboard, error)
	OwnerDashboard(ctx context.Context, ownerEmail string) (service.OwnerDashboard, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUserRole(ctx context.Context, id uint64, role string) (model.User, error)
}

type AdminHandler struct {
	admin Administration
	log   *zap.Logger
}

func NewAdminHandler(admin Administration, log *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, log: log}
}

type roleReq struct {
	Role string `json:"role" validate:"required"`
}

// CheckAdmin reports whether the optional bearer belongs to an admin.  It
// never answers 401.
func (h *AdminHandler) CheckAdmin(c echo.Context) error {
	u, found := middleware.CurrentUser(c)
	return ok(c, http.StatusOK, "", echo.Map{"isAdmin": found && u.Role == model.RoleAdmin})
}

func (h *AdminHandler) CheckOwner(c echo.Context) error {
	u, found := middleware.CurrentUser(c)
	return ok(c, http.StatusOK, "", echo.Map{"isOwner": found && u.Role == model.RoleActivityOwner})
}

func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.admin.Dashboard(ctx)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "", d)
}

// OwnerDashboard summarises the calling owner's business.
func (h *AdminHandler) OwnerDashboard(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.admin.OwnerDashboard(ctx, u.Email)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "", d)
}

func (h *AdminHandler) Users(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.admin.ListUsers(ctx)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "", list)
}

func (h *AdminHandler) UpdateRole(c echo.Context) error {
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid user id")
	}
	var req roleReq
	if okBind, err := bind(c, &req); !okBind {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.admin.UpdateUserRole(ctx, id, req.Role)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "User role updated successfully", u)
}
