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

// Notifications covers both the per-user inbox and administration.
type Notifications interface {
	Create(ctx context.Context, in service.NotificationInput, actorID *uint64) (model.Notification, error)
	Update(ctx context.Context, id uint64, in service.NotificationInput) (model.Notification, error)
	Get(ctx context.Context, id uint64) (model.Notification, error)
	Delete(ctx context.Context, id uint64) error
	ListAll(ctx context.Context, page, size int) (service.Page[model.Notification], error)
	ListForUser(ctx context.Context, userID uint64, role string, page, size int) (service.Page[model.UserNotification], error)
	UnreadCount(ctx context.Context, userID uint64, role string) (int64, error)
	MarkRead(ctx context.Context, id, userID uint64, role string) error
	MarkAllRead(ctx context.Context, userID uint64, role string) (int64, error)
	CleanupExpired(ctx context.Context) (int64, error)
	Types() []model.NotificationType
	TargetTypes() []model.TargetUserType
}

type NotificationHandler struct {
	notes Notifications
	log   *zap.Logger
}

func NewNotificationHandler(notes Notifications, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notes: notes, log: log}
}

type notificationReq struct {
	Title          string  `json:"title" validate:"required,max=255"`
	Message        string  `json:"message" validate:"required"`
	Type           string  `json:"type" validate:"required"`
	TargetUserType string  `json:"targetUserType" validate:"required"`
	TargetUserID   *uint64 `json:"targetUserId"`
	ExpiresAt      string  `json:"expiresAt"`
	ActionURL      string  `json:"actionUrl" validate:"max=500"`
	IconURL        string  `json:"iconUrl" validate:"max=500"`
	IsActive       *bool   `json:"isActive"`
}

func (r notificationReq) input() (service.NotificationInput, error) {
	exp, err := optionalTime(r.ExpiresAt)
	if err != nil {
		return service.NotificationInput{}, err
	}
	return service.NotificationInput{
		Title:          r.Title,
		Message:        r.Message,
		Type:           r.Type,
		TargetUserType: r.TargetUserType,
		TargetUserID:   r.TargetUserID,
		ExpiresAt:      exp,
		ActionURL:      r.ActionURL,
		IconURL:        r.IconURL,
		IsActive:       r.IsActive,
	}, nil
}

// ----- user inbox -----

func (h *NotificationHandler) Inbox(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.notes.ListForUser(ctx, u.ID, u.Role, intQuery(c, "page", 0), intQuery(c, "size", 0))
	if err != nil {
		return fail(c, h.log, err)
	}
	return paged(c, "", p)
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.notes.UnreadCount(ctx, u.ID, u.Role)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "", echo.Map{"unreadCount": n})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid notification id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.notes.MarkRead(ctx, id, u.ID, u.Role); err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "Notification marked as read", nil)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.notes.MarkAllRead(ctx, u.ID, u.Role)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "All notifications marked as read", echo.Map{"updated": n})
}

// ----- administration -----

func (h *NotificationHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.notes.ListAll(ctx, intQuery(c, "page", 0), intQuery(c, "size", 0))
	if err != nil {
		return fail(c, h.log, err)
	}
	return paged(c, "", p)
}

func (h *NotificationHandler) Get(c echo.Context) error {
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid notification id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.notes.Get(ctx, id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "", n)
}

func (h *NotificationHandler) Create(c echo.Context) error {
	var req notificationReq
	if okBind, err := bind(c, &req); !okBind {
		return err
	}
	in, err := req.input()
	if err != nil {
		return badRequest(c, err.Error())
	}
	var actorID *uint64
	if u, found := middleware.CurrentUser(c); found {
		actorID = &u.ID
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.notes.Create(ctx, in, actorID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusCreated, "Notification created successfully", n)
}

func (h *NotificationHandler) Update(c echo.Context) error {
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid notification id")
	}
	var req notificationReq
	if okBind, err := bind(c, &req); !okBind {
		return err
	}
	in, err := req.input()
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.notes.Update(ctx, id, in)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "Notification updated successfully", n)
}

func (h *NotificationHandler) Delete(c echo.Context) error {
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid notification id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.notes.Delete(ctx, id); err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "Notification deleted successfully", nil)
}

func (h *NotificationHandler) Cleanup(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.notes.CleanupExpired(ctx)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "Expired notifications cleaned up", echo.Map{"deactivated": n})
}

func (h *NotificationHandler) Types(c echo.Context) error {
	return ok(c, http.StatusOK, "", h.notes.Types())
}

func (h *NotificationHandler) TargetTypes(c echo.Context) error {
	return ok(c, http.StatusOK, "", h.notes.TargetTypes())
}
