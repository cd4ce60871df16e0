package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/service"
)

// requestTimeout bounds the store calls of a single request.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// envelope is the body of every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *meta  `json:"meta,omitempty"`
}

type meta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func ok(c echo.Context, status int, msg string, data any) error {
	return c.JSON(status, envelope{Success: true, Message: msg, Data: data})
}

func paged[T any](c echo.Context, msg string, p service.Page[T]) error {
	pages := 0
	if p.Size > 0 {
		pages = int((p.Total + int64(p.Size) - 1) / int64(p.Size))
	}
	items := p.Items
	if items == nil {
		items = []T{}
	}
	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: msg,
		Data:    items,
		Meta:    &meta{Page: p.Page, Size: p.Size, Total: p.Total, TotalPages: pages},
	})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, envelope{Error: msg})
}

// fail maps a service error kind to its status.  Unclassified errors are
// logged and reported as 500 without detail.
func fail(c echo.Context, log *zap.Logger, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	}
	msg, known := service.Message(err)
	if status == http.StatusInternalServerError || !known {
		if status == http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.Error(err))
			msg = "internal server error"
		} else {
			msg = http.StatusText(status)
		}
	}
	return c.JSON(status, envelope{Error: msg})
}

// idParam parses a positive numeric path parameter.
func idParam(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// intQuery reads an int query value, falling back to def.
func intQuery(c echo.Context, name string, def int) int {
	if n, err := strconv.Atoi(c.QueryParam(name)); err == nil {
		return n
	}
	return def
}
