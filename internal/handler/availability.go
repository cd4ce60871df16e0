package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/service"
)

type AvailabilityChecker interface {
	Check(ctx context.Context, q service.AvailabilityQuery) (service.Availability, error)
}

type AvailabilityHandler struct {
	checker AvailabilityChecker
	log     *zap.Logger
}

func NewAvailabilityHandler(checker AvailabilityChecker, log *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{checker: checker, log: log}
}

// Check answers GET /availability/check?activityId=&date=[&packageId=][&requestedCount=].
func (h *AvailabilityHandler) Check(c echo.Context) error {
	q := service.AvailabilityQuery{Date: c.QueryParam("date")}
	if v := c.QueryParam("activityId"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid activityId")
		}
		q.ActivityID = id
	}
	if v := c.QueryParam("packageId"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid packageId")
		}
		q.PackageID = &id
	}
	if v := c.QueryParam("requestedCount"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return badRequest(c, "invalid requestedCount")
		}
		q.RequestedCount = &n
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.checker.Check(ctx, q)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, res.Message, res)
}
