package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/middleware"
	"github.com/iliyamo/travel-booking-admin/internal/model"
	"github.com/iliyamo/travel-booking-admin/internal/service"
)

// Offers is the campaign side of the service layer.
type Offers interface {
	Create(ctx context.Context, creator string, in service.OfferInput) (model.Offer, error)
	Update(ctx context.Context, id uint64, creator string, in service.OfferInput) (model.Offer, error)
	Get(ctx context.Context, id uint64) (model.Offer, error)
	ListAll(ctx context.Context) ([]model.Offer, error)
	ListActive(ctx context.Context) ([]model.Offer, error)
	ListByOwner(ctx context.Context, createdBy string) ([]model.Offer, error)
	ListHomepage(ctx context.Context) ([]model.Offer, error)
	ToggleHomepage(ctx context.Context, id uint64, selected *bool) (model.Offer, error)
	Delete(ctx context.Context, id uint64) error
	DeleteAll(ctx context.Context) (int64, error)
	BestPackageOffer(ctx context.Context, activityID, packageID uint64) (service.PackageOffer, error)
}

type OfferHandler struct {
	offers Offers
	log    *zap.Logger
}

func NewOfferHandler(offers Offers, log *zap.Logger) *OfferHandler {
	return &OfferHandler{offers: offers, log: log}
}

type offerReq struct {
	Title               string   `json:"title" validate:"required,max=255"`
	Image               string   `json:"image"`
	Discount            string   `json:"discount" validate:"max=50"`
	DiscountPercentage  float64  `json:"discountPercentage" validate:"gte=0,lte=100"`
	ActivityID          uint64   `json:"activityId" validate:"required"`
	StartDate           string   `json:"startDate"`
	EndDate             string   `json:"endDate"`
	SelectedPackages    []uint64 `json:"selectedPackages"`
	Description         string   `json:"description"`
	SelectedForHomepage bool     `json:"selectedForHomepage"`
	Active              *bool    `json:"active"`
}

func (r offerReq) input() (service.OfferInput, error) {
	start, err := optionalTime(r.StartDate)
	if err != nil {
		return service.OfferInput{}, err
	}
	end, err := optionalTime(r.EndDate)
	if err != nil {
		return service.OfferInput{}, err
	}
	return service.OfferInput{
		Title:               r.Title,
		Image:               r.Image,
		Discount:            r.Discount,
		DiscountPercentage:  r.DiscountPercentage,
		ActivityID:          r.ActivityID,
		StartDate:           start,
		EndDate:             end,
		SelectedPackages:    r.SelectedPackages,
		Description:         r.Description,
		SelectedForHomepage: r.SelectedForHomepage,
		Active:              r.Active,
	}, nil
}

// offerCreator attributes owner writes to the owner; others use the header.
func offerCreator(c echo.Context) string {
	if u, found := middleware.CurrentUser(c); found && u.Role == model.RoleActivityOwner {
		return u.Email
	}
	return c.Request().Header.Get(CreatedByHeader)
}

func (h *OfferHandler) Create(c echo.Context) error {
	var req offerReq
	if okBind, err := bind(c, &req); !okBind {
		return err
	}
	in, err := req.input()
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.offers.Create(ctx, offerCreator(c), in)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusCreated, "Offer created successfully", o)
}

func (h *OfferHandler) Update(c echo.Context) error {
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid offer id")
	}
	var req offerReq
	if okBind, err := bind(c, &req); !okBind {
		return err
	}
	in, err := req.input()
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.offers.Update(ctx, id, offerCreator(c), in)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "Offer updated successfully", o)
}

// ToggleHomepage sets the flag from {"selected": bool}, or flips it when
// the body is empty.
func (h *OfferHandler) ToggleHomepage(c echo.Context) error {
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid offer id")
	}
	var req struct {
		Selected *bool `json:"selected"`
	}
	_ = c.Bind(&req)

	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.offers.ToggleHomepage(ctx, id, req.Selected)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "Homepage selection updated", o)
}

func (h *OfferHandler) Delete(c echo.Context) error {
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid offer id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.offers.Delete(ctx, id); err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "Offer deleted successfully", nil)
}

func (h *OfferHandler) DeleteAll(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.offers.DeleteAll(ctx)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "All offers deleted", echo.Map{"deleted": n})
}

func (h *OfferHandler) Get(c echo.Context) error {
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid offer id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.offers.Get(ctx, id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "", o)
}

func (h *OfferHandler) List(c echo.Context) error {
	return h.list(c, h.offers.ListAll)
}

func (h *OfferHandler) ListActive(c echo.Context) error {
	return h.list(c, h.offers.ListActive)
}

func (h *OfferHandler) ListHomepage(c echo.Context) error {
	return h.list(c, h.offers.ListHomepage)
}

func (h *OfferHandler) ListByOwner(c echo.Context) error {
	owner := c.QueryParam("createdBy")
	if owner == "" {
		owner = c.Request().Header.Get(CreatedByHeader)
	}
	return h.list(c, func(ctx context.Context) ([]model.Offer, error) {
		return h.offers.ListByOwner(ctx, owner)
	})
}

func (h *OfferHandler) list(c echo.Context, load func(context.Context) ([]model.Offer, error)) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := load(ctx)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "", nonNil(list))
}

// CheckPackage answers ?activityId=&packageId= with the best current offer.
func (h *OfferHandler) CheckPackage(c echo.Context) error {
	activityID, _ := strconv.ParseUint(c.QueryParam("activityId"), 10, 64)
	packageID, _ := strconv.ParseUint(c.QueryParam("packageId"), 10, 64)

	ctx, cancel := reqCtx(c)
	defer cancel()

	best, err := h.offers.BestPackageOffer(ctx, activityID, packageID)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "", best)
}
