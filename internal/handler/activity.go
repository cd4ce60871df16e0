package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/middleware"
	"github.com/iliyamo/travel-booking-admin/internal/model"
	"github.com/iliyamo/travel-booking-admin/internal/service"
)

// CreatedByHeader carries the creator attribution on catalog writes.
const CreatedByHeader = "X-Created-By"

// Catalog is the activity side of the service layer.
type Catalog interface {
	Create(ctx context.Context, a service.Actor, creator string, in service.ActivityInput) (model.Activity, error)
	Update(ctx context.Context, a service.Actor, id uint64, creator string, in service.ActivityInput) (model.Activity, error)
	Delete(ctx context.Context, a service.Actor, id uint64) error
	DeleteAll(ctx context.Context) (int64, error)
	Get(ctx context.Context, id uint64) (model.Activity, error)
	Packages(ctx context.Context, id uint64) ([]model.Package, error)
	ListAll(ctx context.Context) ([]model.Activity, error)
	ListActive(ctx context.Context) ([]model.Activity, error)
	ListByOwner(ctx context.Context, createdBy string) ([]model.Activity, error)
	Search(ctx context.Context, q service.SearchQuery) (service.Page[model.Activity], error)
}

type ActivityHandler struct {
	catalog Catalog
	log     *zap.Logger
}

func NewActivityHandler(catalog Catalog, log *zap.Logger) *ActivityHandler {
	return &ActivityHandler{catalog: catalog, log: log}
}

type packageReq struct {
	ID                uint64   `json:"id"`
	Name              string   `json:"name" validate:"required,max=255"`
	Description       string   `json:"description"`
	Price             float64  `json:"price" validate:"gte=0"`
	ForeignAdultPrice float64  `json:"foreignAdultPrice" validate:"gte=0"`
	ForeignKidPrice   float64  `json:"foreignKidPrice" validate:"gte=0"`
	LocalAdultPrice   float64  `json:"localAdultPrice" validate:"gte=0"`
	LocalKidPrice     float64  `json:"localKidPrice" validate:"gte=0"`
	Availability      int      `json:"availability" validate:"gte=0"`
	Features          []string `json:"features"`
}

type activityReq struct {
	Title       string       `json:"title" validate:"required,max=255"`
	Location    string       `json:"location" validate:"max=255"`
	Image       string       `json:"image"`
	Description string       `json:"description"`
	Category    string       `json:"category" validate:"max=100"`
	Rating      float64      `json:"rating" validate:"gte=0,lte=5"`
	Duration    string       `json:"duration" validate:"max=100"`
	Active      *bool        `json:"active"`
	Packages    []packageReq `json:"packages" validate:"dive"`
}

func (r activityReq) input() service.ActivityInput {
	in := service.ActivityInput{
		Title:       r.Title,
		Location:    r.Location,
		Image:       r.Image,
		Description: r.Description,
		Category:    r.Category,
		Rating:      r.Rating,
		Duration:    r.Duration,
		Active:      r.Active,
		Packages:    make([]model.Package, 0, len(r.Packages)),
	}
	for _, p := range r.Packages {
		in.Packages = append(in.Packages, model.Package{
			ID:                p.ID,
			Name:              strings.TrimSpace(p.Name),
			Description:       p.Description,
			Price:             p.Price,
			ForeignAdultPrice: p.ForeignAdultPrice,
			ForeignKidPrice:   p.ForeignKidPrice,
			LocalAdultPrice:   p.LocalAdultPrice,
			LocalKidPrice:     p.LocalKidPrice,
			Availability:      p.Availability,
			Features:          p.Features,
		})
	}
	return in
}

// catalogActor builds the caller of a catalog write.  Routes guarantee a bearer.
func catalogActor(c echo.Context) service.Actor {
	u, _ := middleware.CurrentUser(c)
	return service.NewActor(u, service.ScopeAdmin)
}

func (h *ActivityHandler) Create(c echo.Context) error {
	var req activityReq
	if okBind, err := bind(c, &req); !okBind {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	act, err := h.catalog.Create(ctx, catalogActor(c), c.Request().Header.Get(CreatedByHeader), req.input())
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusCreated, "Activity created successfully", act)
}

func (h *ActivityHandler) Update(c echo.Context) error {
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid activity id")
	}
	var req activityReq
	if okBind, err := bind(c, &req); !okBind {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	act, err := h.catalog.Update(ctx, catalogActor(c), id, c.Request().Header.Get(CreatedByHeader), req.input())
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "Activity updated successfully", act)
}

func (h *ActivityHandler) Delete(c echo.Context) error {
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid activity id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.catalog.Delete(ctx, catalogActor(c), id); err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "Activity deleted successfully", nil)
}

func (h *ActivityHandler) DeleteAll(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.catalog.DeleteAll(ctx)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "All activities deleted", echo.Map{"deleted": n})
}

func (h *ActivityHandler) Get(c echo.Context) error {
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid activity id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	act, err := h.catalog.Get(ctx, id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "", act)
}

func (h *ActivityHandler) Packages(c echo.Context) error {
	id, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "invalid activity id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	pkgs, err := h.catalog.Packages(ctx, id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "", pkgs)
}

func (h *ActivityHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.catalog.ListAll(ctx)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "", nonNil(list))
}

func (h *ActivityHandler) ListActive(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.catalog.ListActive(ctx)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "", nonNil(list))
}

// ListByOwner takes the owner from ?createdBy=, falling back to the
// creator header.
func (h *ActivityHandler) ListByOwner(c echo.Context) error {
	owner := c.QueryParam("createdBy")
	if owner == "" {
		owner = c.Request().Header.Get(CreatedByHeader)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.catalog.ListByOwner(ctx, owner)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, "", nonNil(list))
}

func (h *ActivityHandler) Search(c echo.Context) error {
	activeOnly, _ := strconv.ParseBool(c.QueryParam("active"))
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.catalog.Search(ctx, service.SearchQuery{
		Query:      c.QueryParam("q"),
		Location:   c.QueryParam("location"),
		Category:   c.QueryParam("category"),
		ActiveOnly: activeOnly,
		Page:       intQuery(c, "page", 0),
		Size:       intQuery(c, "size", 0),
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return paged(c, "", p)
}

// nonNil keeps empty listings serialised as [] instead of null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
