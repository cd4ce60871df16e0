package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/model"
	"github.com/iliyamo/travel-booking-admin/internal/repository"
)

// ActivityInput is the writable part of an activity.  Packages replace the
// stored list; a package carrying the id of an existing one keeps that id.
type ActivityInput struct {
	Title       string
	Location    string
	Image       string
	Description string
	Category    string
	Rating      float64
	Duration    string
	Active      *bool
	Packages    []model.Package
}

// SearchQuery filters the public catalog.
type SearchQuery struct {
	Query      string
	Location   string
	Category   string
	ActiveOnly bool
	Page       int
	Size       int
}

// CatalogService manages activities and their packages.
type CatalogService struct {
	activities ActivityStore
	log        *zap.Logger
}

func NewCatalogService(activities ActivityStore, log *zap.Logger) *CatalogService {
	return &CatalogService{activities: activities, log: log}
}

// Create stores a new activity.  Owners are always recorded as the creator;
// other callers use the given creator or "System".
func (s *CatalogService) Create(ctx context.Context, a Actor, creator string, in ActivityInput) (model.Activity, error) {
	act := model.Activity{Active: true, CreatedBy: creatorOrSystem(creator)}
	if a.IsOwner() {
		act.CreatedBy = a.Email
	}
	if err := applyActivity(&act, in); err != nil {
		return model.Activity{}, err
	}
	if err := s.activities.Create(ctx, &act); err != nil {
		return model.Activity{}, err
	}
	s.log.Info("activity created", zap.Uint64("activity_id", act.ID), zap.String("created_by", act.CreatedBy),
		zap.Int("packages", len(act.Packages)))
	return act, nil
}

// Update replaces an activity.  Owners may only edit their own activities.
func (s *CatalogService) Update(ctx context.Context, a Actor, id uint64, creator string, in ActivityInput) (model.Activity, error) {
	act, err := s.owned(ctx, a, id)
	if err != nil {
		return model.Activity{}, err
	}
	if c := strings.TrimSpace(creator); c != "" && !a.IsOwner() {
		act.CreatedBy = c
	}
	if err := applyActivity(&act, in); err != nil {
		return model.Activity{}, err
	}
	if err := s.activities.Update(ctx, &act); err != nil {
		if repository.IsNotFound(err) {
			return model.Activity{}, notFoundf("Activity not found")
		}
		return model.Activity{}, err
	}
	return act, nil
}

// Delete removes an activity with its packages.  Bookings keep their
// snapshot.
func (s *CatalogService) Delete(ctx context.Context, a Actor, id uint64) error {
	if _, err := s.owned(ctx, a, id); err != nil {
		return err
	}
	if err := s.activities.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return notFoundf("Activity not found")
		}
		return err
	}
	s.log.Info("activity deleted", zap.Uint64("activity_id", id), zap.Uint64("actor_id", a.UserID))
	return nil
}

func (s *CatalogService) DeleteAll(ctx context.Context) (int64, error) {
	return s.activities.DeleteAll(ctx)
}

func (s *CatalogService) Get(ctx context.Context, id uint64) (model.Activity, error) {
	act, err := s.activities.Get(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return model.Activity{}, notFoundf("Activity not found")
		}
		return model.Activity{}, err
	}
	return act, nil
}

// Packages returns the ordered packages of one activity.
func (s *CatalogService) Packages(ctx context.Context, id uint64) ([]model.Package, error) {
	act, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if act.Packages == nil {
		return []model.Package{}, nil
	}
	return act.Packages, nil
}

func (s *CatalogService) ListAll(ctx context.Context) ([]model.Activity, error) {
	list, _, err := s.activities.List(ctx, repository.ActivityFilter{})
	return list, err
}

func (s *CatalogService) ListActive(ctx context.Context) ([]model.Activity, error) {
	list, _, err := s.activities.List(ctx, repository.ActivityFilter{ActiveOnly: true})
	return list, err
}

func (s *CatalogService) ListByOwner(ctx context.Context, createdBy string) ([]model.Activity, error) {
	createdBy = strings.TrimSpace(createdBy)
	if createdBy == "" {
		return []model.Activity{}, nil
	}
	list, _, err := s.activities.List(ctx, repository.ActivityFilter{CreatedBy: createdBy})
	return list, err
}

// Search pages activities matching q.  Page is zero-based.
func (s *CatalogService) Search(ctx context.Context, q SearchQuery) (Page[model.Activity], error) {
	page, size, _ := normalizePage(q.Page, q.Size)
	list, total, err := s.activities.List(ctx, repository.ActivityFilter{
		ActiveOnly: q.ActiveOnly,
		Query:      strings.TrimSpace(q.Query),
		Location:   strings.TrimSpace(q.Location),
		Category:   strings.TrimSpace(q.Category),
		Page:       page + 1,
		PageSize:   size,
	})
	if err != nil {
		return Page[model.Activity]{}, err
	}
	return Page[model.Activity]{Items: list, Page: page, Size: size, Total: total}, nil
}

// owned loads an activity the actor may modify.
func (s *CatalogService) owned(ctx context.Context, a Actor, id uint64) (model.Activity, error) {
	act, err := s.Get(ctx, id)
	if err != nil {
		return model.Activity{}, err
	}
	if a.IsOwner() && !a.owns(act.CreatedBy) {
		return model.Activity{}, forbiddenf("You can only manage your own activities")
	}
	return act, nil
}

func applyActivity(act *model.Activity, in ActivityInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return invalidf("Activity title is required")
	}
	for i, p := range in.Packages {
		if strings.TrimSpace(p.Name) == "" {
			return invalidf("Package %d: name is required", i+1)
		}
		if p.Availability < 0 {
			return invalidf("Package %d: availability must not be negative", i+1)
		}
	}
	act.Title = strings.TrimSpace(in.Title)
	act.Location = in.Location
	act.Image = in.Image
	act.Description = in.Description
	act.Category = in.Category
	act.Rating = in.Rating
	act.Duration = in.Duration
	if in.Active != nil {
		act.Active = *in.Active
	}
	act.Packages = make([]model.Package, len(in.Packages))
	for i, p := range in.Packages {
		p.Position = i
		p.ActivityID = act.ID
		if p.Features == nil {
			p.Features = []string{}
		}
		act.Packages[i] = p
	}
	return nil
}
