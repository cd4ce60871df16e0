package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/model"
	"github.com/iliyamo/travel-booking-admin/internal/repository"
)

// OfferInput is the writable part of an offer.
type OfferInput struct {
	Title               string
	Image               string
	Discount            string
	DiscountPercentage  float64
	ActivityID          uint64
	StartDate           *time.Time
	EndDate             *time.Time
	SelectedPackages    []uint64
	Description         string
	SelectedForHomepage bool
	Active              *bool
}

// PackageOffer is the best offer for one package, if any.
type PackageOffer struct {
	HasOffer           bool    `json:"hasOffer"`
	OfferID            uint64  `json:"offerId,omitempty"`
	OfferTitle         string  `json:"offerTitle,omitempty"`
	Discount           string  `json:"discount,omitempty"`
	DiscountPercentage float64 `json:"discountPercentage,omitempty"`
}

// OfferService manages discount campaigns.
type OfferService struct {
	offers     OfferStore
	activities ActivityStore
	sink       EventSink
	log        *zap.Logger
	now        func() time.Time
}

func NewOfferService(offers OfferStore, activities ActivityStore, sink EventSink, log *zap.Logger) *OfferService {
	if sink == nil {
		sink = NopSink{}
	}
	return &OfferService{offers: offers, activities: activities, sink: sink, log: log, now: time.Now}
}

// Create stores an active offer attributed to creator and announces it.
func (s *OfferService) Create(ctx context.Context, creator string, in OfferInput) (model.Offer, error) {
	o := model.Offer{Active: true, CreatedBy: creatorOrSystem(creator)}
	if err := s.apply(ctx, &o, in); err != nil {
		return model.Offer{}, err
	}
	if err := s.offers.Create(ctx, &o); err != nil {
		return model.Offer{}, err
	}
	s.log.Info("offer created", zap.Uint64("offer_id", o.ID), zap.Uint64("activity_id", o.ActivityID),
		zap.String("created_by", o.CreatedBy))
	s.sink.OfferPublished(ctx, model.OfferPublishedEvent{
		OfferID:            o.ID,
		Title:              o.Title,
		Image:              o.Image,
		DiscountPercentage: o.DiscountPercentage,
		ActivityID:         o.ActivityID,
		OccurredAt:         s.now().UTC().Format(time.RFC3339),
	})
	return o, nil
}

// Update replaces the offer's fields.  An empty creator keeps the stored
// attribution.
func (s *OfferService) Update(ctx context.Context, id uint64, creator string, in OfferInput) (model.Offer, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return model.Offer{}, err
	}
	if c := strings.TrimSpace(creator); c != "" {
		o.CreatedBy = c
	}
	if err := s.apply(ctx, &o, in); err != nil {
		return model.Offer{}, err
	}
	if err := s.offers.Update(ctx, &o); err != nil {
		if repository.IsNotFound(err) {
			return model.Offer{}, notFoundf("Offer not found with ID: %d", id)
		}
		return model.Offer{}, err
	}
	return o, nil
}

func (s *OfferService) apply(ctx context.Context, o *model.Offer, in OfferInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return invalidf("Offer title is required")
	}
	if in.DiscountPercentage < 0 || in.DiscountPercentage > 100 {
		return invalidf("Discount percentage must be between 0 and 100")
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return invalidf("End date must not be before start date")
	}
	act, err := s.activities.Get(ctx, in.ActivityID)
	if err != nil {
		if repository.IsNotFound(err) {
			return notFoundf("Activity not found")
		}
		return err
	}
	for _, pid := range in.SelectedPackages {
		if _, ok := act.Package(pid); !ok {
			return invalidf("Package %d does not belong to activity %d", pid, act.ID)
		}
	}

	o.Title = strings.TrimSpace(in.Title)
	o.Image = in.Image
	o.Discount = in.Discount
	o.DiscountPercentage = in.DiscountPercentage
	o.ActivityID = act.ID
	o.ActivityTitle = act.Title
	o.StartDate = in.StartDate
	o.EndDate = in.EndDate
	o.SelectedPackages = append([]uint64{}, in.SelectedPackages...)
	o.Description = in.Description
	o.SelectedForHomepage = in.SelectedForHomepage
	if in.Active != nil {
		o.Active = *in.Active
	}
	return nil
}

func (s *OfferService) Get(ctx context.Context, id uint64) (model.Offer, error) {
	o, err := s.offers.Get(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return model.Offer{}, notFoundf("Offer not found with ID: %d", id)
		}
		return model.Offer{}, err
	}
	return o, nil
}

func (s *OfferService) ListAll(ctx context.Context) ([]model.Offer, error) {
	return s.offers.List(ctx, repository.OfferFilter{})
}

func (s *OfferService) ListActive(ctx context.Context) ([]model.Offer, error) {
	return s.offers.List(ctx, repository.OfferFilter{ActiveOnly: true})
}

func (s *OfferService) ListByOwner(ctx context.Context, createdBy string) ([]model.Offer, error) {
	createdBy = strings.TrimSpace(createdBy)
	if createdBy == "" {
		return []model.Offer{}, nil
	}
	return s.offers.List(ctx, repository.OfferFilter{CreatedBy: createdBy})
}

func (s *OfferService) ListHomepage(ctx context.Context) ([]model.Offer, error) {
	return s.offers.List(ctx, repository.OfferFilter{ActiveOnly: true, HomepageOnly: true})
}

// ToggleHomepage sets the homepage flag, or flips it when selected is nil.
func (s *OfferService) ToggleHomepage(ctx context.Context, id uint64, selected *bool) (model.Offer, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return model.Offer{}, err
	}
	next := !o.SelectedForHomepage
	if selected != nil {
		next = *selected
	}
	if err := s.offers.SetHomepage(ctx, id, next); err != nil {
		return model.Offer{}, err
	}
	o.SelectedForHomepage = next
	return o, nil
}

func (s *OfferService) Delete(ctx context.Context, id uint64) error {
	if err := s.offers.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return notFoundf("Offer not found with ID: %d", id)
		}
		return err
	}
	return nil
}

func (s *OfferService) DeleteAll(ctx context.Context) (int64, error) {
	return s.offers.DeleteAll(ctx)
}

// BestPackageOffer returns the highest discount among the activity's active
// offers that are valid today and cover packageID.
func (s *OfferService) BestPackageOffer(ctx context.Context, activityID, packageID uint64) (PackageOffer, error) {
	if activityID == 0 || packageID == 0 {
		return PackageOffer{}, invalidf("Activity ID and package ID are required")
	}
	list, err := s.offers.List(ctx, repository.OfferFilter{ActiveOnly: true, ActivityID: activityID})
	if err != nil {
		return PackageOffer{}, err
	}
	today := s.now().UTC()
	var best *model.Offer
	for i := range list {
		o := &list[i]
		if !o.Active || !o.ValidOn(today) || !o.CoversPackage(packageID) {
			continue
		}
		if best == nil || o.DiscountPercentage > best.DiscountPercentage {
			best = o
		}
	}
	if best == nil {
		return PackageOffer{HasOffer: false}, nil
	}
	return PackageOffer{
		HasOffer:           true,
		OfferID:            best.ID,
		OfferTitle:         best.Title,
		Discount:           best.Discount,
		DiscountPercentage: best.DiscountPercentage,
	}, nil
}

func creatorOrSystem(creator string) string {
	if c := strings.TrimSpace(creator); c != "" {
		return c
	}
	return model.SystemCreator
}
