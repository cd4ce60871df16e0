package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/model"
	"github.com/iliyamo/travel-booking-admin/internal/repository"
)

func day(s string) *time.Time {
	t, err := time.Parse(model.BookingDateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestBestPackageOffer(t *testing.T) {
	offers := []model.Offer{
		{ID: 1, Title: "All packages", Active: true, ActivityID: 2, DiscountPercentage: 10},
		{ID: 2, Title: "Boat only", Active: true, ActivityID: 2, DiscountPercentage: 25, SelectedPackages: []uint64{21}},
		{ID: 3, Title: "Expired", Active: true, ActivityID: 2, DiscountPercentage: 50, EndDate: day("2030-01-09")},
		{ID: 4, Title: "Future", Active: true, ActivityID: 2, DiscountPercentage: 40, StartDate: day("2030-02-01")},
		{ID: 5, Title: "Inactive", Active: false, ActivityID: 2, DiscountPercentage: 60},
		{ID: 6, Title: "Today only", Active: true, ActivityID: 2, DiscountPercentage: 20, StartDate: day("2030-01-10"), EndDate: day("2030-01-10"), SelectedPackages: []uint64{22}},
	}
	store := &fakeOffers{
		ListFunc: func(_ context.Context, f repository.OfferFilter) ([]model.Offer, error) {
			assert.True(t, f.ActiveOnly)
			assert.Equal(t, uint64(2), f.ActivityID)
			return offers, nil
		},
	}
	s := NewOfferService(store, newMemActivities(), nil, zap.NewNop())
	s.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	got, err := s.BestPackageOffer(ctx, 2, 21)
	require.NoError(t, err)
	assert.True(t, got.HasOffer)
	assert.Equal(t, uint64(2), got.OfferID)
	assert.Equal(t, 25.0, got.DiscountPercentage)

	got, err = s.BestPackageOffer(ctx, 2, 22)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), got.OfferID)

	got, err = s.BestPackageOffer(ctx, 2, 23)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.OfferID)

	offers = nil
	got, err = s.BestPackageOffer(ctx, 2, 21)
	require.NoError(t, err)
	assert.False(t, got.HasOffer)

	_, err = s.BestPackageOffer(ctx, 0, 21)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateOffer_PublishesEvent(t *testing.T) {
	acts := newMemActivities(model.Activity{ID: 2, Title: "Whale Watching",
		Packages: []model.Package{{ID: 21, Name: "Boat"}}})
	var stored model.Offer
	store := &fakeOffers{
		CreateFunc: func(_ context.Context, o *model.Offer) error {
			o.ID = 77
			stored = *o
			return nil
		},
	}
	sink := &recordingSink{}
	s := NewOfferService(store, acts, sink, zap.NewNop())
	s.now = func() time.Time { return fixedNow }

	o, err := s.Create(context.Background(), "", OfferInput{
		Title: "Monsoon Deal", Image: "img.png", DiscountPercentage: 15, ActivityID: 2, SelectedPackages: []uint64{21},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(77), o.ID)
	assert.True(t, stored.Active)
	assert.Equal(t, model.SystemCreator, stored.CreatedBy)
	assert.Equal(t, "Whale Watching", stored.ActivityTitle)

	require.Len(t, sink.offers, 1)
	assert.Equal(t, uint64(77), sink.offers[0].OfferID)
	assert.Equal(t, 15.0, sink.offers[0].DiscountPercentage)
}

func TestCreateOffer_Validation(t *testing.T) {
	acts := newMemActivities(model.Activity{ID: 2, Packages: []model.Package{{ID: 21}}})
	s := NewOfferService(&fakeOffers{}, acts, nil, zap.NewNop())
	ctx := context.Background()

	_, err := s.Create(ctx, "x", OfferInput{ActivityID: 2})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.Create(ctx, "x", OfferInput{Title: "t", ActivityID: 2, DiscountPercentage: 120})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.Create(ctx, "x", OfferInput{Title: "t", ActivityID: 3})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Create(ctx, "x", OfferInput{Title: "t", ActivityID: 2, SelectedPackages: []uint64{99}})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.Create(ctx, "x", OfferInput{Title: "t", ActivityID: 2, StartDate: day("2030-02-01"), EndDate: day("2030-01-01")})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateOffer_KeepsCreatorWhenEmpty(t *testing.T) {
	acts := newMemActivities(model.Activity{ID: 2, Title: "Whale Watching"})
	current := model.Offer{ID: 5, Title: "Old", CreatedBy: ownerMail, ActivityID: 2, Active: true}
	store := &fakeOffers{
		GetFunc: func(_ context.Context, id uint64) (model.Offer, error) {
			if id != 5 {
				return model.Offer{}, repository.ErrNotFound
			}
			return current, nil
		},
		UpdateFunc: func(_ context.Context, o *model.Offer) error {
			current = *o
			return nil
		},
	}
	s := NewOfferService(store, acts, nil, zap.NewNop())
	ctx := context.Background()

	o, err := s.Update(ctx, 5, "", OfferInput{Title: "New", ActivityID: 2})
	require.NoError(t, err)
	assert.Equal(t, ownerMail, o.CreatedBy)
	assert.Equal(t, "New", current.Title)

	_, err = s.Update(ctx, 6, "", OfferInput{Title: "New", ActivityID: 2})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggleHomepage(t *testing.T) {
	var setTo []bool
	store := &fakeOffers{
		GetFunc: func(context.Context, uint64) (model.Offer, error) {
			return model.Offer{ID: 5, SelectedForHomepage: true}, nil
		},
		SetHomepageFunc: func(_ context.Context, _ uint64, selected bool) error {
			setTo = append(setTo, selected)
			return nil
		},
	}
	s := NewOfferService(store, newMemActivities(), nil, zap.NewNop())
	ctx := context.Background()

	o, err := s.ToggleHomepage(ctx, 5, nil)
	require.NoError(t, err)
	assert.False(t, o.SelectedForHomepage)
	yes := true
	o, err = s.ToggleHomepage(ctx, 5, &yes)
	require.NoError(t, err)
	assert.True(t, o.SelectedForHomepage)
	assert.Equal(t, []bool{false, true}, setTo)
}
