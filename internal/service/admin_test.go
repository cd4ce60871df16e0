package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/model"
)

func TestDashboards(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	p11, p21 := uint64(11), uint64(21)
	_, err := f.engine.Create(ctx, alice.Email, CreateBookingInput{ActivityID: 1, PackageID: &p11, BookingDate: bookingDay, TotalPersons: 1, TotalPrice: 50})
	require.NoError(t, err)
	b2, err := f.engine.Create(ctx, bob.Email, CreateBookingInput{ActivityID: 2, PackageID: &p21, BookingDate: bookingDay, TotalPersons: 1, TotalPrice: 80})
	require.NoError(t, err)
	_, err = f.engine.Cancel(ctx, NewActor(bob, ScopeSelf), b2.ID)
	require.NoError(t, err)

	offers := &fakeOffers{
		CountFunc: func(_ context.Context, createdBy string, homepageOnly bool) (int64, error) {
			switch {
			case createdBy == "":
				return 5, nil
			case homepageOnly:
				return 1, nil
			}
			return 2, nil
		},
	}
	s := NewAdminService(f.users, f.activities, f.bookings, offers, zap.NewNop())

	d, err := s.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), d.TotalUsers)
	assert.Equal(t, int64(2), d.TotalActivities)
	assert.Equal(t, int64(2), d.TotalBookings)
	assert.Equal(t, int64(5), d.TotalOffers)
	assert.Equal(t, 50.0, d.TotalRevenue)
	assert.Equal(t, int64(1), d.BookingsByStatus[model.StatusCancelled])

	od, err := s.OwnerDashboard(ctx, ownerMail)
	require.NoError(t, err)
	assert.Equal(t, int64(1), od.OwnerActivities)
	assert.Equal(t, int64(2), od.OwnerOffers)
	assert.Equal(t, int64(1), od.SelectedOffers)
	assert.Equal(t, int64(1), od.OwnerBookings)
	assert.Equal(t, 50.0, od.OwnerRevenue)
}

func TestUserManagement(t *testing.T) {
	users := newMemUsers(alice, admin)
	s := NewAdminService(users, newMemActivities(), nil, nil, zap.NewNop())
	ctx := context.Background()

	list, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	u, err := s.UpdateUserRole(ctx, alice.ID, "activity_owner")
	require.NoError(t, err)
	assert.Equal(t, model.RoleActivityOwner, u.Role)

	_, err = s.UpdateUserRole(ctx, alice.ID, "ROOT")
	assert.ErrorIs(t, err, ErrInvalidInput)
	msg, _ := Message(err)
	assert.Equal(t, "Invalid role: ROOT", msg)
	_, err = s.UpdateUserRole(ctx, 42, model.RoleUser)
	assert.ErrorIs(t, err, ErrNotFound)

	phone := "+94770000000"
	u, err = s.UpdateProfile(ctx, alice.ID, ProfileInput{FirstName: " Alicia ", PhoneNumber: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", u.FirstName)
	assert.Equal(t, "Smith", u.LastName)
	require.NotNil(t, u.PhoneNumber)
	assert.Equal(t, phone, *u.PhoneNumber)
}
