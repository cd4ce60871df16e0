package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/model"
	"github.com/iliyamo/travel-booking-admin/internal/repository"
)

// AdminDashboard summarises the whole platform.
type AdminDashboard struct {
	TotalUsers        int64                         `json:"totalUsers"`
	TotalActivities   int64                         `json:"totalActivities"`
	TotalBookings     int64                         `json:"totalBookings"`
	TotalOffers       int64                         `json:"totalOffers"`
	TotalRevenue      float64                       `json:"totalRevenue"`
	BookingsByStatus  map[model.BookingStatus]int64 `json:"bookingsByStatus"`
	RevenueByActivity []repository.ActivityRevenue  `json:"revenueByActivity"`
}

// OwnerDashboard summarises one activity owner's business.
type OwnerDashboard struct {
	OwnerEmail        string                        `json:"ownerEmail"`
	OwnerActivities   int64                         `json:"ownerActivities"`
	OwnerOffers       int64                         `json:"ownerOffers"`
	SelectedOffers    int64                         `json:"selectedOffers"`
	OwnerBookings     int64                         `json:"ownerBookings"`
	OwnerRevenue      float64                       `json:"ownerRevenue"`
	BookingsByStatus  map[model.BookingStatus]int64 `json:"bookingsByStatus"`
	RevenueByActivity []repository.ActivityRevenue  `json:"revenueByActivity"`
}

// ProfileInput is the editable part of a user's own profile.
type ProfileInput struct {
	FirstName   string
	LastName    string
	PhoneNumber *string
	NIC         *string
	Birthdate   *time.Time
	Gender      string
}

// AdminService serves dashboards and user management.
type AdminService struct {
	users      UserStore
	activities ActivityStore
	bookings   BookingStore
	offers     OfferStore
	log        *zap.Logger
}

func NewAdminService(users UserStore, activities ActivityStore, bookings BookingStore, offers OfferStore, log *zap.Logger) *AdminService {
	return &AdminService{users: users, activities: activities, bookings: bookings, offers: offers, log: log}
}

func (s *AdminService) Dashboard(ctx context.Context) (AdminDashboard, error) {
	var d AdminDashboard
	var err error
	if d.TotalUsers, err = s.users.Count(ctx); err != nil {
		return d, err
	}
	if d.TotalActivities, err = s.activities.Count(ctx, ""); err != nil {
		return d, err
	}
	if d.TotalOffers, err = s.offers.Count(ctx, "", false); err != nil {
		return d, err
	}
	stats, err := s.bookings.Stats(ctx, "")
	if err != nil {
		return d, err
	}
	d.TotalBookings = stats.Total
	d.TotalRevenue = stats.Revenue
	d.BookingsByStatus = stats.ByStatus
	if d.RevenueByActivity, err = s.bookings.RevenueByActivity(ctx, ""); err != nil {
		return d, err
	}
	return d, nil
}

// OwnerDashboard covers only activities, offers and bookings attributed to
// ownerEmail.
func (s *AdminService) OwnerDashboard(ctx context.Context, ownerEmail string) (OwnerDashboard, error) {
	d := OwnerDashboard{OwnerEmail: ownerEmail}
	var err error
	if d.OwnerActivities, err = s.activities.Count(ctx, ownerEmail); err != nil {
		return d, err
	}
	if d.OwnerOffers, err = s.offers.Count(ctx, ownerEmail, false); err != nil {
		return d, err
	}
	if d.SelectedOffers, err = s.offers.Count(ctx, ownerEmail, true); err != nil {
		return d, err
	}
	stats, err := s.bookings.Stats(ctx, ownerEmail)
	if err != nil {
		return d, err
	}
	d.OwnerBookings = stats.Total
	d.OwnerRevenue = stats.Revenue
	d.BookingsByStatus = stats.ByStatus
	if d.RevenueByActivity, err = s.bookings.RevenueByActivity(ctx, ownerEmail); err != nil {
		return d, err
	}
	return d, nil
}

func (s *AdminService) ListUsers(ctx context.Context) ([]model.User, error) {
	list, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.User{}
	}
	return list, nil
}

// UpdateUserRole assigns one of the known roles.
func (s *AdminService) UpdateUserRole(ctx context.Context, id uint64, role string) (model.User, error) {
	role = strings.ToUpper(strings.TrimSpace(role))
	if !model.ValidRole(role) {
		return model.User{}, invalidf("Invalid role: %s", role)
	}
	if err := s.users.UpdateRole(ctx, id, role); err != nil {
		if repository.IsNotFound(err) {
			return model.User{}, notFoundf("User not found with ID: %d", id)
		}
		return model.User{}, err
	}
	s.log.Info("user role updated", zap.Uint64("user_id", id), zap.String("role", role))
	return s.Profile(ctx, id)
}

// Profile returns a user by id.
func (s *AdminService) Profile(ctx context.Context, id uint64) (model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return model.User{}, notFoundf("User not found with ID: %d", id)
		}
		return model.User{}, err
	}
	return u, nil
}

// UpdateProfile writes the caller's own profile fields.
func (s *AdminService) UpdateProfile(ctx context.Context, id uint64, in ProfileInput) (model.User, error) {
	u, err := s.Profile(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if strings.TrimSpace(in.FirstName) != "" {
		u.FirstName = strings.TrimSpace(in.FirstName)
	}
	if strings.TrimSpace(in.LastName) != "" {
		u.LastName = strings.TrimSpace(in.LastName)
	}
	if in.PhoneNumber != nil {
		u.PhoneNumber = in.PhoneNumber
	}
	if in.NIC != nil {
		u.NIC = in.NIC
	}
	if in.Birthdate != nil {
		u.Birthdate = in.Birthdate
	}
	if in.Gender != "" {
		u.Gender = in.Gender
	}
	if err := s.users.UpdateProfile(ctx, &u); err != nil {
		return model.User{}, translateUserConflict(err)
	}
	return s.Profile(ctx, id)
}

func translateUserConflict(err error) error {
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return conflictf("Email already exists")
	case errors.Is(err, repository.ErrNICExists):
		return conflictf("NIC already exists")
	case errors.Is(err, repository.ErrPhoneExists):
		return conflictf("Phone number already exists")
	case errors.Is(err, repository.ErrNotFound):
		return notFoundf("User not found")
	}
	return err
}
