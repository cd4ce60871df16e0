package service

import (
	"context"
	"time"

	"github.com/iliyamo/travel-booking-admin/internal/model"
	"github.com/iliyamo/travel-booking-admin/internal/repository"
)

// The interfaces below are the slices of the repository layer each service
// needs.  *repository.XRepo values satisfy them; tests substitute fakes.

// UserStore reads and updates users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	Exists(ctx context.Context, id uint64) (bool, error)
	List(ctx context.Context) ([]model.User, error)
	Count(ctx context.Context) (int64, error)
	UpdateRole(ctx context.Context, id uint64, role string) error
	UpdateProfile(ctx context.Context, u *model.User) error
}

// ActivityStore persists activities with their packages.
type ActivityStore interface {
	Create(ctx context.Context, a *model.Activity) error
	Update(ctx context.Context, a *model.Activity) error
	Get(ctx context.Context, id uint64) (model.Activity, error)
	List(ctx context.Context, f repository.ActivityFilter) ([]model.Activity, int64, error)
	Delete(ctx context.Context, id uint64) error
	DeleteAll(ctx context.Context) (int64, error)
	Count(ctx context.Context, createdBy string) (int64, error)
}

// BookingStore persists bookings.
type BookingStore interface {
	CreateWithinCapacity(ctx context.Context, b *model.Booking) (repository.CapacitySnapshot, error)
	BookedPersons(ctx context.Context, activityID uint64, date string, packageID *uint64) (int, error)
	Get(ctx context.Context, id string) (model.Booking, error)
	List(ctx context.Context, f repository.BookingFilter) ([]model.Booking, error)
	UpdateStatus(ctx context.Context, id string, status model.BookingStatus) error
	UpdateQRCode(ctx context.Context, id, data string) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
	Stats(ctx context.Context, ownerEmail string) (repository.BookingStats, error)
	RevenueByActivity(ctx context.Context, ownerEmail string) ([]repository.ActivityRevenue, error)
}

// OfferStore persists offers.
type OfferStore interface {
	Create(ctx context.Context, o *model.Offer) error
	Update(ctx context.Context, o *model.Offer) error
	SetHomepage(ctx context.Context, id uint64, selected bool) error
	Get(ctx context.Context, id uint64) (model.Offer, error)
	List(ctx context.Context, f repository.OfferFilter) ([]model.Offer, error)
	Count(ctx context.Context, createdBy string, homepageOnly bool) (int64, error)
	Delete(ctx context.Context, id uint64) error
	DeleteAll(ctx context.Context) (int64, error)
}

// NotificationStore persists notifications and read markers.
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	Update(ctx context.Context, n *model.Notification) error
	Get(ctx context.Context, id uint64) (model.Notification, error)
	ListForUser(ctx context.Context, userID uint64, role string, now time.Time, limit, offset int) ([]model.UserNotification, int64, error)
	UnreadCount(ctx context.Context, userID uint64, role string, now time.Time) (int64, error)
	MarkRead(ctx context.Context, notificationID, userID uint64, at time.Time) error
	MarkAllRead(ctx context.Context, userID uint64, role string, now time.Time) (int64, error)
	ListActive(ctx context.Context, limit, offset int) ([]model.Notification, int64, error)
	Deactivate(ctx context.Context, id uint64) error
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// Page is one slice of a paged listing.  Page is zero-based.
type Page[T any] struct {
	Items []T
	Page  int
	Size  int
	Total int64
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// normalizePage clamps page and size and returns the row offset.
func normalizePage(page, size int) (int, int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size, page * size
}
