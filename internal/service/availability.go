package service

import (
	"context"
	"time"

	"github.com/iliyamo/travel-booking-admin/internal/repository"
)

// AvailabilityQuery asks whether an activity (or one of its packages) has
// room on a date.
type AvailabilityQuery struct {
	ActivityID     uint64
	PackageID      *uint64
	Date           string
	RequestedCount *int
}

// Availability is the answer to an AvailabilityQuery.  BookedCount always
// covers the whole activity on the date; PackageBooked is the named
// package's share.  AvailableSpots applies both limits.
type Availability struct {
	Available         bool    `json:"available"`
	ActivityID        uint64  `json:"activityId"`
	PackageID         *uint64 `json:"packageId,omitempty"`
	Date              string  `json:"date"`
	TotalAvailability int     `json:"totalAvailability"`
	BookedCount       int     `json:"bookedCount"`
	PackageBooked     *int    `json:"packageBookedCount,omitempty"`
	AvailableSpots    int     `json:"availableSpots"`
	RequestedCount    *int    `json:"requestedCount,omitempty"`
	Message           string  `json:"message"`
}

// AvailabilityService answers read-only capacity questions.  Booking
// creation repeats the check under a lock, so an answer here is advisory.
type AvailabilityService struct {
	activities ActivityStore
	bookings   BookingStore
	now        func() time.Time
	loc        *time.Location
}

func NewAvailabilityService(activities ActivityStore, bookings BookingStore) *AvailabilityService {
	return &AvailabilityService{activities: activities, bookings: bookings, now: time.Now, loc: time.Local}
}

// SetLocation sets the zone whose calendar decides which dates are in the
// past.  A nil loc keeps the server's local zone.
func (s *AvailabilityService) SetLocation(loc *time.Location) {
	if loc != nil {
		s.loc = loc
	}
}

func (s *AvailabilityService) Check(ctx context.Context, q AvailabilityQuery) (Availability, error) {
	if q.ActivityID == 0 {
		return Availability{}, invalidf("Activity ID is required")
	}
	if q.Date == "" {
		return Availability{}, invalidf("Date is required")
	}
	date, err := parseBookingDate(q.Date, s.now(), s.loc)
	if err != nil {
		return Availability{}, err
	}

	act, err := s.activities.Get(ctx, q.ActivityID)
	if err != nil {
		if repository.IsNotFound(err) {
			return Availability{}, notFoundf("Activity not found")
		}
		return Availability{}, err
	}
	booked, err := s.bookings.BookedPersons(ctx, act.ID, date, nil)
	if err != nil {
		return Availability{}, err
	}
	snap := repository.CapacitySnapshot{Capacity: act.Capacity(), Booked: booked}
	if q.PackageID != nil {
		p, found := act.Package(*q.PackageID)
		if !found {
			return Availability{}, notFoundf("Package not found")
		}
		pkgBooked, err := s.bookings.BookedPersons(ctx, act.ID, date, q.PackageID)
		if err != nil {
			return Availability{}, err
		}
		snap.Package = &repository.PackageLoad{ID: p.ID, Capacity: p.Availability, Booked: pkgBooked}
	}
	spots := snap.Available()

	res := Availability{
		ActivityID:        act.ID,
		PackageID:         q.PackageID,
		Date:              date,
		TotalAvailability: snap.Capacity,
		BookedCount:       booked,
		AvailableSpots:    spots,
		RequestedCount:    q.RequestedCount,
	}
	if snap.Package != nil {
		res.TotalAvailability = snap.Package.Capacity
		res.PackageBooked = &snap.Package.Booked
	}
	switch {
	case spots == 0:
		res.Message = "This activity is fully booked for the selected date"
	case q.RequestedCount != nil && *q.RequestedCount > spots:
		res.Message = "Not enough availability for the requested number of people"
	default:
		res.Available = true
		res.Message = "Available"
	}
	return res, nil
}
