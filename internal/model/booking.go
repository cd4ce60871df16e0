package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCompleted BookingStatus = "COMPLETED"
	StatusCancelled BookingStatus = "CANCELLED"
)

// BookingStatuses lists every status in lifecycle order.
var BookingStatuses = []BookingStatus{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}

// ParseBookingStatus normalizes s and reports whether it names a status.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	st := BookingStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range BookingStatuses {
		if st == known {
			return st, true
		}
	}
	return "", false
}

// transitions holds the allowed forward moves.  COMPLETED and CANCELLED
// have no entry and are therefore terminal.
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether a booking in status from may move to to.
// Staying in the same status is not a transition and returns false; callers
// treat it as a no-op.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s BookingStatus) Terminal() bool { return len(transitions[s]) == 0 }

// CountsCapacity reports whether a booking in this status holds spots.
func (s BookingStatus) CountsCapacity() bool { return s != StatusCancelled }

// BookingDateLayout is the calendar-date format of Booking.BookingDate.
const BookingDateLayout = "2006-01-02"

// Booking is the transactional record of persons booked against an
// activity (and optionally one of its packages) for a date.  ActivityID and
// PackageID are weak references: the catalog may change after booking, so
// the title, location and price breakdown are stored as a snapshot.  Only
// Status and QRCodeData change after creation.
type Booking struct {
	ID                 string        `json:"id"`
	OrderNumber        string        `json:"orderNumber"`
	UserID             uint64        `json:"userId"`
	ActivityID         uint64        `json:"activityId"`
	PackageID          *uint64       `json:"packageId,omitempty"`
	PackageName        string        `json:"packageName,omitempty"`
	Title              string        `json:"title"`
	Location           string        `json:"location"`
	Image              string        `json:"image,omitempty"`
	Description        string        `json:"description,omitempty"`
	BookingDate        string        `json:"bookingDate"`
	BookingTime        string        `json:"bookingTime,omitempty"`
	Status             BookingStatus `json:"status"`
	BasePrice          float64       `json:"basePrice"`
	ServiceFee         float64       `json:"serviceFee"`
	Tax                float64       `json:"tax"`
	TotalPrice         float64       `json:"totalPrice"`
	TotalPersons       int           `json:"totalPersons"`
	PeopleCounts       PeopleCounts  `json:"peopleCounts"`
	PaymentMethod      string        `json:"paymentMethod,omitempty"`
	HasDiscount        bool          `json:"hasDiscount"`
	DiscountPercentage float64       `json:"discountPercentage,omitempty"`
	OfferTitle         string        `json:"offerTitle,omitempty"`
	ContactEmail       string        `json:"contactEmail"`
	ContactPhone       string        `json:"contactPhone,omitempty"`
	TicketInstructions string        `json:"ticketInstructions"`
	Itinerary          string        `json:"itinerary"`
	CancellationPolicy string        `json:"cancellationPolicy"`
	QRCodeData         string        `json:"qrCodeData"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// PeopleCounts maps a person type ("foreignAdult", "localKid", ...) to the
// number of persons of that type.  It is persisted as a JSON text column.
type PeopleCounts map[string]int

// Total sums all counts.
func (p PeopleCounts) Total() int {
	n := 0
	for _, c := range p {
		n += c
	}
	return n
}

// Encode returns the stored text form.  An empty map encodes as "{}".
func (p PeopleCounts) Encode() (string, error) {
	if len(p) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]int(p))
	if err != nil {
		return "", fmt.Errorf("encode people counts: %w", err)
	}
	return string(b), nil
}

// DecodePeopleCounts parses the stored text form.  Empty input yields an
// empty map.
func DecodePeopleCounts(s string) (PeopleCounts, error) {
	out := PeopleCounts{}
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decode people counts: %w", err)
	}
	return out, nil
}

// BookingView is the booking snapshot returned to clients: the stored row
// plus the resolved package features and the booking user's identity.
type BookingView struct {
	Booking
	Features  []string `json:"features"`
	UserEmail string   `json:"userEmail"`
	UserName  string   `json:"userName"`
}
