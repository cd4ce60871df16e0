package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/travel-booking-admin/internal/model"
)

// TicketClaims is the JSON payload printed in a booking's QR code.
type TicketClaims struct {
	TicketID         string `json:"ticketId"`
	EventTitle       string `json:"eventTitle"`
	Date             string `json:"date"`
	Persons          int    `json:"persons"`
	OrderNumber      string `json:"orderNumber"`
	Status           string `json:"status"`
	VerificationCode string `json:"verificationCode"`
	Timestamp        int64  `json:"timestamp"`
}

// EncodeTicket builds the QR payload for b issued at at.
func EncodeTicket(b model.Booking, at time.Time) (string, error) {
	ts := at.UnixMilli()
	claims := TicketClaims{
		TicketID:         b.ID,
		EventTitle:       b.Title,
		Date:             b.BookingDate,
		Persons:          b.TotalPersons,
		OrderNumber:      b.OrderNumber,
		Status:           string(b.Status),
		VerificationCode: fmt.Sprintf("VER-%s-%d", b.ID, ts),
		Timestamp:        ts,
	}
	out, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("encode ticket: %w", err)
	}
	return string(out), nil
}

// DecodeTicket parses a scanned QR payload.  The ticket id and verification
// code are mandatory.
func DecodeTicket(raw string) (TicketClaims, error) {
	if strings.TrimSpace(raw) == "" {
		return TicketClaims{}, invalidf("QR code data is required")
	}
	var c TicketClaims
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return TicketClaims{}, invalidf("Invalid QR code format")
	}
	if c.TicketID == "" || c.VerificationCode == "" {
		return TicketClaims{}, invalidf("Invalid QR code format - missing required fields")
	}
	return c, nil
}

// Match compares the printed fields against the stored booking, in the
// order a door scanner reports them.
func (c TicketClaims) Match(b model.Booking) error {
	switch {
	case c.EventTitle != b.Title:
		return invalidf("QR code event title does not match booking")
	case c.Date != b.BookingDate:
		return invalidf("QR code date does not match booking")
	case c.Persons != b.TotalPersons:
		return invalidf("QR code person count does not match booking")
	case c.OrderNumber != b.OrderNumber:
		return invalidf("QR code order number does not match booking")
	}
	return nil
}
