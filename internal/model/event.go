package model

// BookingStatusEvent is emitted when a booking is confirmed or completed.
// It carries what the notification dispatcher needs without reading the
// booking again.
type BookingStatusEvent struct {
	BookingID   string        `json:"booking_id"`
	OrderNumber string        `json:"order_number"`
	UserID      uint64        `json:"user_id"`
	ActivityID  uint64        `json:"activity_id"`
	Title       string        `json:"title"`
	BookingDate string        `json:"booking_date"`
	Status      BookingStatus `json:"status"`
	TotalPrice  float64       `json:"total_price"`
	OccurredAt  string        `json:"occurred_at"`
}

// OfferPublishedEvent is emitted when a new offer is saved.
type OfferPublishedEvent struct {
	OfferID            uint64  `json:"offer_id"`
	Title              string  `json:"title"`
	Image              string  `json:"image"`
	DiscountPercentage float64 `json:"discount_percentage"`
	ActivityID         uint64  `json:"activity_id"`
	OccurredAt         string  `json:"occurred_at"`
}
