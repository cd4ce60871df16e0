// Package queue carries domain events over RabbitMQ.  Events travel in a
// small JSON envelope so one durable queue can hold every event type.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iliyamo/travel-booking-admin/internal/model"
)

// Event type names used in Envelope.Type.
const (
	TypeBookingStatus  = "booking.status"
	TypeOfferPublished = "offer.published"
)

// Envelope wraps one event on the wire.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Handler consumes decoded events.
type Handler interface {
	HandleBookingStatus(ctx context.Context, ev model.BookingStatusEvent) error
	HandleOfferPublished(ctx context.Context, ev model.OfferPublishedEvent) error
}

// Encode wraps payload in an envelope of the given type.
func Encode(typ string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return json.Marshal(Envelope{Type: typ, Payload: raw})
}

// Dispatch decodes body and hands the event to h.  Unknown types are an
// error so the consumer can reject the message.
func Dispatch(ctx context.Context, h Handler, body []byte) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}
	switch env.Type {
	case TypeBookingStatus:
		var ev model.BookingStatusEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return h.HandleBookingStatus(ctx, ev)
	case TypeOfferPublished:
		var ev model.OfferPublishedEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return h.HandleOfferPublished(ctx, ev)
	}
	return fmt.Errorf("unknown event type %q", env.Type)
}
