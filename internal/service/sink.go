package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/model"
)

// EventSink receives domain events.  Implementations must not block the
// caller and must not report failures back to it: a lost notification never
// fails the request that caused it.
type EventSink interface {
	BookingStatusChanged(ctx context.Context, ev model.BookingStatusEvent)
	OfferPublished(ctx context.Context, ev model.OfferPublishedEvent)
}

// EventHandler consumes domain events.  NotificationService implements it.
type EventHandler interface {
	HandleBookingStatus(ctx context.Context, ev model.BookingStatusEvent) error
	HandleOfferPublished(ctx context.Context, ev model.OfferPublishedEvent) error
}

// DirectSink delivers events to a handler in a new goroutine of the same
// process.  It is used when no message broker is configured.
type DirectSink struct {
	handler EventHandler
	log     *zap.Logger
}

func NewDirectSink(h EventHandler, log *zap.Logger) *DirectSink {
	return &DirectSink{handler: h, log: log}
}

func (s *DirectSink) BookingStatusChanged(ctx context.Context, ev model.BookingStatusEvent) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := s.handler.HandleBookingStatus(ctx, ev); err != nil {
			s.log.Warn("booking status notification failed",
				zap.String("booking_id", ev.BookingID), zap.String("status", string(ev.Status)), zap.Error(err))
		}
	}()
}

func (s *DirectSink) OfferPublished(ctx context.Context, ev model.OfferPublishedEvent) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := s.handler.HandleOfferPublished(ctx, ev); err != nil {
			s.log.Warn("offer notification failed", zap.Uint64("offer_id", ev.OfferID), zap.Error(err))
		}
	}()
}

// NopSink drops every event.
type NopSink struct{}

func (NopSink) BookingStatusChanged(context.Context, model.BookingStatusEvent) {}

func (NopSink) OfferPublished(context.Context, model.OfferPublishedEvent) {}
