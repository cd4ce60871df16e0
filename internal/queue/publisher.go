package queue

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/model"
)

// publishTimeout bounds one publish attempt, dial included.
const publishTimeout = 5 * time.Second

// Publisher sends domain events to a durable queue.  Publishing happens in
// a goroutine and failures are only logged, so a broker outage never fails
// the request that raised the event.
type Publisher struct {
	url   string
	queue string
	log   *zap.Logger

	// send delivers one encoded message; replaced in tests.
	send func(ctx context.Context, body []byte) error
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url, queue string, log *zap.Logger) *Publisher {
	p := &Publisher{url: url, queue: queue, log: log}
	p.send = p.publish
	return p
}

// BookingStatusChanged publishes a booking status event.
func (p *Publisher) BookingStatusChanged(ctx context.Context, ev model.BookingStatusEvent) {
	p.async(ctx, TypeBookingStatus, ev, zap.String("booking_id", ev.BookingID))
}

// OfferPublished publishes a new-offer event.
func (p *Publisher) OfferPublished(ctx context.Context, ev model.OfferPublishedEvent) {
	p.async(ctx, TypeOfferPublished, ev, zap.Uint64("offer_id", ev.OfferID))
}

func (p *Publisher) async(ctx context.Context, typ string, payload any, field zap.Field) {
	body, err := Encode(typ, payload)
	if err != nil {
		p.log.Error("event encode failed", zap.String("type", typ), field, zap.Error(err))
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		if err := p.send(ctx, body); err != nil {
			p.log.Warn("event publish failed", zap.String("type", typ), field, zap.Error(err))
			return
		}
		p.log.Debug("event published", zap.String("type", typ), field)
	}()
}

// publish opens a connection, declares the queue and sends one persistent
// message on the default exchange.
func (p *Publisher) publish(ctx context.Context, body []byte) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
