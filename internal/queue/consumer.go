package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const maxBackoff = 30 * time.Second

// Consumer reads events from the durable queue and hands them to a Handler.
type Consumer struct {
	url     string
	queue   string
	handler Handler
	log     *zap.Logger
}

// NewConsumer returns a Consumer for the broker at url.
func NewConsumer(url, queue string, h Handler, log *zap.Logger) *Consumer {
	return &Consumer{url: url, queue: queue, handler: h, log: log}
}

// Run connects and consumes until ctx is done, reconnecting with
// exponential backoff whenever the broker goes away.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("broker dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("consume loop ended; reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.log.Info("event consumer started", zap.String("queue", c.queue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.deliver(ctx, d)
		}
	}
}

// deliver acks handled messages and rejects failed ones without requeue so
// a poison message cannot loop.
func (c *Consumer) deliver(ctx context.Context, d amqp.Delivery) {
	if err := Dispatch(ctx, c.handler, d.Body); err != nil {
		c.log.Error("event handling failed", zap.Error(err), zap.Uint64("delivery_tag", d.DeliveryTag))
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
