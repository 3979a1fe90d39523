package rabbit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Mark48Evo/gps-influxdb/internal/domain/models"
	"github.com/Mark48Evo/gps-influxdb/internal/domain/types"
	"github.com/Mark48Evo/gps-influxdb/pkg/logger"
	wrap "github.com/Mark48Evo/gps-influxdb/pkg/logger/wrapper"
	"github.com/Mark48Evo/gps-influxdb/pkg/metrics"
	"github.com/Mark48Evo/gps-influxdb/pkg/rabbit"
)

const (
	consumerTag   = "gps-influxdb"
	prefetchCount = 50
	retryDelay    = 2 * time.Second
)

// NavPVTHandler receives every nav.pvt event. HandleUndecodable gets the
// events whose data could not be decoded into a fix. A non-nil error from
// either method rejects the delivery.
type NavPVTHandler = interface {
	HandleNavPVT(ctx context.Context, fix models.NavPVT) error
	HandleUndecodable(ctx context.Context, err error) error
}

// GPSConsumer reads decoder events from RabbitMQ and dispatches nav.pvt
// fixes one at a time in delivery order.
type GPSConsumer struct {
	client   *rabbit.RabbitMQ
	exchange string
	queue    string
	metrics  *metrics.Pipeline
	l        logger.Logger
}

func NewGPSConsumer(client *rabbit.RabbitMQ, exchange, queue string, m *metrics.Pipeline, l logger.Logger) *GPSConsumer {
	return &GPSConsumer{
		client:   client,
		exchange: exchange,
		queue:    queue,
		metrics:  m,
		l:        l,
	}
}

// setup declares the decoder exchange and our queue, binds nav.pvt and
// starts a manual-ack consumer.
func (c *GPSConsumer) setup(ch *amqp.Channel) (<-chan amqp.Delivery, error) {
	const op = "GPSConsumer.setup"

	if err := ch.ExchangeDeclare(
		c.exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("%s: failed to declare exchange: %w", op, err)
	}

	q, err := ch.QueueDeclare(
		c.queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to declare queue: %w", op, err)
	}

	if err := ch.QueueBind(q.Name, string(types.EventNavPVT), c.exchange, false, nil); err != nil {
		return nil, fmt.Errorf("%s: failed to bind queue: %w", op, err)
	}

	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set qos: %w", op, err)
	}

	msgs, err := ch.Consume(
		q.Name,
		consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to register consumer: %w", op, err)
	}

	return msgs, nil
}

// ConsumeNavPVT blocks until ctx is cancelled. When the delivery channel
// closes it waits for the client to reconnect and subscribes again.
func (c *GPSConsumer) ConsumeNavPVT(ctx context.Context, h NavPVTHandler) error {
	const op = "GPSConsumer.ConsumeNavPVT"
	ctx = wrap.WithAction(ctx, types.ActionConsumeEvents)

	for {
		if ctx.Err() != nil {
			c.l.Debug(ctx, "gps consumer stopped by context")
			return nil
		}

		if err := c.client.EnsureConnection(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, rabbit.ErrClosed) {
				return fmt.Errorf("%s: %w", op, err)
			}
			c.l.Error(ctx, "ensure connection failed", err, "op", op)
			sleep(ctx, retryDelay)
			continue
		}

		msgs, err := c.setup(c.client.Channel())
		if err != nil {
			c.l.Error(ctx, "consume failed", err, "op", op)
			sleep(ctx, retryDelay)
			continue
		}

		c.l.Info(ctx, "start consuming gps events", "exchange", c.exchange, "queue", c.queue)

	consumeLoop:
		for {
			select {
			case <-ctx.Done():
				c.l.Info(ctx, "gps consumer shutting down", "op", op)
				return nil

			case msg, ok := <-msgs:
				if !ok {
					c.l.Warn(ctx, "message channel closed, reconnecting...", "op", op)
					sleep(ctx, retryDelay)
					break consumeLoop
				}

				c.handleDelivery(ctx, h, msg)
			}
		}
	}
}

// handleDelivery decodes one delivery and hands nav.pvt events to h. The
// delivery is acked once h returns nil, regardless of the later write.
func (c *GPSConsumer) handleDelivery(ctx context.Context, h NavPVTHandler, msg amqp.Delivery) {
	requestID := msg.CorrelationId
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx = wrap.WithRequestID(ctx, requestID)

	event, err := decodePayload(msg)
	if err != nil {
		c.reject(ctx, msg, "undecodable event", err)
		return
	}

	kind := event.kind
	if kind == "" {
		kind = types.EventKind(msg.RoutingKey)
	}
	ctx = wrap.WithEventKind(ctx, string(kind))

	if kind != types.EventNavPVT {
		c.l.Debug(ctx, "skipping event")
		c.ack(ctx, msg)
		return
	}

	fix, err := event.decodeFix()
	if err != nil {
		// still a nav.pvt event, so it goes through the handler's counting path
		err = h.HandleUndecodable(ctx, fmt.Errorf("%w: %w", types.ErrMalformedRecord, err))
		if err == nil {
			err = types.ErrMalformedRecord
		}
		c.reject(ctx, msg, "undecodable fix", err)
		return
	}

	if err := h.HandleNavPVT(ctx, fix); err != nil {
		c.reject(ctx, msg, "fix rejected by handler", err)
		return
	}

	c.ack(ctx, msg)
	c.metrics.RecordRabbitMQConsume(c.queue, nil)
}

func (c *GPSConsumer) ack(ctx context.Context, msg amqp.Delivery) {
	if err := msg.Ack(false); err != nil {
		c.l.Warn(ctx, "ack failed", "error", err.Error())
	}
}

// reject drops the delivery without requeue
func (c *GPSConsumer) reject(ctx context.Context, msg amqp.Delivery, reason string, err error) {
	c.l.Warn(ctx, "dropping message", "reason", reason, "error", err.Error())
	c.metrics.RecordRabbitMQConsume(c.queue, err)

	if nackErr := msg.Nack(false, false); nackErr != nil {
		c.l.Warn(ctx, "nack failed", "error", nackErr.Error())
	}
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
