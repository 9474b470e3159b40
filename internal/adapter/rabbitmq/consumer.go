package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/tanvo/fraudgate/internal/infrastructure/metrics"
)

// HandlerFunc processes one message body. A nil return acknowledges the
// delivery; an error requeues it for another attempt.
type HandlerFunc func(ctx context.Context, body []byte) error

// Consumer runs a sequential manual-ack delivery loop over one durable queue
// bound to the transactions exchange. Prefetch is pinned at one so the ack
// for a message is the only thing that lets the next one in, which keeps
// per-queue processing ordered.
type Consumer struct {
	conn     *amqp.Connection
	exchange string
	queue    string
	handlers map[string]HandlerFunc
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewConsumer creates a consumer for the given queue. Metrics may be nil.
func NewConsumer(conn *amqp.Connection, exchange, queue string, m *metrics.Metrics, logger zerolog.Logger) *Consumer {
	return &Consumer{
		conn:     conn,
		exchange: exchange,
		queue:    queue,
		handlers: make(map[string]HandlerFunc),
		metrics:  m,
		logger:   logger,
	}
}

// Handle registers a handler for a routing key. Must be called before Start.
func (c *Consumer) Handle(routingKey string, handler HandlerFunc) {
	c.handlers[routingKey] = handler
}

// Start declares and binds the queue, then consumes until the context is
// cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %q: %w", c.queue, err)
	}

	for routingKey := range c.handlers {
		if err := ch.QueueBind(c.queue, routingKey, c.exchange, false, nil); err != nil {
			return fmt.Errorf("bind %q to %q: %w", c.queue, routingKey, err)
		}
	}

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %q: %w", c.queue, err)
	}

	c.logger.Info().Str("queue", c.queue).Msg("consumer started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Str("queue", c.queue).Msg("consumer shutting down")
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel for %q closed", c.queue)
			}

			c.dispatch(ctx, delivery)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, delivery amqp.Delivery) {
	handler, ok := c.handlers[delivery.RoutingKey]
	if !ok {
		c.logger.Warn().
			Str("routing_key", delivery.RoutingKey).
			Msg("no handler for routing key, dropping")

		c.count(delivery.RoutingKey, "dropped")

		if err := delivery.Ack(false); err != nil {
			c.logger.Error().Err(err).Msg("failed to ack unroutable delivery")
		}

		return
	}

	if err := handler(ctx, delivery.Body); err != nil {
		c.logger.Error().
			Err(err).
			Str("routing_key", delivery.RoutingKey).
			Str("message_id", delivery.MessageId).
			Msg("handler failed, requeueing")

		c.count(delivery.RoutingKey, "error")

		if nackErr := delivery.Nack(false, true); nackErr != nil {
			c.logger.Error().Err(nackErr).Msg("failed to nack delivery")
		}

		return
	}

	c.count(delivery.RoutingKey, "ok")

	if err := delivery.Ack(false); err != nil {
		c.logger.Error().Err(err).Msg("failed to ack delivery")
	}
}

func (c *Consumer) count(routingKey, result string) {
	if c.metrics != nil {
		c.metrics.ConsumerMessages.WithLabelValues(routingKey, result).Inc()
	}
}
