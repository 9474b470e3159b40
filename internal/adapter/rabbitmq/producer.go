package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/tanvo/fraudgate/internal/domain"
	"github.com/tanvo/fraudgate/internal/usecase"
)

// publishChannel is the slice of *amqp.Channel the producer needs. Narrowed so
// tests can substitute a fake.
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Tx() error
	TxCommit() error
	TxRollback() error
	Close() error
}

// Producer implements usecase.EventProducer over a RabbitMQ topic exchange.
// Each call opens a fresh channel; batch publication runs the channel in
// transactional mode so the whole batch commits or none of it does.
type Producer struct {
	openChannel func() (publishChannel, error)
	exchange    string
	logger      zerolog.Logger
}

// NewProducer creates a producer bound to the given exchange.
func NewProducer(conn *amqp.Connection, exchange string, logger zerolog.Logger) *Producer {
	return &Producer{
		openChannel: func() (publishChannel, error) {
			return conn.Channel()
		},
		exchange: exchange,
		logger:   logger,
	}
}

// Publish sends a single message.
func (p *Producer) Publish(ctx context.Context, msg usecase.Message) error {
	ch, err := p.openChannel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	return p.publish(ctx, ch, msg)
}

// PublishBatch sends all messages inside one channel transaction. On any
// publish failure the transaction is rolled back and no message of the batch
// becomes visible to consumers.
func (p *Producer) PublishBatch(ctx context.Context, msgs []usecase.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	ch, err := p.openChannel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Tx(); err != nil {
		return fmt.Errorf("enter tx mode: %w", err)
	}

	for _, msg := range msgs {
		if err := p.publish(ctx, ch, msg); err != nil {
			if rbErr := ch.TxRollback(); rbErr != nil {
				p.logger.Error().Err(rbErr).Msg("failed to roll back publish batch")
			}

			return err
		}
	}

	if err := ch.TxCommit(); err != nil {
		return fmt.Errorf("commit publish batch: %w", err)
	}

	return nil
}

func (p *Producer) publish(ctx context.Context, ch publishChannel, msg usecase.Message) error {
	publishing, err := buildPublishing(msg)
	if err != nil {
		return err
	}

	if err := ch.PublishWithContext(ctx, p.exchange, msg.Topic, false, false, publishing); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Topic, err)
	}

	p.logger.Debug().
		Str("topic", msg.Topic).
		Str("message_id", msg.MessageID).
		Str("correlation_id", msg.CorrelationID).
		Msg("message published")

	return nil
}

// buildPublishing converts a bus message into an AMQP publishing. Delivery is
// persistent; consumers correlate on the headers, not the body.
func buildPublishing(msg usecase.Message) (amqp.Publishing, error) {
	body, err := json.Marshal(msg.Payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal payload for %s: %w", msg.Topic, err)
	}

	return amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     msg.MessageID,
		CorrelationId: msg.CorrelationID,
		Timestamp:     msg.OccurredAt,
		Headers: amqp.Table{
			"message-key":   msg.Key,
			"causation-id":  msg.CausationID,
			"occurredAt":    msg.OccurredAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			"schemaVersion": domain.SchemaVersion,
		},
		Body: body,
	}, nil
}
