package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanvo/fraudgate/internal/domain"
	"github.com/tanvo/fraudgate/internal/infrastructure/metrics"
	"github.com/tanvo/fraudgate/internal/usecase"
)

// Publisher relays outbox rows to the bus. Rows are fetched oldest first and
// the whole batch is published transactionally before any row is marked, so a
// crash between send and mark only ever causes duplicates, never loss.
type Publisher struct {
	outboxRepo usecase.OutboxRepository
	producer   usecase.EventProducer
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	batchSize  int
	interval   time.Duration
	retention  time.Duration
}

// Config for Publisher.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Producer   usecase.EventProducer
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
	BatchSize  int
	Interval   time.Duration
	Retention  time.Duration // 0 disables pruning of published rows
}

// NewPublisher creates a new outbox Publisher.
func NewPublisher(cfg Config) *Publisher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 200
	}
	if cfg.Interval == 0 {
		cfg.Interval = 300 * time.Millisecond
	}

	return &Publisher{
		outboxRepo: cfg.OutboxRepo,
		producer:   cfg.Producer,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		batchSize:  cfg.BatchSize,
		interval:   cfg.Interval,
		retention:  cfg.Retention,
	}
}

// Start runs the relay loop until the context is cancelled.
func (p *Publisher) Start(ctx context.Context) error {
	p.logger.Info().
		Int("batch_size", p.batchSize).
		Dur("interval", p.interval).
		Msg("outbox publisher started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	if err := p.processBatch(ctx); err != nil {
		p.logger.Error().Err(err).Msg("outbox pass failed on start")
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("outbox publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				p.logger.Error().Err(err).Msg("outbox pass failed")
			}

			p.sweep(ctx)
		}
	}
}

// processBatch publishes one batch of unpublished rows.
func (p *Publisher) processBatch(ctx context.Context) error {
	events, err := p.outboxRepo.GetUnpublished(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("fetch unpublished: %w", err)
	}

	if p.metrics != nil {
		p.metrics.OutboxLagBatch.Observe(float64(len(events)))
	}

	if len(events) == 0 {
		return nil
	}

	msgs := make([]usecase.Message, 0, len(events))
	publishable := make([]*domain.OutboxEvent, 0, len(events))

	for _, event := range events {
		msg, err := buildMessage(event)
		if err != nil {
			// A malformed row would wedge the relay; leave it unpublished
			// for an operator and keep going.
			p.logger.Error().
				Err(err).
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Msg("skipping undecodable outbox row")

			if p.metrics != nil {
				p.metrics.OutboxErrors.Inc()
			}

			continue
		}

		msgs = append(msgs, msg)
		publishable = append(publishable, event)
	}

	if len(msgs) == 0 {
		return nil
	}

	if err := p.producer.PublishBatch(ctx, msgs); err != nil {
		if p.metrics != nil {
			p.metrics.OutboxErrors.Inc()
		}

		return fmt.Errorf("publish batch: %w", err)
	}

	now := time.Now()

	for _, event := range publishable {
		if err := p.outboxRepo.MarkPublished(ctx, event.ID, now); err != nil {
			// The event was already sent; failing the mark means it will be
			// sent again next pass. Consumers absorb the duplicate.
			p.logger.Error().
				Err(err).
				Str("event_id", event.ID).
				Msg("failed to mark event published")

			continue
		}

		if p.metrics != nil {
			p.metrics.OutboxPublished.Inc()
		}
	}

	return nil
}

// sweep prunes published rows past the retention window.
func (p *Publisher) sweep(ctx context.Context) {
	if p.retention <= 0 {
		return
	}

	cutoff := time.Now().Add(-p.retention)
	if err := p.outboxRepo.DeletePublished(ctx, cutoff); err != nil {
		p.logger.Error().Err(err).Msg("outbox retention sweep failed")
	}
}

// buildMessage decodes an outbox row into a typed bus message. The partition
// key is the origin account for Requested events and the transaction id for
// everything else, so all events of one aggregate share a partition.
func buildMessage(event *domain.OutboxEvent) (usecase.Message, error) {
	payload, err := domain.DecodeEventPayload(event.EventType, event.Payload)
	if err != nil {
		return usecase.Message{}, err
	}

	topic, ok := domain.TopicForEvent(event.EventType)
	if !ok {
		return usecase.Message{}, fmt.Errorf("%w: %s", domain.ErrUnknownEventType, event.EventType)
	}

	key := event.AggregateID
	if requested, ok := payload.(*domain.RequestedEvent); ok {
		key = requested.FromAccount
	}

	return usecase.Message{
		Topic:         topic,
		Key:           key,
		MessageID:     event.ID,
		CorrelationID: event.AggregateID,
		OccurredAt:    event.CreatedAt,
		Payload:       payload,
	}, nil
}
