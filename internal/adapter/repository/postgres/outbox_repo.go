package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tanvo/fraudgate/internal/domain"
	"github.com/tanvo/fraudgate/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository backed by PostgreSQL.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository creates a new PostgreSQL outbox repository.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

// Create inserts an outbox event inside the caller's transaction. Sharing the
// transaction with the aggregate write is what makes publication atomic with
// the state change.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO outbox_events (id, aggregate_id, event_type, payload, published, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = pgxTx.Exec(ctx, query,
		event.ID,
		event.AggregateID,
		event.EventType,
		[]byte(event.Payload),
		event.Published,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	return nil
}

// GetUnpublished returns unpublished events oldest first, preserving the
// per-aggregate write order for the relay.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	const query = `
		SELECT id, aggregate_id, event_type, payload, published, created_at, published_at
		FROM outbox_events
		WHERE published = FALSE
		ORDER BY created_at
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get unpublished events: %w", err)
	}
	defer rows.Close()

	var events []*domain.OutboxEvent

	for rows.Next() {
		var event domain.OutboxEvent

		err := rows.Scan(
			&event.ID,
			&event.AggregateID,
			&event.EventType,
			&event.Payload,
			&event.Published,
			&event.CreatedAt,
			&event.PublishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get unpublished events: %w", err)
	}

	return events, nil
}

// MarkPublished flags an event as delivered to the bus. It runs after the
// publish, so a crash in between leaves the row unpublished and the event is
// delivered again; consumers absorb the duplicate.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	const query = `
		UPDATE outbox_events
		SET published = TRUE, published_at = $2
		WHERE id = $1`

	_, err := r.pool.Exec(ctx, query, id, publishedAt)
	if err != nil {
		return fmt.Errorf("mark event published: %w", err)
	}

	return nil
}

// DeletePublished removes published events older than the retention cutoff.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	const query = `
		DELETE FROM outbox_events
		WHERE published = TRUE AND created_at < $1`

	_, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return fmt.Errorf("delete published events: %w", err)
	}

	return nil
}
