package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tanvo/fraudgate/internal/domain"
	"github.com/tanvo/fraudgate/internal/usecase"
	"github.com/tanvo/fraudgate/internal/usecase/mocks"
)

func seedOutboxEvent(t *testing.T, repo *mocks.MockOutboxRepository, id, eventType string, payload any) *domain.OutboxEvent {
	t.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	event := &domain.OutboxEvent{
		ID:          id,
		AggregateID: "tx-1",
		EventType:   eventType,
		Payload:     raw,
		CreatedAt:   time.Now().Add(-time.Second),
	}

	if err := repo.Create(context.Background(), nil, event); err != nil {
		t.Fatalf("seed outbox event: %v", err)
	}

	return event
}

func newTestPublisher(repo *mocks.MockOutboxRepository, producer *mocks.MockEventProducer) *Publisher {
	return NewPublisher(Config{
		OutboxRepo: repo,
		Producer:   producer,
		Logger:     zerolog.Nop(),
		BatchSize:  50,
	})
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	repo := mocks.NewMockOutboxRepository()
	producer := mocks.NewMockEventProducer()

	seedOutboxEvent(t, repo, "evt-1", domain.EventTypeRequested, &domain.RequestedEvent{
		TransactionID: "tx-1",
		FromAccount:   "ACC-001",
		ToAccount:     "ACC-002",
		Amount:        decimal.NewFromInt(150),
	})

	p := newTestPublisher(repo, producer)

	if err := p.processBatch(context.Background()); err != nil {
		t.Fatalf("processBatch failed: %v", err)
	}

	published := producer.Published()
	if len(published) != 1 {
		t.Fatalf("expected one published message, got %d", len(published))
	}

	msg := published[0]
	if msg.Topic != domain.TopicRequested {
		t.Errorf("expected topic %s, got %s", domain.TopicRequested, msg.Topic)
	}
	if msg.Key != "ACC-001" {
		t.Errorf("requested events partition by origin account, got key %s", msg.Key)
	}
	if msg.MessageID != "evt-1" || msg.CorrelationID != "tx-1" {
		t.Errorf("unexpected ids: message=%s correlation=%s", msg.MessageID, msg.CorrelationID)
	}

	events := repo.Events()
	if !events[0].Published || events[0].PublishedAt == nil {
		t.Error("expected event to be marked published")
	}
}

func TestProcessBatchKeysNonRequestedByTransaction(t *testing.T) {
	repo := mocks.NewMockOutboxRepository()
	producer := mocks.NewMockEventProducer()

	seedOutboxEvent(t, repo, "evt-1", domain.EventTypeDecided, &domain.DecidedEvent{
		TransactionID: "tx-1",
		Decision:      domain.DecisionBlock,
		Risk:          0.95,
	})

	p := newTestPublisher(repo, producer)

	if err := p.processBatch(context.Background()); err != nil {
		t.Fatalf("processBatch failed: %v", err)
	}

	published := producer.Published()
	if len(published) != 1 || published[0].Key != "tx-1" {
		t.Fatalf("expected decided event keyed by aggregate, got %+v", published)
	}
}

func TestProcessBatchPublishFailureLeavesRowsUnpublished(t *testing.T) {
	repo := mocks.NewMockOutboxRepository()
	producer := mocks.NewMockEventProducer()
	producer.PublishBatchFunc = func(ctx context.Context, msgs []usecase.Message) error {
		return errors.New("broker down")
	}

	seedOutboxEvent(t, repo, "evt-1", domain.EventTypeDecided, &domain.DecidedEvent{
		TransactionID: "tx-1",
		Decision:      domain.DecisionAllow,
	})

	p := newTestPublisher(repo, producer)

	if err := p.processBatch(context.Background()); err == nil {
		t.Fatal("expected error when the broker is down")
	}

	if repo.Events()[0].Published {
		t.Error("rows must stay unpublished after a failed batch")
	}
}

func TestProcessBatchMarkFailureAllowsRepublish(t *testing.T) {
	repo := mocks.NewMockOutboxRepository()
	producer := mocks.NewMockEventProducer()

	event := seedOutboxEvent(t, repo, "evt-1", domain.EventTypeDecided, &domain.DecidedEvent{
		TransactionID: "tx-1",
		Decision:      domain.DecisionAllow,
	})

	markCalls := 0
	repo.MarkPublishedFunc = func(ctx context.Context, id string, publishedAt time.Time) error {
		markCalls++
		return errors.New("db gone")
	}

	p := newTestPublisher(repo, producer)

	if err := p.processBatch(context.Background()); err != nil {
		t.Fatalf("processBatch failed: %v", err)
	}

	if markCalls != 1 {
		t.Fatalf("expected one mark attempt, got %d", markCalls)
	}
	if event.Published {
		t.Error("row must be republishable after a failed mark")
	}

	// Next pass sends the same event again.
	if err := p.processBatch(context.Background()); err != nil {
		t.Fatalf("second processBatch failed: %v", err)
	}
	if got := len(producer.Published()); got != 2 {
		t.Errorf("expected duplicate publish on redelivery, got %d messages", got)
	}
}

func TestProcessBatchSkipsUndecodableRow(t *testing.T) {
	repo := mocks.NewMockOutboxRepository()
	producer := mocks.NewMockEventProducer()

	bad := &domain.OutboxEvent{
		ID:        "evt-bad",
		EventType: "UnknownType",
		Payload:   json.RawMessage(`{}`),
		CreatedAt: time.Now(),
	}
	if err := repo.Create(context.Background(), nil, bad); err != nil {
		t.Fatalf("seed: %v", err)
	}

	seedOutboxEvent(t, repo, "evt-good", domain.EventTypeDecided, &domain.DecidedEvent{
		TransactionID: "tx-1",
		Decision:      domain.DecisionReview,
	})

	p := newTestPublisher(repo, producer)

	if err := p.processBatch(context.Background()); err != nil {
		t.Fatalf("processBatch failed: %v", err)
	}

	if got := len(producer.Published()); got != 1 {
		t.Fatalf("expected only the decodable event, got %d", got)
	}
	if repo.Events()[0].Published {
		t.Error("undecodable row must stay unpublished")
	}
}

func TestSweepHonorsRetention(t *testing.T) {
	repo := mocks.NewMockOutboxRepository()
	deleted := 0
	repo.DeletePublishedFunc = func(ctx context.Context, before time.Time) error {
		deleted++
		return nil
	}

	p := NewPublisher(Config{
		OutboxRepo: repo,
		Producer:   mocks.NewMockEventProducer(),
		Logger:     zerolog.Nop(),
		Retention:  time.Hour,
	})
	p.sweep(context.Background())

	if deleted != 1 {
		t.Fatalf("expected one sweep, got %d", deleted)
	}

	disabled := NewPublisher(Config{
		OutboxRepo: repo,
		Producer:   mocks.NewMockEventProducer(),
		Logger:     zerolog.Nop(),
	})
	disabled.sweep(context.Background())

	if deleted != 1 {
		t.Error("retention 0 must disable the sweep")
	}
}
