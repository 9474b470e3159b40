package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanvo/fraudgate/internal/domain"
	"github.com/tanvo/fraudgate/internal/usecase"
)

type stubDecider struct {
	outcome usecase.DecisionOutcome
	err     error
	seen    []*domain.ScoredEvent
}

func (s *stubDecider) HandleScored(ctx context.Context, scored *domain.ScoredEvent) (usecase.DecisionOutcome, error) {
	s.seen = append(s.seen, scored)
	return s.outcome, s.err
}

func TestScoredHandlerDecodesAndDelegates(t *testing.T) {
	decider := &stubDecider{outcome: usecase.DecisionOutcome{Decision: domain.DecisionAllow, Applied: true}}
	handler := NewScoredHandler(decider, nil, zerolog.Nop())

	body, _ := json.Marshal(domain.ScoredEvent{
		TransactionID: "tx-1",
		Risk:          0.12,
		OccurredAt:    time.Now().UTC(),
	})

	if err := handler(context.Background(), body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(decider.seen) != 1 {
		t.Fatalf("expected 1 delegated event, got %d", len(decider.seen))
	}
	if decider.seen[0].TransactionID != "tx-1" {
		t.Fatalf("unexpected tx id %q", decider.seen[0].TransactionID)
	}
}

func TestScoredHandlerDropsMalformedPayload(t *testing.T) {
	decider := &stubDecider{}
	handler := NewScoredHandler(decider, nil, zerolog.Nop())

	if err := handler(context.Background(), []byte("{not json")); err != nil {
		t.Fatalf("malformed payload should be dropped, got error: %v", err)
	}
	if len(decider.seen) != 0 {
		t.Fatalf("decider should not see malformed payloads")
	}
}

func TestScoredHandlerDropsMissingTransactionID(t *testing.T) {
	decider := &stubDecider{}
	handler := NewScoredHandler(decider, nil, zerolog.Nop())

	if err := handler(context.Background(), []byte(`{"risk":0.5}`)); err != nil {
		t.Fatalf("expected drop, got error: %v", err)
	}
	if len(decider.seen) != 0 {
		t.Fatalf("decider should not see events without a transaction id")
	}
}

func TestScoredHandlerPropagatesUseCaseError(t *testing.T) {
	decider := &stubDecider{err: errors.New("db down")}
	handler := NewScoredHandler(decider, nil, zerolog.Nop())

	body, _ := json.Marshal(domain.ScoredEvent{TransactionID: "tx-2", Risk: 0.9})

	if err := handler(context.Background(), body); err == nil {
		t.Fatal("expected error so the delivery is requeued")
	}
}
