package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanvo/fraudgate/internal/domain"
	"github.com/tanvo/fraudgate/internal/infrastructure/outbox"
	"github.com/tanvo/fraudgate/tests/testutil"
)

func TestOutboxRelayPublishesRequestedEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	s := newStack(t, testDB)
	testDB.CreateTestAccount(ctx, "ACC-A", mustDecimal(t, "1000"))
	testDB.CreateTestAccount(ctx, "ACC-B", mustDecimal(t, "0"))

	txID := requestTransfer(t, s, "ACC-A", "ACC-B", "75")

	publisher := outbox.NewPublisher(outbox.Config{
		OutboxRepo: s.OutboxRepo,
		Producer:   s.Producer,
		Logger:     zerolog.Nop(),
		BatchSize:  50,
		Interval:   20 * time.Millisecond,
	})

	runCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	if err := publisher.Start(runCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("publisher stopped unexpectedly: %v", err)
	}

	published := s.Producer.PublishedOn(domain.TopicRequested)
	if len(published) != 1 {
		t.Fatalf("expected 1 Requested message, got %d", len(published))
	}

	msg := published[0]
	if msg.Key != "ACC-A" {
		t.Fatalf("expected partition key ACC-A, got %s", msg.Key)
	}
	if msg.CorrelationID != txID {
		t.Fatalf("expected correlation id %s, got %s", txID, msg.CorrelationID)
	}

	remaining, err := s.OutboxRepo.GetUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("failed to read outbox: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected all rows marked published, %d remain", len(remaining))
	}
}
