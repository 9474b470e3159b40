package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tanvo/fraudgate/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByNumber(ctx context.Context, accountNo string) (*domain.Account, error)
	// GetPairForUpdate locks both accounts in account-number order and returns
	// them as (origin, destination).
	GetPairForUpdate(ctx context.Context, tx Transaction, fromNo, toNo string) (*domain.Account, *domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
}

// TransactionRepository defines data access for transaction aggregates.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	GetByTxID(ctx context.Context, txID string) (*domain.Transaction, error)
	GetByTxIDForUpdate(ctx context.Context, tx Transaction, txID string) (*domain.Transaction, error)
	UpdateStatus(ctx context.Context, tx Transaction, txID string, status domain.Status) error
	// UpdateStatusGuarded performs a single-statement status write that only
	// succeeds while the current status still equals expected. Returns false
	// when another path won the race.
	UpdateStatusGuarded(ctx context.Context, txID string, expected, next domain.Status) (bool, error)
	UpdateSnapshots(ctx context.Context, tx Transaction, txID string, newOrig, newDest decimal.Decimal) error
	ListRequestedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Transaction, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle. Ledger mutations must run
// under BeginSerializable; read-mostly work may use Begin.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
	BeginSerializable(ctx context.Context) (Transaction, error)
}

// Retrier retries an operation that failed with a retryable store error, such
// as a serialization conflict between racing ledger-apply transactions.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Message is one event ready for the bus. Key selects the partition;
// CorrelationID is the external transaction id stable across all events for
// one aggregate.
type Message struct {
	OccurredAt    time.Time
	Payload       any
	Topic         string
	Key           string
	MessageID     string
	CorrelationID string
	CausationID   string
}

// EventProducer publishes events to the bus. PublishBatch is all-or-nothing:
// either every message in the batch becomes visible or none does.
type EventProducer interface {
	Publish(ctx context.Context, msg Message) error
	PublishBatch(ctx context.Context, msgs []Message) error
}

// IdempotencyStore handles idempotency key storage for HTTP retries.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
