package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tanvo/fraudgate/internal/domain"
	"github.com/tanvo/fraudgate/internal/usecase"
)

// MockAccountRepository is an in-memory implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account // keyed by account number

	CreateFunc           func(ctx context.Context, account *domain.Account) error
	GetByNumberFunc      func(ctx context.Context, accountNo string) (*domain.Account, error)
	GetPairForUpdateFunc func(ctx context.Context, tx usecase.Transaction, fromNo, toNo string) (*domain.Account, *domain.Account, error)
	UpdateBalanceFunc    func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Seed stores an account directly, bypassing Create hooks.
func (m *MockAccountRepository) Seed(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.AccountNo] = account
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.accounts[account.AccountNo]; exists {
		return domain.ErrAccountExists
	}
	m.accounts[account.AccountNo] = account
	return nil
}

func (m *MockAccountRepository) GetByNumber(ctx context.Context, accountNo string) (*domain.Account, error) {
	if m.GetByNumberFunc != nil {
		return m.GetByNumberFunc(ctx, accountNo)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[accountNo]; ok {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetPairForUpdate(ctx context.Context, tx usecase.Transaction, fromNo, toNo string) (*domain.Account, *domain.Account, error) {
	if m.GetPairForUpdateFunc != nil {
		return m.GetPairForUpdateFunc(ctx, tx, fromNo, toNo)
	}
	from, err := m.GetByNumber(ctx, fromNo)
	if err != nil {
		return nil, nil, err
	}
	to, err := m.GetByNumber(ctx, toNo)
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.accounts {
		if acc.ID == id {
			acc.Balance = balance
			acc.UpdatedAt = updatedAt
			return nil
		}
	}
	return domain.ErrAccountNotFound
}

// MockTransactionRepository is an in-memory implementation of
// TransactionRepository, keyed by external transaction id.
type MockTransactionRepository struct {
	mu   sync.RWMutex
	txns map[string]*domain.Transaction

	CreateFunc              func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error
	GetByTxIDFunc           func(ctx context.Context, txID string) (*domain.Transaction, error)
	GetByTxIDForUpdateFunc  func(ctx context.Context, tx usecase.Transaction, txID string) (*domain.Transaction, error)
	UpdateStatusFunc        func(ctx context.Context, tx usecase.Transaction, txID string, status domain.Status) error
	UpdateStatusGuardedFunc func(ctx context.Context, txID string, expected, next domain.Status) (bool, error)
	UpdateSnapshotsFunc     func(ctx context.Context, tx usecase.Transaction, txID string, newOrig, newDest decimal.Decimal) error
	ListRequestedBeforeFunc func(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Transaction, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		txns: make(map[string]*domain.Transaction),
	}
}

// Seed stores an aggregate directly.
func (m *MockTransactionRepository) Seed(txn *domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txns[txn.TxID] = txn
}

// Get returns the stored aggregate for assertions.
func (m *MockTransactionRepository) Get(txID string) *domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.txns[txID]
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txns[txn.TxID] = txn
	return nil
}

func (m *MockTransactionRepository) GetByTxID(ctx context.Context, txID string) (*domain.Transaction, error) {
	if m.GetByTxIDFunc != nil {
		return m.GetByTxIDFunc(ctx, txID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if txn, ok := m.txns[txID]; ok {
		copied := *txn
		return &copied, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) GetByTxIDForUpdate(ctx context.Context, tx usecase.Transaction, txID string) (*domain.Transaction, error) {
	if m.GetByTxIDForUpdateFunc != nil {
		return m.GetByTxIDForUpdateFunc(ctx, tx, txID)
	}
	return m.GetByTxID(ctx, txID)
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, txID string, status domain.Status) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, txID, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if txn, ok := m.txns[txID]; ok {
		txn.Status = status
		return nil
	}
	return domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) UpdateStatusGuarded(ctx context.Context, txID string, expected, next domain.Status) (bool, error) {
	if m.UpdateStatusGuardedFunc != nil {
		return m.UpdateStatusGuardedFunc(ctx, txID, expected, next)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.txns[txID]
	if !ok {
		return false, domain.ErrTransactionNotFound
	}
	if txn.Status != expected {
		return false, nil
	}
	txn.Status = next
	return true, nil
}

func (m *MockTransactionRepository) UpdateSnapshots(ctx context.Context, tx usecase.Transaction, txID string, newOrig, newDest decimal.Decimal) error {
	if m.UpdateSnapshotsFunc != nil {
		return m.UpdateSnapshotsFunc(ctx, tx, txID, newOrig, newDest)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if txn, ok := m.txns[txID]; ok {
		txn.NewBalanceOrig = newOrig
		txn.NewBalanceDest = newDest
		return nil
	}
	return domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) ListRequestedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Transaction, error) {
	if m.ListRequestedBeforeFunc != nil {
		return m.ListRequestedBeforeFunc(ctx, cutoff, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Transaction
	for _, txn := range m.txns {
		if txn.Status == domain.StatusRequested && txn.CreatedAt.Before(cutoff) {
			copied := *txn
			out = append(out, &copied)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// MockOutboxRepository is an in-memory implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc          func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	GetUnpublishedFunc  func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc   func(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublishedFunc func(ctx context.Context, before time.Time) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

// Events returns all stored events for assertions.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.OutboxEvent(nil), m.events...)
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
			return nil
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	if m.DeletePublishedFunc != nil {
		return m.DeletePublishedFunc(ctx, before)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	for _, e := range m.events {
		if !e.Published || !e.CreatedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

// MockTransaction is a no-op database transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	Committed  bool
	RolledBack bool
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	if !m.Committed {
		m.RolledBack = true
	}
	return nil
}

// MockTransactionManager hands out MockTransactions.
type MockTransactionManager struct {
	BeginFunc             func(ctx context.Context) (usecase.Transaction, error)
	BeginSerializableFunc func(ctx context.Context) (usecase.Transaction, error)

	mu      sync.Mutex
	Started []*MockTransaction
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return m.track(), nil
}

func (m *MockTransactionManager) BeginSerializable(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginSerializableFunc != nil {
		return m.BeginSerializableFunc(ctx)
	}
	return m.track(), nil
}

func (m *MockTransactionManager) track() *MockTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &MockTransaction{}
	m.Started = append(m.Started, tx)
	return tx
}

// MockEventProducer records published messages.
type MockEventProducer struct {
	mu        sync.Mutex
	published []usecase.Message

	PublishFunc      func(ctx context.Context, msg usecase.Message) error
	PublishBatchFunc func(ctx context.Context, msgs []usecase.Message) error
}

func NewMockEventProducer() *MockEventProducer {
	return &MockEventProducer{}
}

func (m *MockEventProducer) Publish(ctx context.Context, msg usecase.Message) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, msg)
	return nil
}

func (m *MockEventProducer) PublishBatch(ctx context.Context, msgs []usecase.Message) error {
	if m.PublishBatchFunc != nil {
		return m.PublishBatchFunc(ctx, msgs)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, msgs...)
	return nil
}

// Published returns all recorded messages.
func (m *MockEventProducer) Published() []usecase.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]usecase.Message(nil), m.published...)
}

// PublishedOn returns recorded messages for one topic.
func (m *MockEventProducer) PublishedOn(topic string) []usecase.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []usecase.Message
	for _, msg := range m.published {
		if msg.Topic == topic {
			out = append(out, msg)
		}
	}
	return out
}

// MockRetrier runs the operation once without retrying.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// MockIDGenerator generates sequential ids.
type MockIDGenerator struct {
	mu   sync.Mutex
	next int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return fmt.Sprintf("id-%04d", m.next)
}
