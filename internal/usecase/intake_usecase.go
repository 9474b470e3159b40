package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tanvo/fraudgate/internal/domain"
)

// IntakeUseCase validates a transfer request and creates the transaction
// aggregate together with its Requested outbox event in one local database
// transaction. It never waits on downstream scoring.
type IntakeUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
}

// NewIntakeUseCase creates a new IntakeUseCase.
func NewIntakeUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
) *IntakeUseCase {
	return &IntakeUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
	}
}

// TransferInput represents an inbound transfer request.
type TransferInput struct {
	FromAccount string
	ToAccount   string
	Amount      decimal.Decimal
}

// RequestTransfer accepts a transfer for asynchronous screening. The balance
// check here is advisory only; the ledger-apply paths re-validate under
// serializable isolation before mutating anything.
func (uc *IntakeUseCase) RequestTransfer(ctx context.Context, input TransferInput) (*domain.Transaction, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	if strings.EqualFold(input.FromAccount, input.ToAccount) {
		return nil, domain.ErrSameAccount
	}

	from, err := uc.accountRepo.GetByNumber(ctx, input.FromAccount)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrOriginAccountNotFound
		}

		return nil, err
	}

	to, err := uc.accountRepo.GetByNumber(ctx, input.ToAccount)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrDestAccountNotFound
		}

		return nil, err
	}

	if !from.CanDebit(input.Amount) {
		return nil, domain.ErrInsufficientFunds
	}

	now := time.Now().UTC()

	txn := &domain.Transaction{
		ID:             uc.idGen.Generate(),
		TxID:           uc.idGen.Generate(),
		FromAccount:    from.AccountNo,
		ToAccount:      to.AccountNo,
		Amount:         input.Amount,
		Type:           domain.TypeTransfer,
		OldBalanceOrg:  from.Balance,
		NewBalanceOrig: from.Balance.Sub(input.Amount),
		OldBalanceDest: to.Balance,
		NewBalanceDest: to.Balance.Add(input.Amount),
		Status:         domain.StatusRequested,
		CreatedAt:      now,
	}

	event := domain.RequestedEvent{
		TransactionID:  txn.TxID,
		FromAccount:    txn.FromAccount,
		ToAccount:      txn.ToAccount,
		Amount:         txn.Amount,
		Type:           txn.Type,
		OldBalanceOrg:  txn.OldBalanceOrg,
		NewBalanceOrig: txn.NewBalanceOrig,
		OldBalanceDest: txn.OldBalanceDest,
		NewBalanceDest: txn.NewBalanceDest,
		OccurredAt:     now,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.txnRepo.Create(ctx, tx, txn); err != nil {
		return nil, err
	}

	if err := uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:          uc.idGen.Generate(),
		AggregateID: txn.TxID,
		EventType:   domain.EventTypeRequested,
		Payload:     payload,
		CreatedAt:   now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return txn, nil
}

// GetTransaction retrieves an aggregate by its external transaction id.
func (uc *IntakeUseCase) GetTransaction(ctx context.Context, txID string) (*domain.Transaction, error) {
	return uc.txnRepo.GetByTxID(ctx, txID)
}
