package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tanvo/fraudgate/internal/domain"
)

// ReviewUseCase handles manual approve/reject of transactions in the
// reviewable set. APPROVE shares the ledger-apply guard with the automatic
// ALLOW path: whichever serializable transaction commits first wins, the other
// short-circuits or is retried after a serialization conflict.
type ReviewUseCase struct {
	txManager   TransactionManager
	retrier     Retrier
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	producer    EventProducer
	idGen       IDGenerator
}

// NewReviewUseCase creates a new ReviewUseCase.
func NewReviewUseCase(
	txManager TransactionManager,
	retrier Retrier,
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	producer EventProducer,
	idGen IDGenerator,
) *ReviewUseCase {
	return &ReviewUseCase{
		txManager:   txManager,
		retrier:     retrier,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		producer:    producer,
		idGen:       idGen,
	}
}

// ReviewInput represents a manual review action.
type ReviewInput struct {
	TxID       string
	Action     domain.ReviewAction
	ReviewedBy string
	Note       string
}

// ReviewResult is the outcome of a review action.
type ReviewResult struct {
	Status domain.Status
	// Applied is true when this call committed the ledger mutation.
	Applied bool
}

// Review dispatches a review action.
func (uc *ReviewUseCase) Review(ctx context.Context, input ReviewInput) (*ReviewResult, error) {
	if strings.TrimSpace(input.ReviewedBy) == "" {
		return nil, domain.ErrReviewerRequired
	}

	input.ReviewedBy = strings.TrimSpace(input.ReviewedBy)
	input.Note = strings.TrimSpace(input.Note)

	switch domain.ReviewAction(strings.ToUpper(string(input.Action))) {
	case domain.ReviewReject:
		return uc.reject(ctx, input)
	case domain.ReviewApprove:
		return uc.approve(ctx, input)
	default:
		return nil, domain.ErrInvalidReviewAction
	}
}

// reject never mutates balances. Repeating a reject returns the current status
// without emitting a new event.
func (uc *ReviewUseCase) reject(ctx context.Context, input ReviewInput) (*ReviewResult, error) {
	txn, err := uc.txnRepo.GetByTxID(ctx, input.TxID)
	if err != nil {
		return nil, err
	}

	if txn.Status == domain.StatusReviewedReject {
		return &ReviewResult{Status: txn.Status}, nil
	}

	if !txn.Status.IsReviewable() {
		return nil, domain.ErrNotReviewable
	}

	ok, err := uc.txnRepo.UpdateStatusGuarded(ctx, txn.TxID, txn.Status, domain.StatusReviewedReject)
	if err != nil {
		return nil, err
	}

	if !ok {
		// Another path moved the aggregate between read and write.
		current, err := uc.txnRepo.GetByTxID(ctx, input.TxID)
		if err != nil {
			return nil, err
		}

		if current.Status == domain.StatusReviewedReject {
			return &ReviewResult{Status: current.Status}, nil
		}

		return nil, domain.ErrNotReviewable
	}

	now := time.Now().UTC()
	err = uc.producer.Publish(ctx, Message{
		Topic:         domain.TopicReviewed,
		Key:           input.TxID,
		MessageID:     uc.idGen.Generate(),
		CorrelationID: input.TxID,
		CausationID:   input.TxID,
		OccurredAt:    now,
		Payload: domain.ReviewedEvent{
			TransactionID: input.TxID,
			Action:        domain.ReviewReject,
			Note:          input.Note,
			ReviewedBy:    input.ReviewedBy,
			OccurredAt:    now,
		},
	})
	if err != nil {
		return nil, err
	}

	return &ReviewResult{Status: domain.StatusReviewedReject}, nil
}

// approve applies the ledger mutation under serializable isolation. An
// already-applied aggregate short-circuits to success.
func (uc *ReviewUseCase) approve(ctx context.Context, input ReviewInput) (*ReviewResult, error) {
	var (
		result               ReviewResult
		finalOrig, finalDest decimal.Decimal
	)

	err := uc.retrier.Retry(ctx, func() error {
		result = ReviewResult{}

		tx, err := uc.txManager.BeginSerializable(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		txn, err := uc.txnRepo.GetByTxIDForUpdate(ctx, tx, input.TxID)
		if err != nil {
			return err
		}

		if txn.Status.IsApplied() {
			result.Status = txn.Status
			return tx.Commit(ctx)
		}

		if !txn.Status.IsReviewable() {
			return domain.ErrNotReviewable
		}

		from, to, err := uc.accountRepo.GetPairForUpdate(ctx, tx, txn.FromAccount, txn.ToAccount)
		if err != nil {
			return err
		}

		if !from.CanDebit(txn.Amount) {
			return domain.ErrInsufficientFunds
		}

		now := time.Now().UTC()
		finalOrig = from.Balance.Sub(txn.Amount)
		finalDest = to.Balance.Add(txn.Amount)

		if err := uc.accountRepo.UpdateBalance(ctx, tx, from.ID, finalOrig, now); err != nil {
			return err
		}

		if err := uc.accountRepo.UpdateBalance(ctx, tx, to.ID, finalDest, now); err != nil {
			return err
		}

		if err := uc.txnRepo.UpdateSnapshots(ctx, tx, txn.TxID, finalOrig, finalDest); err != nil {
			return err
		}

		if err := uc.txnRepo.UpdateStatus(ctx, tx, txn.TxID, domain.StatusReviewedApprove); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		result = ReviewResult{Status: domain.StatusReviewedApprove, Applied: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Applied {
		return &result, nil
	}

	txn, err := uc.txnRepo.GetByTxID(ctx, input.TxID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	msgs := []Message{
		{
			Topic:         domain.TopicReviewed,
			Key:           input.TxID,
			MessageID:     uc.idGen.Generate(),
			CorrelationID: input.TxID,
			CausationID:   input.TxID,
			OccurredAt:    now,
			Payload: domain.ReviewedEvent{
				TransactionID: input.TxID,
				Action:        domain.ReviewApprove,
				Note:          input.Note,
				ReviewedBy:    input.ReviewedBy,
				OccurredAt:    now,
			},
		},
		{
			Topic:         domain.TopicLedgerApplied,
			Key:           input.TxID,
			MessageID:     uc.idGen.Generate(),
			CorrelationID: input.TxID,
			CausationID:   input.TxID,
			OccurredAt:    now,
			Payload: domain.LedgerAppliedEvent{
				TransactionID:    txn.TxID,
				FromAccount:      txn.FromAccount,
				ToAccount:        txn.ToAccount,
				Amount:           txn.Amount,
				FinalBalanceOrig: finalOrig,
				FinalBalanceDest: finalDest,
				OccurredAt:       now,
			},
		},
	}

	if err := uc.producer.PublishBatch(ctx, msgs); err != nil {
		return nil, err
	}

	return &result, nil
}
