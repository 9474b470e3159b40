package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tanvo/fraudgate/internal/domain"
)

// DecisionUseCase applies the risk threshold policy to scored transactions and
// conditionally applies the ledger mutation. It tolerates duplicate Scored
// deliveries: every write is guarded by the current status.
type DecisionUseCase struct {
	txManager      TransactionManager
	retrier        Retrier
	accountRepo    AccountRepository
	txnRepo        TransactionRepository
	producer       EventProducer
	idGen          IDGenerator
	allowThreshold float64
	blockThreshold float64
}

// NewDecisionUseCase creates a new DecisionUseCase.
func NewDecisionUseCase(
	txManager TransactionManager,
	retrier Retrier,
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	producer EventProducer,
	idGen IDGenerator,
	allowThreshold, blockThreshold float64,
) *DecisionUseCase {
	return &DecisionUseCase{
		txManager:      txManager,
		retrier:        retrier,
		accountRepo:    accountRepo,
		txnRepo:        txnRepo,
		producer:       producer,
		idGen:          idGen,
		allowThreshold: allowThreshold,
		blockThreshold: blockThreshold,
	}
}

// DecisionOutcome describes what HandleScored did with one Scored event.
type DecisionOutcome struct {
	Decision domain.Decision
	// Applied is true when this call committed the ledger mutation.
	Applied bool
	// Demoted is true when an ALLOW was downgraded to DECIDED_REVIEW because
	// the origin balance no longer covered the amount at apply time.
	Demoted bool
	// Dropped is true when the event was discarded (missing aggregate, failed
	// aggregate, or an illegal transition from the current status).
	Dropped bool
}

// Decide evaluates the threshold policy for a risk score.
func (uc *DecisionUseCase) Decide(risk float64) (domain.Decision, string) {
	switch {
	case risk < uc.allowThreshold:
		return domain.DecisionAllow, ""
	case risk >= uc.blockThreshold:
		return domain.DecisionBlock, ""
	default:
		return domain.DecisionReview, fmt.Sprintf("risk %.4f between thresholds", risk)
	}
}

// HandleScored consumes one Scored event. A Decided event is always emitted
// first so the audit trail is complete regardless of what happens to the
// aggregate afterwards.
func (uc *DecisionUseCase) HandleScored(ctx context.Context, scored *domain.ScoredEvent) (DecisionOutcome, error) {
	decision, reason := uc.Decide(scored.Risk)
	now := time.Now().UTC()

	decided := domain.DecidedEvent{
		TransactionID:  scored.TransactionID,
		Decision:       decision,
		Risk:           scored.Risk,
		AllowThreshold: uc.allowThreshold,
		BlockThreshold: uc.blockThreshold,
		Reason:         reason,
		OccurredAt:     now,
	}

	err := uc.producer.Publish(ctx, Message{
		Topic:         domain.TopicDecided,
		Key:           scored.TransactionID,
		MessageID:     uc.idGen.Generate(),
		CorrelationID: scored.TransactionID,
		CausationID:   scored.TransactionID,
		OccurredAt:    now,
		Payload:       decided,
	})
	if err != nil {
		return DecisionOutcome{Decision: decision}, err
	}

	txn, err := uc.txnRepo.GetByTxID(ctx, scored.TransactionID)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			// Stale or purged reference.
			return DecisionOutcome{Decision: decision, Dropped: true}, nil
		}

		return DecisionOutcome{Decision: decision}, err
	}

	if txn.Status == domain.StatusFailed {
		// No resurrection of timed-out transactions.
		return DecisionOutcome{Decision: decision, Dropped: true}, nil
	}

	if decision != domain.DecisionAllow {
		return uc.recordDecision(ctx, txn, decision)
	}

	return uc.applyLedger(ctx, txn)
}

// recordDecision moves the aggregate to DECIDED_BLOCK or DECIDED_REVIEW.
// Redelivery of the same score is a no-op write.
func (uc *DecisionUseCase) recordDecision(ctx context.Context, txn *domain.Transaction, decision domain.Decision) (DecisionOutcome, error) {
	next := domain.StatusDecidedBlock
	if decision == domain.DecisionReview {
		next = domain.StatusDecidedReview
	}

	if txn.Status == next {
		return DecisionOutcome{Decision: decision}, nil
	}

	if !domain.CanTransition(txn.Status, next) {
		return DecisionOutcome{Decision: decision, Dropped: true}, nil
	}

	// A lost race means another path already moved the aggregate; that write
	// wins and this one is absorbed.
	if _, err := uc.txnRepo.UpdateStatusGuarded(ctx, txn.TxID, txn.Status, next); err != nil {
		return DecisionOutcome{Decision: decision}, err
	}

	return DecisionOutcome{Decision: decision}, nil
}

// applyLedger runs the ALLOW path: re-check status and balance under
// serializable isolation, mutate both accounts, and emit LedgerApplied. An
// insufficient balance demotes the transaction to DECIDED_REVIEW instead of
// failing it.
func (uc *DecisionUseCase) applyLedger(ctx context.Context, txn *domain.Transaction) (DecisionOutcome, error) {
	outcome := DecisionOutcome{Decision: domain.DecisionAllow}

	var finalOrig, finalDest decimal.Decimal

	err := uc.retrier.Retry(ctx, func() error {
		outcome.Applied = false
		outcome.Demoted = false
		outcome.Dropped = false

		tx, err := uc.txManager.BeginSerializable(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		current, err := uc.txnRepo.GetByTxIDForUpdate(ctx, tx, txn.TxID)
		if err != nil {
			return err
		}

		if current.Status.IsApplied() {
			// Idempotent guard: the mutation already committed, either here
			// on a previous delivery or through a manual approve.
			return tx.Commit(ctx)
		}

		if !domain.CanTransition(current.Status, domain.StatusLedgerApplied) {
			outcome.Dropped = true
			return tx.Commit(ctx)
		}

		from, to, err := uc.accountRepo.GetPairForUpdate(ctx, tx, current.FromAccount, current.ToAccount)
		if err != nil {
			return err
		}

		now := time.Now().UTC()

		if !from.CanDebit(current.Amount) {
			if err := uc.txnRepo.UpdateStatus(ctx, tx, current.TxID, domain.StatusDecidedReview); err != nil {
				return err
			}

			outcome.Demoted = true
			return tx.Commit(ctx)
		}

		finalOrig = from.Balance.Sub(current.Amount)
		finalDest = to.Balance.Add(current.Amount)

		if err := uc.accountRepo.UpdateBalance(ctx, tx, from.ID, finalOrig, now); err != nil {
			return err
		}

		if err := uc.accountRepo.UpdateBalance(ctx, tx, to.ID, finalDest, now); err != nil {
			return err
		}

		if err := uc.txnRepo.UpdateSnapshots(ctx, tx, current.TxID, finalOrig, finalDest); err != nil {
			return err
		}

		if err := uc.txnRepo.UpdateStatus(ctx, tx, current.TxID, domain.StatusLedgerApplied); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		outcome.Applied = true
		return nil
	})
	if err != nil {
		return outcome, err
	}

	if !outcome.Applied {
		return outcome, nil
	}

	now := time.Now().UTC()
	applied := domain.LedgerAppliedEvent{
		TransactionID:    txn.TxID,
		FromAccount:      txn.FromAccount,
		ToAccount:        txn.ToAccount,
		Amount:           txn.Amount,
		FinalBalanceOrig: finalOrig,
		FinalBalanceDest: finalDest,
		OccurredAt:       now,
	}

	err = uc.producer.Publish(ctx, Message{
		Topic:         domain.TopicLedgerApplied,
		Key:           txn.TxID,
		MessageID:     uc.idGen.Generate(),
		CorrelationID: txn.TxID,
		CausationID:   txn.TxID,
		OccurredAt:    now,
		Payload:       applied,
	})

	return outcome, err
}
