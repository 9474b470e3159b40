package usecase

import (
	"context"
	"time"

	"github.com/tanvo/fraudgate/internal/domain"
)

// TimeoutUseCase fails transactions stuck in REQUESTED past an age threshold,
// so nothing stays pending forever when the scorer never answers. The status
// check is a guard, not an assumption: a row another path moved between
// selection and write is skipped, never overwritten.
type TimeoutUseCase struct {
	txnRepo  TransactionRepository
	producer EventProducer
	idGen    IDGenerator
}

// NewTimeoutUseCase creates a new TimeoutUseCase.
func NewTimeoutUseCase(txnRepo TransactionRepository, producer EventProducer, idGen IDGenerator) *TimeoutUseCase {
	return &TimeoutUseCase{
		txnRepo:  txnRepo,
		producer: producer,
		idGen:    idGen,
	}
}

// FailStuck sweeps one batch of stuck REQUESTED transactions. It returns how
// many were transitioned to FAILED during this call.
func (uc *TimeoutUseCase) FailStuck(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	stuck, err := uc.txnRepo.ListRequestedBefore(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}

	failed := 0
	for _, txn := range stuck {
		ok, err := uc.txnRepo.UpdateStatusGuarded(ctx, txn.TxID, domain.StatusRequested, domain.StatusFailed)
		if err != nil {
			return failed, err
		}

		if !ok {
			// Scoring or a manual review got there first.
			continue
		}

		now := time.Now().UTC()
		err = uc.producer.Publish(ctx, Message{
			Topic:         domain.TopicDecided,
			Key:           txn.TxID,
			MessageID:     uc.idGen.Generate(),
			CorrelationID: txn.TxID,
			CausationID:   txn.TxID,
			OccurredAt:    now,
			Payload: domain.DecidedEvent{
				TransactionID: txn.TxID,
				Decision:      domain.DecisionFailed,
				Risk:          domain.RiskUnknown,
				Reason:        "System Timeout",
				OccurredAt:    now,
			},
		})
		if err != nil {
			return failed, err
		}

		failed++
	}

	return failed, nil
}
