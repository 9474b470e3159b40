package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tanvo/fraudgate/internal/domain"
	"github.com/tanvo/fraudgate/internal/infrastructure/metrics"
	"github.com/tanvo/fraudgate/internal/usecase"
)

// ScoredDecider consumes one scored transaction and returns what was done
// with it.
type ScoredDecider interface {
	HandleScored(ctx context.Context, scored *domain.ScoredEvent) (usecase.DecisionOutcome, error)
}

// NewScoredHandler adapts the decision use case to the consumer loop.
// Undecodable payloads are acked and dropped; a requeue would redeliver the
// same bytes forever. Use case errors propagate so the delivery is requeued.
func NewScoredHandler(decider ScoredDecider, m *metrics.Metrics, logger zerolog.Logger) HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		var scored domain.ScoredEvent
		if err := json.Unmarshal(body, &scored); err != nil {
			logger.Error().Err(err).Msg("dropping undecodable scored event")
			return nil
		}

		if scored.TransactionID == "" {
			logger.Error().Msg("dropping scored event without transaction id")
			return nil
		}

		outcome, err := decider.HandleScored(ctx, &scored)
		if err != nil {
			return fmt.Errorf("handle scored %s: %w", scored.TransactionID, err)
		}

		if m != nil {
			m.Decisions.WithLabelValues(string(outcome.Decision)).Inc()
			if outcome.Applied {
				m.LedgerApplications.WithLabelValues("decision").Inc()
			}
			if outcome.Demoted {
				m.Demotions.Inc()
			}
		}

		logger.Info().
			Str("tx_id", scored.TransactionID).
			Float64("risk", scored.Risk).
			Str("decision", string(outcome.Decision)).
			Bool("applied", outcome.Applied).
			Bool("demoted", outcome.Demoted).
			Bool("dropped", outcome.Dropped).
			Msg("scored event processed")

		return nil
	}
}
