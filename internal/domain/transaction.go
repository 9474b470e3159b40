package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a transaction aggregate.
type Status string

const (
	StatusRequested       Status = "REQUESTED"
	StatusDecidedBlock    Status = "DECIDED_BLOCK"
	StatusDecidedReview   Status = "DECIDED_REVIEW"
	StatusLedgerApplied   Status = "LEDGER_APPLIED"
	StatusReviewedApprove Status = "REVIEWED_APPROVE"
	StatusReviewedReject  Status = "REVIEWED_REJECT"
	StatusFailed          Status = "FAILED"
)

// statusTransitions is the closed transition table. Every mutator consults
// CanTransition before writing a new status; anything not listed here is
// illegal. FAILED is strictly terminal: a timed-out transaction cannot be
// resurrected by a late score or a manual review. REVIEWED_APPROVE applies the
// ledger in the same database transaction that sets it, so it is terminal too.
var statusTransitions = map[Status][]Status{
	StatusRequested: {
		StatusLedgerApplied,
		StatusDecidedBlock,
		StatusDecidedReview,
		StatusReviewedApprove,
		StatusReviewedReject,
		StatusFailed,
	},
	StatusDecidedBlock: {
		StatusReviewedApprove,
		StatusReviewedReject,
	},
	StatusDecidedReview: {
		StatusReviewedApprove,
		StatusReviewedReject,
	},
	StatusLedgerApplied:   {},
	StatusReviewedApprove: {},
	StatusReviewedReject:  {},
	StatusFailed:          {},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}

	return false
}

// Valid reports whether the status is a member of the closed enumeration.
func (s Status) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// IsTerminal reports whether no further transition is legal from this status.
func (s Status) IsTerminal() bool {
	next, ok := statusTransitions[s]
	return ok && len(next) == 0
}

// IsApplied reports whether the ledger mutation for this transaction has
// already been committed.
func (s Status) IsApplied() bool {
	return s == StatusLedgerApplied || s == StatusReviewedApprove
}

// IsReviewable reports whether a manual review action may operate on this
// status. REQUESTED is included so an operator can fast-track a transaction
// ahead of automated scoring.
func (s Status) IsReviewable() bool {
	switch s {
	case StatusRequested, StatusDecidedBlock, StatusDecidedReview:
		return true
	default:
		return false
	}
}

// Decision is the outcome of the risk policy for a scored transaction.
type Decision string

const (
	DecisionAllow  Decision = "ALLOW"
	DecisionBlock  Decision = "BLOCK"
	DecisionReview Decision = "REVIEW"
	DecisionFailed Decision = "FAILED"
)

// TypeTransfer is the only transaction type issued by the intake endpoint.
const TypeTransfer = "TRANSFER"

// RiskUnknown is the sentinel risk value for decisions made without a score,
// such as reconciler timeouts.
const RiskUnknown = -1

// Transaction is the authoritative aggregate for one transfer. TxID is the
// external correlation id carried by every event; the balance snapshots taken
// at request time are provisional predictions until a ledger-apply path
// overwrites them with the committed values.
type Transaction struct {
	CreatedAt      time.Time
	ID             string
	TxID           string
	FromAccount    string
	ToAccount      string
	Type           string
	Status         Status
	Amount         decimal.Decimal
	OldBalanceOrg  decimal.Decimal
	NewBalanceOrig decimal.Decimal
	OldBalanceDest decimal.Decimal
	NewBalanceDest decimal.Decimal
}
