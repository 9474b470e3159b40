package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeRequested     = "TransactionRequested"
	EventTypeScored        = "TransactionScored"
	EventTypeDecided       = "TransactionDecided"
	EventTypeLedgerApplied = "LedgerApplied"
	EventTypeReviewed      = "TransactionReviewed"
)

// Routing keys on the transactions exchange, one topic per event type.
const (
	TopicRequested     = "transaction.requested"
	TopicScored        = "transaction.scored"
	TopicDecided       = "transaction.decided"
	TopicLedgerApplied = "transaction.ledger_applied"
	TopicReviewed      = "transaction.reviewed"
)

// SchemaVersion is stamped on every outgoing message header.
const SchemaVersion = "v1"

var eventTopics = map[string]string{
	EventTypeRequested:     TopicRequested,
	EventTypeScored:        TopicScored,
	EventTypeDecided:       TopicDecided,
	EventTypeLedgerApplied: TopicLedgerApplied,
	EventTypeReviewed:      TopicReviewed,
}

// TopicForEvent returns the routing key for an event type.
func TopicForEvent(eventType string) (string, bool) {
	topic, ok := eventTopics[eventType]
	return topic, ok
}

// RequestedEvent is emitted through the outbox when intake accepts a transfer.
// The new-balance fields are provisional predictions, not applied values.
type RequestedEvent struct {
	TransactionID  string          `json:"transactionId"`
	FromAccount    string          `json:"fromAccount"`
	ToAccount      string          `json:"toAccount"`
	Amount         decimal.Decimal `json:"amount"`
	Type           string          `json:"type"`
	OldBalanceOrg  decimal.Decimal `json:"oldBalanceOrg"`
	NewBalanceOrig decimal.Decimal `json:"newBalanceOrig"`
	OldBalanceDest decimal.Decimal `json:"oldBalanceDest"`
	NewBalanceDest decimal.Decimal `json:"newBalanceDest"`
	OccurredAt     time.Time       `json:"occurredAtUtc"`
}

// ScoredEvent is produced by the external scorer.
type ScoredEvent struct {
	TransactionID string             `json:"transactionId"`
	Risk          float64            `json:"risk"`
	DecisionHint  string             `json:"decisionHint"`
	Features      map[string]float64 `json:"features"`
	OccurredAt    time.Time          `json:"occurredAtUtc"`
}

// DecidedEvent records every policy decision, including reconciler timeouts
// (decision FAILED, risk RiskUnknown).
type DecidedEvent struct {
	TransactionID  string    `json:"transactionId"`
	Decision       Decision  `json:"decision"`
	Risk           float64   `json:"risk"`
	AllowThreshold float64   `json:"allowThreshold"`
	BlockThreshold float64   `json:"blockThreshold"`
	Reason         string    `json:"reason,omitempty"`
	OccurredAt     time.Time `json:"occurredAtUtc"`
}

// LedgerAppliedEvent is emitted after a committed balance mutation, by either
// the automatic ALLOW path or a manual APPROVE.
type LedgerAppliedEvent struct {
	TransactionID    string          `json:"transactionId"`
	FromAccount      string          `json:"fromAccount"`
	ToAccount        string          `json:"toAccount"`
	Amount           decimal.Decimal `json:"amount"`
	FinalBalanceOrig decimal.Decimal `json:"finalBalanceOrig"`
	FinalBalanceDest decimal.Decimal `json:"finalBalanceDest"`
	OccurredAt       time.Time       `json:"occurredAtUtc"`
}

// ReviewAction is a manual review verdict.
type ReviewAction string

const (
	ReviewApprove ReviewAction = "APPROVE"
	ReviewReject  ReviewAction = "REJECT"
)

// ReviewedEvent records a manual review action.
type ReviewedEvent struct {
	TransactionID string       `json:"transactionId"`
	Action        ReviewAction `json:"action"`
	Note          string       `json:"note,omitempty"`
	ReviewedBy    string       `json:"reviewedBy"`
	OccurredAt    time.Time    `json:"occurredAtUtc"`
}

// OutboxEvent is a durably stored event awaiting publication. Payload stays
// schema-flexible in storage; DecodeEventPayload recovers the typed event at
// the bus boundary.
type OutboxEvent struct {
	CreatedAt   time.Time
	PublishedAt *time.Time
	Payload     json.RawMessage
	ID          string
	AggregateID string
	EventType   string
	Published   bool
}

// DecodeEventPayload decodes an outbox payload into its typed event based on
// the event-type tag.
func DecodeEventPayload(eventType string, payload []byte) (any, error) {
	switch eventType {
	case EventTypeRequested:
		var e RequestedEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return &e, nil
	case EventTypeScored:
		var e ScoredEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return &e, nil
	case EventTypeDecided:
		var e DecidedEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return &e, nil
	case EventTypeLedgerApplied:
		var e LedgerAppliedEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return &e, nil
	case EventTypeReviewed:
		var e ReviewedEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return &e, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, eventType)
	}
}
