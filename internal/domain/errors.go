package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound       = errors.New("account not found")
	ErrOriginAccountNotFound = errors.New("origin account not found")
	ErrDestAccountNotFound   = errors.New("destination account not found")
	ErrAccountExists         = errors.New("account number already exists")
	ErrAccountNoRequired     = errors.New("account number is required")

	// Transaction errors
	ErrSameAccount         = errors.New("cannot transfer to same account")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrTransactionNotFound = errors.New("transaction not found")

	// Review errors
	ErrNotReviewable       = errors.New("transaction status does not allow review")
	ErrInvalidReviewAction = errors.New("review action must be APPROVE or REJECT")
	ErrReviewerRequired    = errors.New("reviewedBy is required")

	// Event errors
	ErrUnknownEventType = errors.New("unknown event type")
)
