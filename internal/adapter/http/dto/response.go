package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tanvo/fraudgate/internal/domain"
	"github.com/tanvo/fraudgate/internal/usecase"
)

// TransferAcceptedResponse acknowledges an accepted transfer. The outcome is
// asynchronous; clients poll the transaction resource or consume the bus.
type TransferAcceptedResponse struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

// TransactionResponse represents a transaction aggregate in API responses.
type TransactionResponse struct {
	TransactionID  string          `json:"transactionId"`
	FromAccount    string          `json:"fromAccount"`
	ToAccount      string          `json:"toAccount"`
	Type           string          `json:"type"`
	Status         string          `json:"status"`
	Amount         decimal.Decimal `json:"amount"`
	OldBalanceOrg  decimal.Decimal `json:"oldBalanceOrg"`
	NewBalanceOrig decimal.Decimal `json:"newBalanceOrig"`
	OldBalanceDest decimal.Decimal `json:"oldBalanceDest"`
	NewBalanceDest decimal.Decimal `json:"newBalanceDest"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		TransactionID:  t.TxID,
		FromAccount:    t.FromAccount,
		ToAccount:      t.ToAccount,
		Type:           t.Type,
		Status:         string(t.Status),
		Amount:         t.Amount,
		OldBalanceOrg:  t.OldBalanceOrg,
		NewBalanceOrig: t.NewBalanceOrig,
		OldBalanceDest: t.OldBalanceDest,
		NewBalanceDest: t.NewBalanceDest,
		CreatedAt:      t.CreatedAt,
	}
}

// ReviewResponse represents the outcome of a review action.
type ReviewResponse struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	Applied       bool   `json:"applied"`
}

// ReviewFromResult converts a review result to a response.
func ReviewFromResult(txID string, result *usecase.ReviewResult) *ReviewResponse {
	return &ReviewResponse{
		TransactionID: txID,
		Status:        string(result.Status),
		Applied:       result.Applied,
	}
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	AccountNo  string          `json:"accountNo"`
	HolderName string          `json:"holderName"`
	Balance    decimal.Decimal `json:"balance"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		AccountNo:  a.AccountNo,
		HolderName: a.HolderName,
		Balance:    a.Balance,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
