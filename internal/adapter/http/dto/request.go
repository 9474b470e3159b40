package dto

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tanvo/fraudgate/internal/domain"
	"github.com/tanvo/fraudgate/internal/usecase"
)

// TransferRequest represents a request to screen and execute a transfer.
type TransferRequest struct {
	FromAccount string          `json:"fromAccount"`
	ToAccount   string          `json:"toAccount"`
	Amount      decimal.Decimal `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *TransferRequest) ToUseCaseInput() usecase.TransferInput {
	return usecase.TransferInput{
		FromAccount: strings.TrimSpace(r.FromAccount),
		ToAccount:   strings.TrimSpace(r.ToAccount),
		Amount:      r.Amount,
	}
}

// ReviewRequest represents a manual review verdict for a transaction.
type ReviewRequest struct {
	Action     string `json:"action"`
	ReviewedBy string `json:"reviewedBy"`
	Note       string `json:"note,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ReviewRequest) ToUseCaseInput(txID string) usecase.ReviewInput {
	return usecase.ReviewInput{
		TxID:       txID,
		Action:     domain.ReviewAction(r.Action),
		ReviewedBy: r.ReviewedBy,
		Note:       r.Note,
	}
}

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	AccountNo      string          `json:"accountNo"`
	HolderName     string          `json:"holderName"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		AccountNo:      r.AccountNo,
		HolderName:     r.HolderName,
		InitialBalance: r.InitialBalance,
	}
}
