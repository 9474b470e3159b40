package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tanvo/fraudgate/internal/domain"
)

// AccountUseCase handles account creation and lookup.
type AccountUseCase struct {
	accountRepo AccountRepository
	idGen       IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository, idGen IDGenerator) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		idGen:       idGen,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	AccountNo      string
	HolderName     string
	InitialBalance decimal.Decimal
}

// CreateAccount creates a new account with an opening balance.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	input.AccountNo = strings.TrimSpace(input.AccountNo)
	if input.AccountNo == "" {
		return nil, domain.ErrAccountNoRequired
	}

	if input.InitialBalance.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:         uc.idGen.Generate(),
		AccountNo:  input.AccountNo,
		HolderName: strings.TrimSpace(input.HolderName),
		Balance:    input.InitialBalance,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by its account number.
func (uc *AccountUseCase) GetAccount(ctx context.Context, accountNo string) (*domain.Account, error) {
	return uc.accountRepo.GetByNumber(ctx, strings.TrimSpace(accountNo))
}
