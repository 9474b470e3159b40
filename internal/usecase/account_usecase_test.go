package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tanvo/fraudgate/internal/domain"
	"github.com/tanvo/fraudgate/internal/usecase"
	"github.com/tanvo/fraudgate/internal/usecase/mocks"
)

func TestAccountCreate(t *testing.T) {
	tests := []struct {
		name      string
		input     usecase.CreateAccountInput
		errorType error
	}{
		{
			name:  "created",
			input: usecase.CreateAccountInput{AccountNo: "ACC-010", HolderName: "Carol", InitialBalance: decimal.NewFromInt(1000)},
		},
		{
			name:      "missing account number",
			input:     usecase.CreateAccountInput{AccountNo: "   ", HolderName: "Carol"},
			errorType: domain.ErrAccountNoRequired,
		},
		{
			name:      "negative opening balance",
			input:     usecase.CreateAccountInput{AccountNo: "ACC-011", InitialBalance: decimal.NewFromInt(-1)},
			errorType: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockAccountRepository()
			uc := usecase.NewAccountUseCase(repo, mocks.NewMockIDGenerator())

			account, err := uc.CreateAccount(context.Background(), tt.input)
			if tt.errorType != nil {
				if !errors.Is(err, tt.errorType) {
					t.Fatalf("expected %v, got %v", tt.errorType, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if account.ID == "" {
				t.Error("expected generated id")
			}
			if account.AccountNo != tt.input.AccountNo {
				t.Errorf("account no = %s", account.AccountNo)
			}
		})
	}
}

func TestAccountCreateDuplicate(t *testing.T) {
	repo := mocks.NewMockAccountRepository()
	uc := usecase.NewAccountUseCase(repo, mocks.NewMockIDGenerator())

	input := usecase.CreateAccountInput{AccountNo: "ACC-010", InitialBalance: decimal.NewFromInt(10)}
	if _, err := uc.CreateAccount(context.Background(), input); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := uc.CreateAccount(context.Background(), input); !errors.Is(err, domain.ErrAccountExists) {
		t.Errorf("expected ErrAccountExists, got %v", err)
	}
}

func TestAccountGet(t *testing.T) {
	repo := mocks.NewMockAccountRepository()
	repo.Seed(&domain.Account{ID: "acc-1", AccountNo: "ACC-001", Balance: decimal.NewFromInt(500)})
	uc := usecase.NewAccountUseCase(repo, mocks.NewMockIDGenerator())

	account, err := uc.GetAccount(context.Background(), " ACC-001 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.AccountNo != "ACC-001" {
		t.Errorf("account no = %s", account.AccountNo)
	}

	if _, err := uc.GetAccount(context.Background(), "ACC-404"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}
