package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tanvo/fraudgate/internal/domain"
	"github.com/tanvo/fraudgate/internal/usecase"
	"github.com/tanvo/fraudgate/internal/usecase/mocks"
)

func newAccountHandler(accounts *mocks.MockAccountRepository) *AccountHandler {
	return NewAccountHandler(usecase.NewAccountUseCase(accounts, mocks.NewMockIDGenerator()), nil)
}

func TestCreateAccount(t *testing.T) {
	accounts := mocks.NewMockAccountRepository()
	h := newAccountHandler(accounts)

	body := `{"accountNo":"ACC-001","holderName":"Ana","initialBalance":"250"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		AccountNo string          `json:"accountNo"`
		Balance   decimal.Decimal `json:"balance"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AccountNo != "ACC-001" || !resp.Balance.Equal(decimal.NewFromInt(250)) {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestCreateAccountValidation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "missing account number",
			body:       `{"holderName":"Ana"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative opening balance",
			body:       `{"accountNo":"ACC-001","initialBalance":"-5"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newAccountHandler(mocks.NewMockAccountRepository())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.Create(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateAccountDuplicateConflicts(t *testing.T) {
	accounts := mocks.NewMockAccountRepository()
	accounts.Seed(&domain.Account{ID: "acc-1", AccountNo: "ACC-001"})
	h := newAccountHandler(accounts)

	body := `{"accountNo":"ACC-001","holderName":"Ana"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestGetAccount(t *testing.T) {
	accounts := mocks.NewMockAccountRepository()
	accounts.Seed(&domain.Account{
		ID:         "acc-1",
		AccountNo:  "ACC-001",
		HolderName: "Ana",
		Balance:    decimal.NewFromInt(500),
	})
	h := newAccountHandler(accounts)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/ACC-001", nil)
	req = withURLParam(req, "accountNo", "ACC-001")
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGetAccountNotFound(t *testing.T) {
	h := newAccountHandler(mocks.NewMockAccountRepository())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/ACC-404", nil)
	req = withURLParam(req, "accountNo", "ACC-404")
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
