package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the ledger-side record of a customer account. Balances are only
// mutated inside serializable ledger-apply transactions; accounts are never
// deleted.
type Account struct {
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ID         string
	AccountNo  string
	HolderName string
	Balance    decimal.Decimal
}

// CanDebit reports whether the account covers the given amount.
func (a *Account) CanDebit(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}
