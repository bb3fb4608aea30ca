package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountKind string

const (
	AccountKindStandard  AccountKind = "standard"
	AccountKindOverdraft AccountKind = "overdraft"
)

type Account struct {
	ID              string
	ClientID        string
	Number          string
	Branch          string
	Kind            AccountKind
	Balance         decimal.Decimal
	CreditLimit     decimal.Decimal
	WithdrawalCap   int
	WithdrawalsUsed int
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AvailableForDebit is the balance plus the credit line for overdraft
// accounts. Standard accounts can only spend their balance.
func (a Account) AvailableForDebit() decimal.Decimal {
	if a.Kind == AccountKindOverdraft {
		return a.Balance.Add(a.CreditLimit)
	}
	return a.Balance
}
