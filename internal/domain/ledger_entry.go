package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type LedgerEntryKind string

const (
	LedgerEntryWithdrawal  LedgerEntryKind = "withdrawal"
	LedgerEntryDeposit     LedgerEntryKind = "deposit"
	LedgerEntryTransfer    LedgerEntryKind = "transfer"
	LedgerEntryKeyTransfer LedgerEntryKind = "key_transfer"
)

type EntryDirection string

const (
	EntryDirectionDebit  EntryDirection = "debit"
	EntryDirectionCredit EntryDirection = "credit"
)

// LedgerEntry records one balance-affecting event on one account. Entries
// are immutable once written; balance_before and balance_after are taken
// inside the same transaction that mutates the balance.
type LedgerEntry struct {
	ID            string
	AccountID     string
	Kind          LedgerEntryKind
	Direction     EntryDirection
	Amount        decimal.Decimal
	Fee           decimal.Decimal
	Description   string
	Origin        *string
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	CreatedAt     time.Time
}

// SignedAmount reads debits as negative and credits as positive, so the
// two entries of a transfer sum to zero.
func (e LedgerEntry) SignedAmount() decimal.Decimal {
	if e.Direction == EntryDirectionDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}
