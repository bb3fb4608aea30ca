package repo_interfaces

import (
	"context"
	"time"

	"github.com/atlasbank/core-banking/internal/domain"
	"github.com/shopspring/decimal"
)

// LedgerRepository owns the transaction boundary of every balance-affecting
// operation. Each posting method re-reads the account rows it touches under
// a row lock, re-validates funds and limits, mutates balances, and writes
// the ledger entries before committing, so a posting is either fully
// visible or not visible at all.
type LedgerRepository interface {
	Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal, fee decimal.Decimal, description string) (domain.LedgerEntry, error)
	Deposit(ctx context.Context, accountNumber string, amount decimal.Decimal, origin *string, description string) (domain.LedgerEntry, error)
	Transfer(ctx context.Context, posting domain.TransferPosting) (domain.LedgerEntry, domain.LedgerEntry, error)
	KeyTransfer(ctx context.Context, posting domain.KeyTransferPosting) (domain.KeyTransfer, domain.LedgerEntry, domain.LedgerEntry, error)
	ListByAccount(ctx context.Context, accountID string, from time.Time, to time.Time, kind *domain.LedgerEntryKind) ([]domain.LedgerEntry, error)
}
