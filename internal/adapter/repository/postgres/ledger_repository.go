package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atlasbank/core-banking/internal/domain"
	"github.com/atlasbank/core-banking/internal/logger"
	"github.com/shopspring/decimal"
)

// LedgerRepository posts balance mutations and their ledger entries in one
// database transaction per logical operation. Account rows are re-read
// under FOR UPDATE inside that transaction, so two concurrent debits on the
// same account serialize on the row lock and neither is approved against a
// stale balance.
type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal, fee decimal.Decimal, description string) (domain.LedgerEntry, error) {
	logger.Info("ledger repository withdraw", logger.Fields{
		"accountNumber": accountNumber,
		"amount":        amount,
	})

	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.LedgerEntry{}, domain.ErrInvalidAmount
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("ledger repository begin withdraw tx failed", err, nil)
		return domain.LedgerEntry{}, fmt.Errorf("begin withdraw transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	account, err := lockAccount(ctx, tx, accountNumber)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	if !account.Active {
		err = domain.ErrAccountInactive
		return domain.LedgerEntry{}, err
	}

	// Limit check comes before the funds check: a capped-out account is
	// told so even when it could not afford the amount either.
	if account.Kind == domain.AccountKindOverdraft && account.WithdrawalsUsed >= account.WithdrawalCap {
		err = domain.ErrWithdrawalLimitExceeded
		return domain.LedgerEntry{}, err
	}
	if amount.GreaterThan(account.AvailableForDebit()) {
		err = domain.ErrInsufficientFunds
		return domain.LedgerEntry{}, err
	}

	newBalance := account.Balance.Sub(amount)
	bumpCounter := account.Kind == domain.AccountKindOverdraft
	if err = updateBalance(ctx, tx, account.ID, newBalance, bumpCounter); err != nil {
		return domain.LedgerEntry{}, err
	}

	entry := domain.LedgerEntry{
		AccountID:     account.ID,
		Kind:          domain.LedgerEntryWithdrawal,
		Direction:     domain.EntryDirectionDebit,
		Amount:        amount,
		Fee:           fee,
		Description:   description,
		BalanceBefore: account.Balance,
		BalanceAfter:  newBalance,
	}
	entry, err = insertEntry(ctx, tx, entry)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	if err = tx.Commit(); err != nil {
		logger.Error("ledger repository commit withdraw tx failed", err, nil)
		return domain.LedgerEntry{}, fmt.Errorf("commit withdraw transaction: %w", err)
	}

	return entry, nil
}

func (r *LedgerRepository) Deposit(ctx context.Context, accountNumber string, amount decimal.Decimal, origin *string, description string) (domain.LedgerEntry, error) {
	logger.Info("ledger repository deposit", logger.Fields{
		"accountNumber": accountNumber,
		"amount":        amount,
	})

	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.LedgerEntry{}, domain.ErrInvalidAmount
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("ledger repository begin deposit tx failed", err, nil)
		return domain.LedgerEntry{}, fmt.Errorf("begin deposit transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	account, err := lockAccount(ctx, tx, accountNumber)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	if !account.Active {
		err = domain.ErrAccountInactive
		return domain.LedgerEntry{}, err
	}

	newBalance := account.Balance.Add(amount)
	if err = updateBalance(ctx, tx, account.ID, newBalance, false); err != nil {
		return domain.LedgerEntry{}, err
	}

	entry := domain.LedgerEntry{
		AccountID:     account.ID,
		Kind:          domain.LedgerEntryDeposit,
		Direction:     domain.EntryDirectionCredit,
		Amount:        amount,
		Description:   description,
		Origin:        origin,
		BalanceBefore: account.Balance,
		BalanceAfter:  newBalance,
	}
	entry, err = insertEntry(ctx, tx, entry)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	if err = tx.Commit(); err != nil {
		logger.Error("ledger repository commit deposit tx failed", err, nil)
		return domain.LedgerEntry{}, fmt.Errorf("commit deposit transaction: %w", err)
	}

	return entry, nil
}

func (r *LedgerRepository) Transfer(ctx context.Context, posting domain.TransferPosting) (domain.LedgerEntry, domain.LedgerEntry, error) {
	logger.Info("ledger repository transfer", logger.Fields{
		"sourceNumber":      posting.SourceNumber,
		"destinationNumber": posting.DestinationNumber,
		"amount":            posting.Amount,
	})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("ledger repository begin transfer tx failed", err, nil)
		return domain.LedgerEntry{}, domain.LedgerEntry{}, fmt.Errorf("begin transfer transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var debitEntry, creditEntry domain.LedgerEntry
	debitEntry, creditEntry, err = r.postTransfer(ctx, tx, posting, domain.LedgerEntryTransfer)
	if err != nil {
		return domain.LedgerEntry{}, domain.LedgerEntry{}, err
	}

	if err = tx.Commit(); err != nil {
		logger.Error("ledger repository commit transfer tx failed", err, nil)
		return domain.LedgerEntry{}, domain.LedgerEntry{}, fmt.Errorf("commit transfer transaction: %w", err)
	}

	return debitEntry, creditEntry, nil
}

func (r *LedgerRepository) KeyTransfer(ctx context.Context, posting domain.KeyTransferPosting) (domain.KeyTransfer, domain.LedgerEntry, domain.LedgerEntry, error) {
	logger.Info("ledger repository key transfer", logger.Fields{
		"sourceNumber":      posting.SourceNumber,
		"destinationNumber": posting.DestinationNumber,
		"amount":            posting.Amount,
	})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("ledger repository begin key transfer tx failed", err, nil)
		return domain.KeyTransfer{}, domain.LedgerEntry{}, domain.LedgerEntry{}, fmt.Errorf("begin key transfer transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var debitEntry, creditEntry domain.LedgerEntry
	debitEntry, creditEntry, err = r.postTransfer(ctx, tx, posting.TransferPosting, domain.LedgerEntryKeyTransfer)
	if err != nil {
		return domain.KeyTransfer{}, domain.LedgerEntry{}, domain.LedgerEntry{}, err
	}

	transfer := domain.KeyTransfer{
		OriginKey:            posting.OriginKey,
		DestinationKey:       posting.DestinationKey,
		AmountCents:          posting.Amount.Shift(2).IntPart(),
		Description:          posting.Description,
		Status:               domain.KeyTransferStatusProcessing,
		OriginAccountID:      debitEntry.AccountID,
		DestinationAccountID: &creditEntry.AccountID,
	}

	const insertTransfer = `
INSERT INTO key_transfers (
	origin_key,
	destination_key,
	amount_cents,
	description,
	status,
	origin_account_id,
	destination_account_id
) VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at`

	if err = tx.QueryRowContext(
		ctx,
		insertTransfer,
		transfer.OriginKey,
		transfer.DestinationKey,
		transfer.AmountCents,
		transfer.Description,
		transfer.Status,
		transfer.OriginAccountID,
		transfer.DestinationAccountID,
	).Scan(&transfer.ID, &transfer.CreatedAt); err != nil {
		logger.Error("ledger repository insert key transfer failed", err, nil)
		err = fmt.Errorf("insert key transfer: %w", err)
		return domain.KeyTransfer{}, domain.LedgerEntry{}, domain.LedgerEntry{}, err
	}

	// Both entries are in; flip to completed before the commit makes any
	// of it visible.
	if _, err = tx.ExecContext(
		ctx,
		`UPDATE key_transfers SET status = $2 WHERE id = $1`,
		transfer.ID,
		domain.KeyTransferStatusCompleted,
	); err != nil {
		err = fmt.Errorf("complete key transfer: %w", err)
		return domain.KeyTransfer{}, domain.LedgerEntry{}, domain.LedgerEntry{}, err
	}
	transfer.Status = domain.KeyTransferStatusCompleted

	if err = tx.Commit(); err != nil {
		logger.Error("ledger repository commit key transfer tx failed", err, nil)
		return domain.KeyTransfer{}, domain.LedgerEntry{}, domain.LedgerEntry{}, fmt.Errorf("commit key transfer transaction: %w", err)
	}

	return transfer, debitEntry, creditEntry, nil
}

func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID string, from time.Time, to time.Time, kind *domain.LedgerEntryKind) ([]domain.LedgerEntry, error) {
	const query = `
SELECT id,
       account_id,
       kind,
       direction,
       amount,
       fee,
       description,
       origin,
       balance_before,
       balance_after,
       created_at
FROM ledger_entries
WHERE account_id = $1
  AND created_at >= $2
  AND created_at <= $3
  AND ($4::varchar = '' OR kind = $4)
ORDER BY created_at DESC`

	kindFilter := ""
	if kind != nil {
		kindFilter = string(*kind)
	}

	rows, err := r.db.QueryContext(ctx, query, accountID, from, to, kindFilter)
	if err != nil {
		logger.Error("ledger repository list by account failed", err, logger.Fields{
			"accountId": accountID,
		})
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var (
			entry       domain.LedgerEntry
			description sql.NullString
			origin      sql.NullString
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&entry.Kind,
			&entry.Direction,
			&entry.Amount,
			&entry.Fee,
			&description,
			&origin,
			&entry.BalanceBefore,
			&entry.BalanceAfter,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		if description.Valid {
			entry.Description = description.String
		}
		if origin.Valid {
			value := origin.String
			entry.Origin = &value
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}

	return entries, nil
}

// postTransfer debits the source, credits the destination, and writes one
// entry per side. Rows are locked in account-number order so two opposing
// transfers cannot deadlock.
func (r *LedgerRepository) postTransfer(ctx context.Context, tx *sql.Tx, posting domain.TransferPosting, kind domain.LedgerEntryKind) (domain.LedgerEntry, domain.LedgerEntry, error) {
	if posting.Amount.LessThanOrEqual(decimal.Zero) {
		return domain.LedgerEntry{}, domain.LedgerEntry{}, domain.ErrInvalidAmount
	}
	if posting.SourceNumber == posting.DestinationNumber {
		return domain.LedgerEntry{}, domain.LedgerEntry{}, domain.ErrSelfTransferNotAllowed
	}

	first, second := posting.SourceNumber, posting.DestinationNumber
	if second < first {
		first, second = second, first
	}

	locked := make(map[string]domain.Account, 2)
	for _, number := range []string{first, second} {
		account, err := lockAccount(ctx, tx, number)
		if err != nil {
			return domain.LedgerEntry{}, domain.LedgerEntry{}, err
		}
		if !account.Active {
			return domain.LedgerEntry{}, domain.LedgerEntry{}, domain.ErrAccountInactive
		}
		locked[number] = account
	}

	source := locked[posting.SourceNumber]
	destination := locked[posting.DestinationNumber]

	// Transfers are bound by funds only; the withdrawal cap does not
	// apply to transfer-out debits.
	if posting.Amount.GreaterThan(source.AvailableForDebit()) {
		return domain.LedgerEntry{}, domain.LedgerEntry{}, domain.ErrInsufficientFunds
	}

	newSourceBalance := source.Balance.Sub(posting.Amount)
	newDestinationBalance := destination.Balance.Add(posting.Amount)

	if err := updateBalance(ctx, tx, source.ID, newSourceBalance, false); err != nil {
		return domain.LedgerEntry{}, domain.LedgerEntry{}, err
	}
	if err := updateBalance(ctx, tx, destination.ID, newDestinationBalance, false); err != nil {
		return domain.LedgerEntry{}, domain.LedgerEntry{}, err
	}

	debitEntry := domain.LedgerEntry{
		AccountID:     source.ID,
		Kind:          kind,
		Direction:     domain.EntryDirectionDebit,
		Amount:        posting.Amount,
		Description:   posting.SourceDescription,
		BalanceBefore: source.Balance,
		BalanceAfter:  newSourceBalance,
	}
	creditEntry := domain.LedgerEntry{
		AccountID:     destination.ID,
		Kind:          kind,
		Direction:     domain.EntryDirectionCredit,
		Amount:        posting.Amount,
		Description:   posting.DestinationDescription,
		BalanceBefore: destination.Balance,
		BalanceAfter:  newDestinationBalance,
	}

	debitEntry, err := insertEntry(ctx, tx, debitEntry)
	if err != nil {
		return domain.LedgerEntry{}, domain.LedgerEntry{}, err
	}
	creditEntry, err = insertEntry(ctx, tx, creditEntry)
	if err != nil {
		return domain.LedgerEntry{}, domain.LedgerEntry{}, err
	}

	return debitEntry, creditEntry, nil
}

func lockAccount(ctx context.Context, tx *sql.Tx, number string) (domain.Account, error) {
	const query = `
SELECT id,
       client_id,
       account_number,
       branch,
       kind,
       balance,
       credit_limit,
       withdrawal_cap,
       withdrawals_used,
       active,
       created_at,
       updated_at
FROM accounts
WHERE account_number = $1
FOR UPDATE`

	account, err := scanAccount(tx.QueryRowContext(ctx, query, number))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Account{}, domain.ErrAccountNotFound
		}
		return domain.Account{}, fmt.Errorf("lock account %q: %w", number, err)
	}

	return account, nil
}

func updateBalance(ctx context.Context, tx *sql.Tx, accountID string, balance decimal.Decimal, bumpWithdrawals bool) error {
	const query = `
UPDATE accounts
SET balance = $2,
    withdrawals_used = withdrawals_used + CASE WHEN $3 THEN 1 ELSE 0 END,
    updated_at = NOW()
WHERE id = $1`

	result, err := tx.ExecContext(ctx, query, accountID, balance, bumpWithdrawals)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update balance rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

func insertEntry(ctx context.Context, tx *sql.Tx, entry domain.LedgerEntry) (domain.LedgerEntry, error) {
	const query = `
INSERT INTO ledger_entries (
	account_id,
	kind,
	direction,
	amount,
	fee,
	description,
	origin,
	balance_before,
	balance_after
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, created_at`

	if err := tx.QueryRowContext(
		ctx,
		query,
		entry.AccountID,
		entry.Kind,
		entry.Direction,
		entry.Amount,
		entry.Fee,
		entry.Description,
		entry.Origin,
		entry.BalanceBefore,
		entry.BalanceAfter,
	).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("insert ledger entry: %w", err)
	}

	return entry, nil
}
