package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atlasbank/core-banking/internal/domain"
	"github.com/atlasbank/core-banking/internal/logger"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id,
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
       updated_at`

func (r *AccountRepository) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	logger.Info("account repository create", logger.Fields{
		"accountNumber": account.Number,
		"clientId":      account.ClientID,
		"kind":          account.Kind,
	})

	const query = `
INSERT INTO accounts (
	client_id,
	account_number,
	branch,
	kind,
	balance,
	credit_limit,
	withdrawal_cap,
	withdrawals_used,
	active
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, created_at, updated_at`

	var (
		id        string
		createdAt time.Time
		updatedAt time.Time
	)

	if err := r.db.QueryRowContext(
		ctx,
		query,
		account.ClientID,
		account.Number,
		account.Branch,
		account.Kind,
		account.Balance,
		account.CreditLimit,
		account.WithdrawalCap,
		account.WithdrawalsUsed,
		account.Active,
	).Scan(&id, &createdAt, &updatedAt); err != nil {
		logger.Error("account repository create failed", err, logger.Fields{
			"accountNumber": account.Number,
		})
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	account.ID = id
	account.CreatedAt = createdAt
	account.UpdatedAt = updatedAt

	return account, nil
}

func (r *AccountRepository) GetByNumber(ctx context.Context, number string) (domain.Account, error) {
	query := `
SELECT ` + accountColumns + `
FROM accounts
WHERE account_number = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, number))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Account{}, domain.ErrAccountNotFound
		}
		logger.Error("account repository get by number failed", err, logger.Fields{
			"accountNumber": number,
		})
		return domain.Account{}, fmt.Errorf("get account by number: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (domain.Account, error) {
	query := `
SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Account{}, domain.ErrAccountNotFound
		}
		logger.Error("account repository get by id failed", err, logger.Fields{
			"accountId": id,
		})
		return domain.Account{}, fmt.Errorf("get account by id: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) GetOwnedByNumber(ctx context.Context, number string, clientID string) (domain.Account, error) {
	query := `
SELECT ` + accountColumns + `
FROM accounts
WHERE account_number = $1
  AND client_id = $2
  AND active`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, number, clientID))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Account{}, domain.ErrAccountNotFound
		}
		logger.Error("account repository get owned by number failed", err, logger.Fields{
			"accountNumber": number,
			"clientId":      clientID,
		})
		return domain.Account{}, fmt.Errorf("get owned account: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) ListByClient(ctx context.Context, clientID string) ([]domain.Account, error) {
	query := `
SELECT ` + accountColumns + `
FROM accounts
WHERE client_id = $1
  AND active
ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, clientID)
	if err != nil {
		logger.Error("account repository list by client failed", err, logger.Fields{
			"clientId": clientID,
		})
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

// SetActive flips the active flag. The balance guard lives in the statement
// so an account cannot be deactivated between the service's check and the
// write.
func (r *AccountRepository) SetActive(ctx context.Context, number string, clientID string, active bool) error {
	logger.Info("account repository set active", logger.Fields{
		"accountNumber": number,
		"active":        active,
	})

	const query = `
UPDATE accounts
SET active = $3,
    updated_at = NOW()
WHERE account_number = $1
  AND client_id = $2
  AND (balance = 0 OR $3)`

	result, err := r.db.ExecContext(ctx, query, number, clientID, active)
	if err != nil {
		logger.Error("account repository set active failed", err, logger.Fields{
			"accountNumber": number,
		})
		return fmt.Errorf("set account active: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set account active rows affected: %w", err)
	}
	if rows == 0 {
		exists, checkErr := r.ownedAccountExists(ctx, number, clientID)
		if checkErr != nil {
			return checkErr
		}
		if !exists {
			return domain.ErrAccountNotFound
		}
		return domain.ErrAccountHasBalance
	}

	return nil
}

func (r *AccountRepository) ownedAccountExists(ctx context.Context, number string, clientID string) (bool, error) {
	var count int
	const query = `SELECT COUNT(1) FROM accounts WHERE account_number = $1 AND client_id = $2`
	if err := r.db.QueryRowContext(ctx, query, number, clientID).Scan(&count); err != nil {
		return false, fmt.Errorf("check account exists: %w", err)
	}
	return count > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var account domain.Account
	err := row.Scan(
		&account.ID,
		&account.ClientID,
		&account.Number,
		&account.Branch,
		&account.Kind,
		&account.Balance,
		&account.CreditLimit,
		&account.WithdrawalCap,
		&account.WithdrawalsUsed,
		&account.Active,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	return account, err
}
