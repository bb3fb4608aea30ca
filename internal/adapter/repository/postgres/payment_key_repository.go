package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atlasbank/core-banking/internal/domain"
	"github.com/atlasbank/core-banking/internal/logger"
)

type PaymentKeyRepository struct {
	db *sql.DB
}

func NewPaymentKeyRepository(db *sql.DB) *PaymentKeyRepository {
	return &PaymentKeyRepository{db: db}
}

func (r *PaymentKeyRepository) Create(ctx context.Context, key domain.PaymentKey) (domain.PaymentKey, error) {
	logger.Info("payment key repository create", logger.Fields{
		"accountId": key.AccountID,
		"kind":      key.Kind,
	})

	const query = `
INSERT INTO payment_keys (
	account_id,
	key,
	kind,
	active
) VALUES ($1, $2, $3, $4)
RETURNING id, created_at`

	var (
		id        string
		createdAt time.Time
	)

	if err := r.db.QueryRowContext(
		ctx,
		query,
		key.AccountID,
		key.Key,
		key.Kind,
		key.Active,
	).Scan(&id, &createdAt); err != nil {
		if isUniqueViolation(err) {
			return domain.PaymentKey{}, domain.ErrDuplicateKey
		}
		logger.Error("payment key repository create failed", err, logger.Fields{
			"accountId": key.AccountID,
		})
		return domain.PaymentKey{}, fmt.Errorf("create payment key: %w", err)
	}

	key.ID = id
	key.CreatedAt = createdAt

	return key, nil
}

func (r *PaymentKeyRepository) GetActiveByKey(ctx context.Context, key string) (domain.PaymentKey, error) {
	const query = `
SELECT id, account_id, key, kind, active, created_at
FROM payment_keys
WHERE key = $1
  AND active`

	var found domain.PaymentKey
	if err := r.db.QueryRowContext(ctx, query, key).Scan(
		&found.ID,
		&found.AccountID,
		&found.Key,
		&found.Kind,
		&found.Active,
		&found.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.PaymentKey{}, domain.ErrKeyNotFound
		}
		logger.Error("payment key repository get active by key failed", err, nil)
		return domain.PaymentKey{}, fmt.Errorf("get payment key: %w", err)
	}

	return found, nil
}

func (r *PaymentKeyRepository) FirstActiveByAccount(ctx context.Context, accountID string) (domain.PaymentKey, error) {
	const query = `
SELECT id, account_id, key, kind, active, created_at
FROM payment_keys
WHERE account_id = $1
  AND active
ORDER BY created_at
LIMIT 1`

	var found domain.PaymentKey
	if err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&found.ID,
		&found.AccountID,
		&found.Key,
		&found.Kind,
		&found.Active,
		&found.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.PaymentKey{}, domain.ErrNoActiveOriginKey
		}
		logger.Error("payment key repository first active by account failed", err, logger.Fields{
			"accountId": accountID,
		})
		return domain.PaymentKey{}, fmt.Errorf("get first active payment key: %w", err)
	}

	return found, nil
}

func (r *PaymentKeyRepository) ListActiveByAccount(ctx context.Context, accountID string) ([]domain.PaymentKey, error) {
	const query = `
SELECT id, account_id, key, kind, active, created_at
FROM payment_keys
WHERE account_id = $1
  AND active
ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		logger.Error("payment key repository list active failed", err, logger.Fields{
			"accountId": accountID,
		})
		return nil, fmt.Errorf("list payment keys: %w", err)
	}
	defer rows.Close()

	var keys []domain.PaymentKey
	for rows.Next() {
		var key domain.PaymentKey
		if err := rows.Scan(
			&key.ID,
			&key.AccountID,
			&key.Key,
			&key.Kind,
			&key.Active,
			&key.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan payment key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment keys: %w", err)
	}

	return keys, nil
}

func (r *PaymentKeyRepository) CountActiveByAccount(ctx context.Context, accountID string) (int, error) {
	var count int
	const query = `SELECT COUNT(1) FROM payment_keys WHERE account_id = $1 AND active`
	if err := r.db.QueryRowContext(ctx, query, accountID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count payment keys: %w", err)
	}
	return count, nil
}

func (r *PaymentKeyRepository) Deactivate(ctx context.Context, key string, clientID string) error {
	logger.Info("payment key repository deactivate", logger.Fields{
		"clientId": clientID,
	})

	const query = `
UPDATE payment_keys
SET active = FALSE
WHERE key = $1
  AND active
  AND account_id IN (SELECT id FROM accounts WHERE client_id = $2)`

	result, err := r.db.ExecContext(ctx, query, key, clientID)
	if err != nil {
		logger.Error("payment key repository deactivate failed", err, logger.Fields{
			"clientId": clientID,
		})
		return fmt.Errorf("deactivate payment key: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate payment key rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrKeyNotFound
	}

	return nil
}
