package repo_interfaces

import (
	"context"

	"github.com/atlasbank/core-banking/internal/domain"
)

type PaymentKeyRepository interface {
	Create(ctx context.Context, key domain.PaymentKey) (domain.PaymentKey, error)
	GetActiveByKey(ctx context.Context, key string) (domain.PaymentKey, error)
	// FirstActiveByAccount returns the oldest active key of the account.
	FirstActiveByAccount(ctx context.Context, accountID string) (domain.PaymentKey, error)
	ListActiveByAccount(ctx context.Context, accountID string) ([]domain.PaymentKey, error)
	CountActiveByAccount(ctx context.Context, accountID string) (int, error)
	// Deactivate only matches active keys on accounts owned by clientID.
	Deactivate(ctx context.Context, key string, clientID string) error
}
