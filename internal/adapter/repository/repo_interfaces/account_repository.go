package repo_interfaces

import (
	"context"

	"github.com/atlasbank/core-banking/internal/domain"
)

type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) (domain.Account, error)
	GetByNumber(ctx context.Context, number string) (domain.Account, error)
	GetByID(ctx context.Context, id string) (domain.Account, error)
	// GetOwnedByNumber only matches active accounts owned by clientID.
	GetOwnedByNumber(ctx context.Context, number string, clientID string) (domain.Account, error)
	ListByClient(ctx context.Context, clientID string) ([]domain.Account, error)
	// SetActive refuses the transition when the balance is nonzero.
	SetActive(ctx context.Context, number string, clientID string, active bool) error
}
