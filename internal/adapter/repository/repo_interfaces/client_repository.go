package repo_interfaces

import (
	"context"

	"github.com/atlasbank/core-banking/internal/domain"
)

type ClientRepository interface {
	Create(ctx context.Context, client domain.Client) (domain.Client, error)
	GetByCPF(ctx context.Context, cpf string) (domain.Client, error)
	GetByID(ctx context.Context, id string) (domain.Client, error)
}
