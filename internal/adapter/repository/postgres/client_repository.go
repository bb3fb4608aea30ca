package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atlasbank/core-banking/internal/domain"
	"github.com/atlasbank/core-banking/internal/logger"
	"github.com/lib/pq"
)

type ClientRepository struct {
	db *sql.DB
}

func NewClientRepository(db *sql.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, client domain.Client) (domain.Client, error) {
	logger.Info("client repository create", logger.Fields{
		"cpf": client.CPF,
	})

	const query = `
INSERT INTO clients (
	cpf,
	name,
	birth_date,
	address,
	password_hash,
	active
) VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, updated_at`

	var (
		id        string
		createdAt time.Time
		updatedAt time.Time
	)

	if err := r.db.QueryRowContext(
		ctx,
		query,
		client.CPF,
		client.Name,
		client.BirthDate,
		client.Address,
		client.PasswordHash,
		client.Active,
	).Scan(&id, &createdAt, &updatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.Client{}, domain.ErrDuplicateCPF
		}
		logger.Error("client repository create failed", err, logger.Fields{
			"cpf": client.CPF,
		})
		return domain.Client{}, fmt.Errorf("create client: %w", err)
	}

	client.ID = id
	client.CreatedAt = createdAt
	client.UpdatedAt = updatedAt

	return client, nil
}

func (r *ClientRepository) GetByCPF(ctx context.Context, cpf string) (domain.Client, error) {
	const query = `
SELECT id,
       cpf,
       name,
       birth_date,
       address,
       password_hash,
       active,
       created_at,
       updated_at
FROM clients
WHERE cpf = $1`

	var client domain.Client
	if err := r.db.QueryRowContext(ctx, query, cpf).Scan(
		&client.ID,
		&client.CPF,
		&client.Name,
		&client.BirthDate,
		&client.Address,
		&client.PasswordHash,
		&client.Active,
		&client.CreatedAt,
		&client.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Client{}, domain.ErrRecordNotFound
		}
		logger.Error("client repository get by cpf failed", err, logger.Fields{
			"cpf": cpf,
		})
		return domain.Client{}, fmt.Errorf("get client by cpf: %w", err)
	}

	return client, nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id string) (domain.Client, error) {
	const query = `
SELECT id,
       cpf,
       name,
       birth_date,
       address,
       password_hash,
       active,
       created_at,
       updated_at
FROM clients
WHERE id = $1`

	var client domain.Client
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&client.ID,
		&client.CPF,
		&client.Name,
		&client.BirthDate,
		&client.Address,
		&client.PasswordHash,
		&client.Active,
		&client.CreatedAt,
		&client.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Client{}, domain.ErrRecordNotFound
		}
		logger.Error("client repository get by id failed", err, logger.Fields{
			"clientId": id,
		})
		return domain.Client{}, fmt.Errorf("get client by id: %w", err)
	}

	return client, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == "23505"
	}
	return false
}
