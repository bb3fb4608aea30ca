package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atlasbank/core-banking/internal/adapter/http/models"
	"github.com/atlasbank/core-banking/internal/adapter/repository/repo_interfaces"
	"github.com/atlasbank/core-banking/internal/commons"
	"github.com/atlasbank/core-banking/internal/config"
	"github.com/atlasbank/core-banking/internal/domain"
	"github.com/atlasbank/core-banking/internal/logger"
	"github.com/shopspring/decimal"
)

type AccountService struct {
	accountRepo repo_interfaces.AccountRepository
	policy      config.Policy
}

func NewAccountService(accountRepo repo_interfaces.AccountRepository, policy config.Policy) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		policy:      policy,
	}
}

func (s *AccountService) CreateAccount(ctx context.Context, client domain.Client, req models.CreateAccountRequest) (commons.Response[models.AccountResponse], error) {
	logger.Info("account service create account request", logger.Fields{
		"clientId": client.ID,
		"payload":  logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("account service create account validation failed", err, nil)
		return commons.ErrorResponse[models.AccountResponse]("validation failed", err.Error()), err
	}

	account := domain.Account{
		ClientID: client.ID,
		Number:   generateAccountNumber(),
		Branch:   s.policy.Branch,
		Kind:     domain.AccountKind(strings.ToLower(strings.TrimSpace(req.Kind))),
		Balance:  decimal.Zero,
		Active:   true,
	}

	if account.Kind == domain.AccountKindOverdraft {
		account.CreditLimit = s.policy.DefaultCreditLimit
		if req.CreditLimit != nil {
			account.CreditLimit = req.CreditLimit.Round(2)
		}
		account.WithdrawalCap = s.policy.WithdrawalCap
	}

	created, err := s.accountRepo.Create(ctx, account)
	if err != nil {
		logger.Error("account service create account repository failed", err, logger.Fields{
			"clientId": client.ID,
		})
		return commons.ErrorResponse[models.AccountResponse]("failed to create account", "Unable to create account right now"), err
	}

	response := mapAccountToResponse(created)

	logger.Info("account service create account success", logger.Fields{
		"accountId":     created.ID,
		"accountNumber": created.Number,
		"clientId":      created.ClientID,
	})

	return commons.SuccessResponse("account created successfully", response), nil
}

func (s *AccountService) ListAccounts(ctx context.Context, client domain.Client) (commons.Response[models.AccountListResponse], error) {
	logger.Info("account service list accounts request", logger.Fields{
		"clientId": client.ID,
	})

	accounts, err := s.accountRepo.ListByClient(ctx, client.ID)
	if err != nil {
		logger.Error("account service list accounts failed", err, logger.Fields{
			"clientId": client.ID,
		})
		return commons.ErrorResponse[models.AccountListResponse]("failed to list accounts", "Unable to list accounts right now"), err
	}

	response := models.AccountListResponse{
		Accounts: make([]models.AccountResponse, 0, len(accounts)),
		Total:    len(accounts),
	}
	for _, account := range accounts {
		response.Accounts = append(response.Accounts, mapAccountToResponse(account))
	}

	return commons.SuccessResponse("accounts fetched successfully", response), nil
}

func (s *AccountService) GetAccount(ctx context.Context, client domain.Client, number string) (commons.Response[models.AccountResponse], error) {
	logger.Info("account service get account request", logger.Fields{
		"clientId":      client.ID,
		"accountNumber": number,
	})

	account, err := s.accountRepo.GetOwnedByNumber(ctx, strings.TrimSpace(number), client.ID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return commons.ErrorResponse[models.AccountResponse]("Account not found"), err
		}
		logger.Error("account service get account failed", err, logger.Fields{
			"accountNumber": number,
		})
		return commons.ErrorResponse[models.AccountResponse]("failed to get account", "Unable to fetch account right now"), err
	}

	return commons.SuccessResponse("account fetched successfully", mapAccountToResponse(account)), nil
}

func (s *AccountService) GetBalance(ctx context.Context, client domain.Client, number string) (commons.Response[models.BalanceResponse], error) {
	logger.Info("account service get balance request", logger.Fields{
		"clientId":      client.ID,
		"accountNumber": number,
	})

	account, err := s.accountRepo.GetOwnedByNumber(ctx, strings.TrimSpace(number), client.ID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return commons.ErrorResponse[models.BalanceResponse]("Account not found"), err
		}
		logger.Error("account service get balance failed", err, logger.Fields{
			"accountNumber": number,
		})
		return commons.ErrorResponse[models.BalanceResponse]("failed to get balance", "Unable to fetch balance right now"), err
	}

	response := models.BalanceResponse{
		AccountNumber:    account.Number,
		CurrentBalance:   account.Balance.StringFixed(2),
		AvailableBalance: account.AvailableForDebit().StringFixed(2),
	}
	if account.Kind == domain.AccountKindOverdraft {
		response.CreditLimit = account.CreditLimit.StringFixed(2)
	}

	return commons.SuccessResponse("balance fetched successfully", response), nil
}

func (s *AccountService) DeactivateAccount(ctx context.Context, client domain.Client, number string) (commons.Response[models.AccountStatusResponse], error) {
	logger.Info("account service deactivate account request", logger.Fields{
		"clientId":      client.ID,
		"accountNumber": number,
	})

	number = strings.TrimSpace(number)
	if err := s.accountRepo.SetActive(ctx, number, client.ID, false); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return commons.ErrorResponse[models.AccountStatusResponse]("Account not found"), err
		}
		if errors.Is(err, domain.ErrAccountHasBalance) {
			return commons.ErrorResponse[models.AccountStatusResponse]("Account balance must be zero", err.Error()), err
		}
		logger.Error("account service deactivate account failed", err, logger.Fields{
			"accountNumber": number,
		})
		return commons.ErrorResponse[models.AccountStatusResponse]("failed to deactivate account", "Unable to deactivate account right now"), err
	}

	response := models.AccountStatusResponse{
		AccountNumber: number,
		Active:        false,
	}

	logger.Info("account service deactivate account success", logger.Fields{
		"accountNumber": number,
	})

	return commons.SuccessResponse("account deactivated successfully", response), nil
}

func (s *AccountService) ToggleAccountStatus(ctx context.Context, client domain.Client, number string) (commons.Response[models.AccountStatusResponse], error) {
	logger.Info("account service toggle status request", logger.Fields{
		"clientId":      client.ID,
		"accountNumber": number,
	})

	number = strings.TrimSpace(number)
	account, err := s.accountRepo.GetByNumber(ctx, number)
	if err != nil || account.ClientID != client.ID {
		if err == nil {
			err = domain.ErrAccountNotFound
		}
		if errors.Is(err, domain.ErrAccountNotFound) {
			return commons.ErrorResponse[models.AccountStatusResponse]("Account not found"), err
		}
		logger.Error("account service toggle status lookup failed", err, logger.Fields{
			"accountNumber": number,
		})
		return commons.ErrorResponse[models.AccountStatusResponse]("failed to toggle account status", "Unable to toggle account status right now"), err
	}

	if err := s.accountRepo.SetActive(ctx, number, client.ID, !account.Active); err != nil {
		if errors.Is(err, domain.ErrAccountHasBalance) {
			return commons.ErrorResponse[models.AccountStatusResponse]("Account balance must be zero", err.Error()), err
		}
		logger.Error("account service toggle status failed", err, logger.Fields{
			"accountNumber": number,
		})
		return commons.ErrorResponse[models.AccountStatusResponse]("failed to toggle account status", "Unable to toggle account status right now"), err
	}

	response := models.AccountStatusResponse{
		AccountNumber: number,
		Active:        !account.Active,
	}

	return commons.SuccessResponse("account status updated successfully", response), nil
}

func mapAccountToResponse(account domain.Account) models.AccountResponse {
	response := models.AccountResponse{
		ID:            account.ID,
		AccountNumber: account.Number,
		Branch:        account.Branch,
		Kind:          string(account.Kind),
		Balance:       account.Balance.StringFixed(2),
		Active:        account.Active,
		CreatedAt:     account.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     account.UpdatedAt.Format(time.RFC3339),
	}
	if account.Kind == domain.AccountKindOverdraft {
		response.CreditLimit = account.CreditLimit.StringFixed(2)
		response.WithdrawalCap = account.WithdrawalCap
		response.WithdrawalsUsed = account.WithdrawalsUsed
	}
	return response
}

func generateAccountNumber() string {
	return fmt.Sprintf("%010d", time.Now().UnixNano()%10_000_000_000)
}
