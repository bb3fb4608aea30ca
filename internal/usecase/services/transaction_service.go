package services

import (
	"context"
	"errors"
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

const defaultStatementPeriod = 30 * 24 * time.Hour

type TransactionService struct {
	accountRepo repo_interfaces.AccountRepository
	clientRepo  repo_interfaces.ClientRepository
	ledgerRepo  repo_interfaces.LedgerRepository
	policy      config.Policy
}

func NewTransactionService(
	accountRepo repo_interfaces.AccountRepository,
	clientRepo repo_interfaces.ClientRepository,
	ledgerRepo repo_interfaces.LedgerRepository,
	policy config.Policy,
) *TransactionService {
	return &TransactionService{
		accountRepo: accountRepo,
		clientRepo:  clientRepo,
		ledgerRepo:  ledgerRepo,
		policy:      policy,
	}
}

func (s *TransactionService) Withdraw(ctx context.Context, client domain.Client, accountNumber string, req models.WithdrawRequest) (commons.Response[models.LedgerEntryResponse], error) {
	logger.Info("transaction service withdraw request", logger.Fields{
		"clientId":      client.ID,
		"accountNumber": accountNumber,
		"payload":       logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("transaction service withdraw validation failed", err, nil)
		return commons.ErrorResponse[models.LedgerEntryResponse]("validation failed", err.Error()), err
	}

	account, err := s.accountRepo.GetOwnedByNumber(ctx, strings.TrimSpace(accountNumber), client.ID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return commons.ErrorResponse[models.LedgerEntryResponse]("Account not found"), err
		}
		return commons.ErrorResponse[models.LedgerEntryResponse]("failed to withdraw", "Unable to withdraw right now"), err
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "Cash withdrawal"
	}

	entry, err := s.ledgerRepo.Withdraw(ctx, account.Number, req.Amount.Round(2), s.policy.WithdrawalFee, description)
	if err != nil {
		return mapPostingError[models.LedgerEntryResponse](err, "failed to withdraw", "Unable to withdraw right now"), err
	}

	logger.Info("transaction service withdraw success", logger.Fields{
		"accountNumber": account.Number,
		"entryId":       entry.ID,
		"amount":        entry.Amount,
	})

	return commons.SuccessResponse("withdrawal successful", mapEntryToResponse(entry)), nil
}

func (s *TransactionService) Deposit(ctx context.Context, client domain.Client, accountNumber string, req models.DepositRequest) (commons.Response[models.LedgerEntryResponse], error) {
	logger.Info("transaction service deposit request", logger.Fields{
		"clientId":      client.ID,
		"accountNumber": accountNumber,
		"payload":       logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("transaction service deposit validation failed", err, nil)
		return commons.ErrorResponse[models.LedgerEntryResponse]("validation failed", err.Error()), err
	}

	account, err := s.accountRepo.GetOwnedByNumber(ctx, strings.TrimSpace(accountNumber), client.ID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return commons.ErrorResponse[models.LedgerEntryResponse]("Account not found"), err
		}
		return commons.ErrorResponse[models.LedgerEntryResponse]("failed to deposit", "Unable to deposit right now"), err
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "Account deposit"
	}

	var origin *string
	if trimmed := strings.TrimSpace(req.Origin); trimmed != "" {
		origin = &trimmed
	}

	entry, err := s.ledgerRepo.Deposit(ctx, account.Number, req.Amount.Round(2), origin, description)
	if err != nil {
		return mapPostingError[models.LedgerEntryResponse](err, "failed to deposit", "Unable to deposit right now"), err
	}

	logger.Info("transaction service deposit success", logger.Fields{
		"accountNumber": account.Number,
		"entryId":       entry.ID,
		"amount":        entry.Amount,
	})

	return commons.SuccessResponse("deposit successful", mapEntryToResponse(entry)), nil
}

func (s *TransactionService) ValidateTransfer(ctx context.Context, client domain.Client, sourceNumber string, req models.TransferRequest) (commons.Response[models.TransferValidationResponse], error) {
	logger.Info("transaction service validate transfer request", logger.Fields{
		"clientId":     client.ID,
		"sourceNumber": sourceNumber,
		"payload":      logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.TransferValidationResponse]("validation failed", err.Error()), err
	}

	source, destination, beneficiary, err := s.resolveTransferParties(ctx, client, sourceNumber, req.DestinationNumber)
	if err != nil {
		return mapPostingError[models.TransferValidationResponse](err, "failed to validate transfer", "Unable to validate transfer right now"), err
	}

	amount := req.Amount.Round(2)
	if amount.GreaterThan(source.AvailableForDebit()) {
		err := domain.ErrInsufficientFunds
		return commons.ErrorResponse[models.TransferValidationResponse]("Insufficient funds", err.Error()), err
	}

	fee := decimal.Zero
	response := models.TransferValidationResponse{
		DestinationNumber: destination.Number,
		BeneficiaryName:   beneficiary.Name,
		BeneficiaryCPF:    beneficiary.CPF,
		Amount:            amount.StringFixed(2),
		Fee:               fee.StringFixed(2),
		Total:             amount.Add(fee).StringFixed(2),
		AvailableBalance:  source.AvailableForDebit().StringFixed(2),
	}

	return commons.SuccessResponse("transfer validated successfully", response), nil
}

func (s *TransactionService) Transfer(ctx context.Context, client domain.Client, sourceNumber string, req models.TransferRequest) (commons.Response[models.TransferResponse], error) {
	logger.Info("transaction service transfer request", logger.Fields{
		"clientId":     client.ID,
		"sourceNumber": sourceNumber,
		"payload":      logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("transaction service transfer validation failed", err, nil)
		return commons.ErrorResponse[models.TransferResponse]("validation failed", err.Error()), err
	}

	source, destination, beneficiary, err := s.resolveTransferParties(ctx, client, sourceNumber, req.DestinationNumber)
	if err != nil {
		return mapPostingError[models.TransferResponse](err, "failed to transfer", "Unable to transfer right now"), err
	}

	sourceDescription := "Transfer to " + beneficiary.Name + " - Account " + destination.Number
	destinationDescription := "Transfer received from " + client.Name + " - Account " + source.Number
	if trimmed := strings.TrimSpace(req.Description); trimmed != "" {
		sourceDescription += ": " + trimmed
		destinationDescription += ": " + trimmed
	}

	posting := domain.TransferPosting{
		SourceNumber:           source.Number,
		DestinationNumber:      destination.Number,
		Amount:                 req.Amount.Round(2),
		SourceDescription:      sourceDescription,
		DestinationDescription: destinationDescription,
	}

	debitEntry, creditEntry, err := s.ledgerRepo.Transfer(ctx, posting)
	if err != nil {
		return mapPostingError[models.TransferResponse](err, "failed to transfer", "Unable to transfer right now"), err
	}

	logger.Info("transaction service transfer success", logger.Fields{
		"sourceNumber":      source.Number,
		"destinationNumber": destination.Number,
		"amount":            posting.Amount,
	})

	response := models.TransferResponse{
		DebitEntry:  mapEntryToResponse(debitEntry),
		CreditEntry: mapEntryToResponse(creditEntry),
	}

	return commons.SuccessResponse("transfer successful", response), nil
}

func (s *TransactionService) Statement(ctx context.Context, client domain.Client, accountNumber string, from *time.Time, to *time.Time, kindFilter string) (commons.Response[models.StatementResponse], error) {
	logger.Info("transaction service statement request", logger.Fields{
		"clientId":      client.ID,
		"accountNumber": accountNumber,
		"kind":          kindFilter,
	})

	account, err := s.accountRepo.GetOwnedByNumber(ctx, strings.TrimSpace(accountNumber), client.ID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return commons.ErrorResponse[models.StatementResponse]("Account not found"), err
		}
		return commons.ErrorResponse[models.StatementResponse]("failed to fetch statement", "Unable to fetch statement right now"), err
	}

	periodEnd := time.Now()
	if to != nil {
		periodEnd = *to
	}
	periodStart := periodEnd.Add(-defaultStatementPeriod)
	if from != nil {
		periodStart = *from
	}

	var kind *domain.LedgerEntryKind
	if trimmed := strings.TrimSpace(kindFilter); trimmed != "" {
		value := domain.LedgerEntryKind(trimmed)
		switch value {
		case domain.LedgerEntryWithdrawal, domain.LedgerEntryDeposit, domain.LedgerEntryTransfer, domain.LedgerEntryKeyTransfer:
			kind = &value
		default:
			err := errors.New("kind must be one of withdrawal, deposit, transfer, key_transfer")
			return commons.ErrorResponse[models.StatementResponse]("validation failed", err.Error()), err
		}
	}

	entries, err := s.ledgerRepo.ListByAccount(ctx, account.ID, periodStart, periodEnd, kind)
	if err != nil {
		logger.Error("transaction service statement list failed", err, logger.Fields{
			"accountNumber": account.Number,
		})
		return commons.ErrorResponse[models.StatementResponse]("failed to fetch statement", "Unable to fetch statement right now"), err
	}

	totalDebits := decimal.Zero
	totalCredits := decimal.Zero
	mapped := make([]models.LedgerEntryResponse, 0, len(entries))
	for _, entry := range entries {
		if entry.Direction == domain.EntryDirectionDebit {
			totalDebits = totalDebits.Add(entry.Amount)
		} else {
			totalCredits = totalCredits.Add(entry.Amount)
		}
		mapped = append(mapped, mapEntryToResponse(entry))
	}

	response := models.StatementResponse{
		AccountNumber:  account.Number,
		CurrentBalance: account.Balance.StringFixed(2),
		PeriodStart:    periodStart.Format(time.RFC3339),
		PeriodEnd:      periodEnd.Format(time.RFC3339),
		Entries:        mapped,
		TotalDebits:    totalDebits.StringFixed(2),
		TotalCredits:   totalCredits.StringFixed(2),
		EntryCount:     len(mapped),
	}

	return commons.SuccessResponse("statement fetched successfully", response), nil
}

// resolveTransferParties loads the owned source account, the active
// destination account, and the destination's owner for descriptions.
func (s *TransactionService) resolveTransferParties(ctx context.Context, client domain.Client, sourceNumber string, destinationNumber string) (domain.Account, domain.Account, domain.Client, error) {
	sourceNumber = strings.TrimSpace(sourceNumber)
	destinationNumber = strings.TrimSpace(destinationNumber)

	source, err := s.accountRepo.GetOwnedByNumber(ctx, sourceNumber, client.ID)
	if err != nil {
		return domain.Account{}, domain.Account{}, domain.Client{}, err
	}

	if sourceNumber == destinationNumber {
		return domain.Account{}, domain.Account{}, domain.Client{}, domain.ErrSelfTransferNotAllowed
	}

	destination, err := s.accountRepo.GetByNumber(ctx, destinationNumber)
	if err != nil {
		return domain.Account{}, domain.Account{}, domain.Client{}, err
	}
	if !destination.Active {
		return domain.Account{}, domain.Account{}, domain.Client{}, domain.ErrAccountNotFound
	}

	beneficiary, err := s.clientRepo.GetByID(ctx, destination.ClientID)
	if err != nil {
		return domain.Account{}, domain.Account{}, domain.Client{}, err
	}

	return source, destination, beneficiary, nil
}

func mapEntryToResponse(entry domain.LedgerEntry) models.LedgerEntryResponse {
	response := models.LedgerEntryResponse{
		ID:            entry.ID,
		Kind:          string(entry.Kind),
		Direction:     string(entry.Direction),
		Amount:        entry.Amount.StringFixed(2),
		Description:   entry.Description,
		BalanceBefore: entry.BalanceBefore.StringFixed(2),
		BalanceAfter:  entry.BalanceAfter.StringFixed(2),
		CreatedAt:     entry.CreatedAt.Format(time.RFC3339),
	}
	if !entry.Fee.IsZero() {
		response.Fee = entry.Fee.StringFixed(2)
	}
	if entry.Origin != nil {
		response.Origin = *entry.Origin
	}
	return response
}

// mapPostingError translates the typed ledger errors into the user-facing
// envelope; anything unrecognized gets the generic failure message.
func mapPostingError[T any](err error, failMessage string, failDetail string) commons.Response[T] {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return commons.ErrorResponse[T]("validation failed", err.Error())
	case errors.Is(err, domain.ErrWithdrawalLimitExceeded):
		return commons.ErrorResponse[T]("Withdrawal limit exceeded", err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		return commons.ErrorResponse[T]("Insufficient funds", err.Error())
	case errors.Is(err, domain.ErrSelfTransferNotAllowed):
		return commons.ErrorResponse[T]("validation failed", err.Error())
	case errors.Is(err, domain.ErrAccountNotFound):
		return commons.ErrorResponse[T]("Account not found")
	case errors.Is(err, domain.ErrAccountInactive):
		return commons.ErrorResponse[T]("Account is inactive", err.Error())
	case errors.Is(err, domain.ErrKeyNotFound):
		return commons.ErrorResponse[T]("Payment key not found")
	case errors.Is(err, domain.ErrNoActiveOriginKey):
		return commons.ErrorResponse[T]("No active origin key", err.Error())
	case errors.Is(err, domain.ErrAmountExceedsCeiling):
		return commons.ErrorResponse[T]("Amount exceeds the transfer ceiling", err.Error())
	default:
		return commons.ErrorResponse[T](failMessage, failDetail)
	}
}
