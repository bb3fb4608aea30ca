package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/atlasbank/core-banking/internal/adapter/http/models"
	"github.com/atlasbank/core-banking/internal/adapter/repository/repo_interfaces"
	"github.com/atlasbank/core-banking/internal/commons"
	"github.com/atlasbank/core-banking/internal/config"
	"github.com/atlasbank/core-banking/internal/domain"
	"github.com/atlasbank/core-banking/internal/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type PixService struct {
	accountRepo repo_interfaces.AccountRepository
	clientRepo  repo_interfaces.ClientRepository
	keyRepo     repo_interfaces.PaymentKeyRepository
	ledgerRepo  repo_interfaces.LedgerRepository
	policy      config.Policy
}

func NewPixService(
	accountRepo repo_interfaces.AccountRepository,
	clientRepo repo_interfaces.ClientRepository,
	keyRepo repo_interfaces.PaymentKeyRepository,
	ledgerRepo repo_interfaces.LedgerRepository,
	policy config.Policy,
) *PixService {
	return &PixService{
		accountRepo: accountRepo,
		clientRepo:  clientRepo,
		keyRepo:     keyRepo,
		ledgerRepo:  ledgerRepo,
		policy:      policy,
	}
}

func (s *PixService) CreateKey(ctx context.Context, client domain.Client, req models.CreateKeyRequest) (commons.Response[models.PaymentKeyResponse], error) {
	logger.Info("pix service create key request", logger.Fields{
		"clientId": client.ID,
		"payload":  logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("pix service create key validation failed", err, nil)
		return commons.ErrorResponse[models.PaymentKeyResponse]("validation failed", err.Error()), err
	}

	account, err := s.accountRepo.GetOwnedByNumber(ctx, strings.TrimSpace(req.AccountNumber), client.ID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return commons.ErrorResponse[models.PaymentKeyResponse]("Account not found"), err
		}
		return commons.ErrorResponse[models.PaymentKeyResponse]("failed to create payment key", "Unable to create payment key right now"), err
	}

	kind := domain.PaymentKeyKind(strings.ToLower(strings.TrimSpace(req.Kind)))
	key, err := normalizeKey(kind, req.Key)
	if err != nil {
		logger.Error("pix service create key normalization failed", err, logger.Fields{
			"kind": kind,
		})
		return commons.ErrorResponse[models.PaymentKeyResponse]("validation failed", err.Error()), err
	}

	count, err := s.keyRepo.CountActiveByAccount(ctx, account.ID)
	if err != nil {
		return commons.ErrorResponse[models.PaymentKeyResponse]("failed to create payment key", "Unable to create payment key right now"), err
	}
	if count >= s.policy.KeyQuota {
		err := domain.ErrKeyQuotaExceeded
		return commons.ErrorResponse[models.PaymentKeyResponse]("Payment key limit reached for this account", err.Error()), err
	}

	created, err := s.keyRepo.Create(ctx, domain.PaymentKey{
		AccountID: account.ID,
		Key:       key,
		Kind:      kind,
		Active:    true,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return commons.ErrorResponse[models.PaymentKeyResponse]("Payment key already registered", err.Error()), err
		}
		logger.Error("pix service create key persist failed", err, logger.Fields{
			"accountNumber": account.Number,
		})
		return commons.ErrorResponse[models.PaymentKeyResponse]("failed to create payment key", "Unable to create payment key right now"), err
	}

	logger.Info("pix service create key success", logger.Fields{
		"accountNumber": account.Number,
		"keyId":         created.ID,
		"kind":          created.Kind,
	})

	return commons.SuccessResponse("payment key created successfully", mapKeyToResponse(created, account.Number)), nil
}

func (s *PixService) ListKeys(ctx context.Context, client domain.Client, accountNumber string) (commons.Response[models.PaymentKeyListResponse], error) {
	logger.Info("pix service list keys request", logger.Fields{
		"clientId":      client.ID,
		"accountNumber": accountNumber,
	})

	account, err := s.accountRepo.GetOwnedByNumber(ctx, strings.TrimSpace(accountNumber), client.ID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return commons.ErrorResponse[models.PaymentKeyListResponse]("Account not found"), err
		}
		return commons.ErrorResponse[models.PaymentKeyListResponse]("failed to list payment keys", "Unable to list payment keys right now"), err
	}

	keys, err := s.keyRepo.ListActiveByAccount(ctx, account.ID)
	if err != nil {
		logger.Error("pix service list keys failed", err, logger.Fields{
			"accountNumber": account.Number,
		})
		return commons.ErrorResponse[models.PaymentKeyListResponse]("failed to list payment keys", "Unable to list payment keys right now"), err
	}

	mapped := make([]models.PaymentKeyResponse, 0, len(keys))
	for _, key := range keys {
		mapped = append(mapped, mapKeyToResponse(key, account.Number))
	}

	response := models.PaymentKeyListResponse{
		Keys:  mapped,
		Total: len(mapped),
	}

	return commons.SuccessResponse("payment keys fetched successfully", response), nil
}

func (s *PixService) DeactivateKey(ctx context.Context, client domain.Client, req models.DeleteKeyRequest) (commons.Response[any], error) {
	logger.Info("pix service deactivate key request", logger.Fields{
		"clientId": client.ID,
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[any]("validation failed", err.Error()), err
	}

	if err := s.keyRepo.Deactivate(ctx, strings.TrimSpace(req.Key), client.ID); err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return commons.ErrorResponse[any]("Payment key not found"), err
		}
		logger.Error("pix service deactivate key failed", err, nil)
		return commons.ErrorResponse[any]("failed to deactivate payment key", "Unable to deactivate payment key right now"), err
	}

	logger.Info("pix service deactivate key success", logger.Fields{
		"clientId": client.ID,
	})

	return commons.SuccessResponse[any]("payment key deactivated successfully", nil), nil
}

func (s *PixService) ValidateKeyTransfer(ctx context.Context, client domain.Client, sourceNumber string, req models.KeyTransferRequest) (commons.Response[models.KeyTransferValidationResponse], error) {
	logger.Info("pix service validate key transfer request", logger.Fields{
		"clientId":     client.ID,
		"sourceNumber": sourceNumber,
		"payload":      logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.KeyTransferValidationResponse]("validation failed", err.Error()), err
	}

	source, destination, beneficiary, _, err := s.resolveKeyTransferParties(ctx, client, sourceNumber, req.DestinationKey)
	if err != nil {
		return mapPostingError[models.KeyTransferValidationResponse](err, "failed to validate key transfer", "Unable to validate key transfer right now"), err
	}

	amount := req.Amount.Round(2)
	if amount.GreaterThan(s.policy.KeyTransferCeiling) {
		err := domain.ErrAmountExceedsCeiling
		return commons.ErrorResponse[models.KeyTransferValidationResponse]("Amount exceeds the transfer ceiling", err.Error()), err
	}
	if amount.GreaterThan(source.AvailableForDebit()) {
		err := domain.ErrInsufficientFunds
		return commons.ErrorResponse[models.KeyTransferValidationResponse]("Insufficient funds", err.Error()), err
	}

	fee := decimal.Zero
	response := models.KeyTransferValidationResponse{
		DestinationKey:   destination.Key,
		BeneficiaryName:  beneficiary.Name,
		BeneficiaryCPF:   beneficiary.CPF,
		Amount:           amount.StringFixed(2),
		Fee:              fee.StringFixed(2),
		Total:            amount.Add(fee).StringFixed(2),
		AvailableBalance: source.AvailableForDebit().StringFixed(2),
	}

	return commons.SuccessResponse("key transfer validated successfully", response), nil
}

func (s *PixService) TransferByKey(ctx context.Context, client domain.Client, sourceNumber string, req models.KeyTransferRequest) (commons.Response[models.KeyTransferResponse], error) {
	logger.Info("pix service key transfer request", logger.Fields{
		"clientId":     client.ID,
		"sourceNumber": sourceNumber,
		"payload":      logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("pix service key transfer validation failed", err, nil)
		return commons.ErrorResponse[models.KeyTransferResponse]("validation failed", err.Error()), err
	}

	amount := req.Amount.Round(2)
	if amount.GreaterThan(s.policy.KeyTransferCeiling) {
		err := domain.ErrAmountExceedsCeiling
		return commons.ErrorResponse[models.KeyTransferResponse]("Amount exceeds the transfer ceiling", err.Error()), err
	}

	source, destinationKey, beneficiary, destinationAccount, err := s.resolveKeyTransferParties(ctx, client, sourceNumber, req.DestinationKey)
	if err != nil {
		return mapPostingError[models.KeyTransferResponse](err, "failed to transfer by key", "Unable to transfer by key right now"), err
	}

	originKey, err := s.keyRepo.FirstActiveByAccount(ctx, source.ID)
	if err != nil {
		return mapPostingError[models.KeyTransferResponse](err, "failed to transfer by key", "Unable to transfer by key right now"), err
	}

	sourceDescription := "PIX to " + beneficiary.Name + " - Key: " + truncateKey(destinationKey.Key)
	destinationDescription := "PIX received from " + client.Name + " - Key: " + truncateKey(originKey.Key)

	var description *string
	if trimmed := strings.TrimSpace(req.Description); trimmed != "" {
		description = &trimmed
		sourceDescription += ": " + trimmed
		destinationDescription += ": " + trimmed
	}

	posting := domain.KeyTransferPosting{
		TransferPosting: domain.TransferPosting{
			SourceNumber:           source.Number,
			DestinationNumber:      destinationAccount.Number,
			Amount:                 amount,
			SourceDescription:      sourceDescription,
			DestinationDescription: destinationDescription,
		},
		OriginKey:      originKey.Key,
		DestinationKey: destinationKey.Key,
		Description:    description,
	}

	keyTransfer, _, _, err := s.ledgerRepo.KeyTransfer(ctx, posting)
	if err != nil {
		return mapPostingError[models.KeyTransferResponse](err, "failed to transfer by key", "Unable to transfer by key right now"), err
	}

	logger.Info("pix service key transfer success", logger.Fields{
		"sourceNumber":   source.Number,
		"keyTransferId":  keyTransfer.ID,
		"amount":         amount,
		"destinationKey": destinationKey.Key,
	})

	return commons.SuccessResponse("key transfer successful", mapKeyTransferToResponse(keyTransfer)), nil
}

// resolveKeyTransferParties loads the owned source account, the active
// destination key, the destination account and its owner. Keys bound to
// the source's own accounts are refused as self transfers.
func (s *PixService) resolveKeyTransferParties(ctx context.Context, client domain.Client, sourceNumber string, destinationKey string) (domain.Account, domain.PaymentKey, domain.Client, domain.Account, error) {
	var none domain.Account
	var noKey domain.PaymentKey
	var noClient domain.Client

	source, err := s.accountRepo.GetOwnedByNumber(ctx, strings.TrimSpace(sourceNumber), client.ID)
	if err != nil {
		return none, noKey, noClient, none, err
	}

	key, err := s.keyRepo.GetActiveByKey(ctx, strings.TrimSpace(destinationKey))
	if err != nil {
		return none, noKey, noClient, none, err
	}

	destination, err := s.accountRepo.GetByID(ctx, key.AccountID)
	if err != nil {
		return none, noKey, noClient, none, err
	}
	if !destination.Active {
		return none, noKey, noClient, none, domain.ErrKeyNotFound
	}
	if destination.Number == source.Number {
		return none, noKey, noClient, none, domain.ErrSelfTransferNotAllowed
	}

	beneficiary, err := s.clientRepo.GetByID(ctx, destination.ClientID)
	if err != nil {
		return none, noKey, noClient, none, err
	}

	return source, key, beneficiary, destination, nil
}

// normalizeKey canonicalizes the key string per kind. Random keys ignore
// the input and always come out as 32 hex characters.
func normalizeKey(kind domain.PaymentKeyKind, key string) (string, error) {
	switch kind {
	case domain.PaymentKeyCPF:
		digits := stripNonDigits(key)
		if len(digits) != 11 {
			return "", domain.ErrInvalidKeyFormat
		}
		return digits, nil
	case domain.PaymentKeyCNPJ:
		digits := stripNonDigits(key)
		if len(digits) != 14 {
			return "", domain.ErrInvalidKeyFormat
		}
		return digits, nil
	case domain.PaymentKeyPhone:
		digits := stripNonDigits(key)
		if len(digits) < 10 || len(digits) > 11 {
			return "", domain.ErrInvalidKeyFormat
		}
		return digits, nil
	case domain.PaymentKeyEmail:
		email := strings.ToLower(strings.TrimSpace(key))
		if !emailPattern.MatchString(email) {
			return "", domain.ErrInvalidKeyFormat
		}
		return email, nil
	case domain.PaymentKeyRandom:
		return strings.ReplaceAll(uuid.NewString(), "-", ""), nil
	default:
		return "", domain.ErrInvalidKeyFormat
	}
}

func stripNonDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncateKey(key string) string {
	if len(key) > 20 {
		return key[:20] + "..."
	}
	return key
}

func mapKeyToResponse(key domain.PaymentKey, accountNumber string) models.PaymentKeyResponse {
	return models.PaymentKeyResponse{
		ID:            key.ID,
		Key:           key.Key,
		Kind:          string(key.Kind),
		Active:        key.Active,
		AccountNumber: accountNumber,
		CreatedAt:     key.CreatedAt.Format(time.RFC3339),
	}
}

func mapKeyTransferToResponse(transfer domain.KeyTransfer) models.KeyTransferResponse {
	response := models.KeyTransferResponse{
		ID:             transfer.ID,
		OriginKey:      transfer.OriginKey,
		DestinationKey: transfer.DestinationKey,
		Amount:         decimal.NewFromInt(transfer.AmountCents).Shift(-2).StringFixed(2),
		Status:         string(transfer.Status),
		CreatedAt:      transfer.CreatedAt.Format(time.RFC3339),
	}
	if transfer.Description != nil {
		response.Description = *transfer.Description
	}
	return response
}
