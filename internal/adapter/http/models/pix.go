package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var paymentKeyKinds = []string{"cpf", "cnpj", "email", "phone", "random"}

type CreateKeyRequest struct {
	AccountNumber string `json:"accountNumber"`
	Key           string `json:"key,omitempty"`
	Kind          string `json:"kind"`
}

func (r CreateKeyRequest) Validate() error {
	var errs []string

	number := strings.TrimSpace(r.AccountNumber)
	if len(number) != 10 || !digitsOnly(number) {
		errs = append(errs, "accountNumber must be exactly 10 digits")
	}

	kind := strings.ToLower(strings.TrimSpace(r.Kind))
	if !isPaymentKeyKind(kind) {
		errs = append(errs, "kind must be one of "+strings.Join(paymentKeyKinds, ", "))
	}

	// Random keys are generated server-side, never supplied.
	if kind == "random" {
		if strings.TrimSpace(r.Key) != "" {
			errs = append(errs, "key must be empty for random kind")
		}
	} else if strings.TrimSpace(r.Key) == "" {
		errs = append(errs, "key is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type PaymentKeyResponse struct {
	ID            string `json:"id"`
	Key           string `json:"key"`
	Kind          string `json:"kind"`
	Active        bool   `json:"active"`
	AccountNumber string `json:"accountNumber"`
	CreatedAt     string `json:"createdAt"`
}

type PaymentKeyListResponse struct {
	Keys  []PaymentKeyResponse `json:"keys"`
	Total int                  `json:"total"`
}

type DeleteKeyRequest struct {
	Key string `json:"key"`
}

func (r DeleteKeyRequest) Validate() error {
	if strings.TrimSpace(r.Key) == "" {
		return errors.New("key is required")
	}
	return nil
}

type KeyTransferRequest struct {
	DestinationKey string          `json:"destinationKey"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description,omitempty"`
}

func (r KeyTransferRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.DestinationKey) == "" {
		errs = append(errs, "destinationKey is required")
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}
	if len(strings.TrimSpace(r.Description)) > 200 {
		errs = append(errs, "description must be at most 200 characters")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type KeyTransferResponse struct {
	ID             string `json:"id"`
	OriginKey      string `json:"originKey"`
	DestinationKey string `json:"destinationKey"`
	Amount         string `json:"amount"`
	Description    string `json:"description,omitempty"`
	Status         string `json:"status"`
	CreatedAt      string `json:"createdAt"`
}

type KeyTransferValidationResponse struct {
	DestinationKey   string `json:"destinationKey"`
	BeneficiaryName  string `json:"beneficiaryName"`
	BeneficiaryCPF   string `json:"beneficiaryCpf"`
	Amount           string `json:"amount"`
	Fee              string `json:"fee"`
	Total            string `json:"total"`
	AvailableBalance string `json:"availableBalance"`
}

func isPaymentKeyKind(kind string) bool {
	for _, valid := range paymentKeyKinds {
		if kind == valid {
			return true
		}
	}
	return false
}
