package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type WithdrawRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

func (r WithdrawRequest) Validate() error {
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("amount must be greater than zero")
	}
	return nil
}

type DepositRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Origin      string          `json:"origin,omitempty"`
	Description string          `json:"description,omitempty"`
}

func (r DepositRequest) Validate() error {
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("amount must be greater than zero")
	}
	return nil
}

type TransferRequest struct {
	DestinationNumber string          `json:"destinationNumber"`
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description,omitempty"`
}

func (r TransferRequest) Validate() error {
	var errs []string

	destination := strings.TrimSpace(r.DestinationNumber)
	if len(destination) != 10 || !digitsOnly(destination) {
		errs = append(errs, "destinationNumber must be exactly 10 digits")
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type LedgerEntryResponse struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	Direction     string `json:"direction"`
	Amount        string `json:"amount"`
	Fee           string `json:"fee,omitempty"`
	Description   string `json:"description,omitempty"`
	Origin        string `json:"origin,omitempty"`
	BalanceBefore string `json:"balanceBefore"`
	BalanceAfter  string `json:"balanceAfter"`
	CreatedAt     string `json:"createdAt"`
}

type TransferResponse struct {
	DebitEntry  LedgerEntryResponse `json:"debitEntry"`
	CreditEntry LedgerEntryResponse `json:"creditEntry"`
}

type TransferValidationResponse struct {
	DestinationNumber string `json:"destinationNumber"`
	BeneficiaryName   string `json:"beneficiaryName"`
	BeneficiaryCPF    string `json:"beneficiaryCpf"`
	Amount            string `json:"amount"`
	Fee               string `json:"fee"`
	Total             string `json:"total"`
	AvailableBalance  string `json:"availableBalance"`
}

type StatementResponse struct {
	AccountNumber  string                `json:"accountNumber"`
	CurrentBalance string                `json:"currentBalance"`
	PeriodStart    string                `json:"periodStart"`
	PeriodEnd      string                `json:"periodEnd"`
	Entries        []LedgerEntryResponse `json:"entries"`
	TotalDebits    string                `json:"totalDebits"`
	TotalCredits   string                `json:"totalCredits"`
	EntryCount     int                   `json:"entryCount"`
}
