package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type CreateAccountRequest struct {
	Kind        string           `json:"kind"`
	CreditLimit *decimal.Decimal `json:"creditLimit,omitempty"`
}

func (r CreateAccountRequest) Validate() error {
	var errs []string

	kind := strings.ToLower(strings.TrimSpace(r.Kind))
	if kind != "standard" && kind != "overdraft" {
		errs = append(errs, "kind must be one of standard, overdraft")
	}
	if r.CreditLimit != nil {
		if kind != "overdraft" {
			errs = append(errs, "creditLimit is only valid for overdraft accounts")
		} else if r.CreditLimit.LessThanOrEqual(decimal.Zero) {
			errs = append(errs, "creditLimit must be greater than zero")
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type AccountResponse struct {
	ID              string `json:"id"`
	AccountNumber   string `json:"accountNumber"`
	Branch          string `json:"branch"`
	Kind            string `json:"kind"`
	Balance         string `json:"balance"`
	CreditLimit     string `json:"creditLimit,omitempty"`
	WithdrawalCap   int    `json:"withdrawalCap,omitempty"`
	WithdrawalsUsed int    `json:"withdrawalsUsed,omitempty"`
	Active          bool   `json:"active"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

type AccountListResponse struct {
	Accounts []AccountResponse `json:"accounts"`
	Total    int               `json:"total"`
}

type BalanceResponse struct {
	AccountNumber    string `json:"accountNumber"`
	CurrentBalance   string `json:"currentBalance"`
	AvailableBalance string `json:"availableBalance"`
	CreditLimit      string `json:"creditLimit,omitempty"`
}

type AccountStatusResponse struct {
	AccountNumber string `json:"accountNumber"`
	Active        bool   `json:"active"`
}
