package domain

import "errors"

var ErrRecordNotFound = errors.New("Record not found")

var (
	ErrInvalidAmount           = errors.New("Invalid amount")
	ErrInsufficientFunds       = errors.New("Insufficient funds")
	ErrWithdrawalLimitExceeded = errors.New("Withdrawal limit exceeded")
	ErrSelfTransferNotAllowed  = errors.New("Transfer to the same account is not allowed")
	ErrAccountNotFound         = errors.New("Account not found")
	ErrAccountInactive         = errors.New("Account is inactive")
	ErrAccountHasBalance       = errors.New("Account balance must be zero")
	ErrKeyNotFound             = errors.New("Payment key not found")
	ErrDuplicateKey            = errors.New("Payment key already in use")
	ErrKeyQuotaExceeded        = errors.New("Payment key quota exceeded")
	ErrInvalidKeyFormat        = errors.New("Invalid payment key format")
	ErrNoActiveOriginKey       = errors.New("Origin account has no active payment key")
	ErrAmountExceedsCeiling    = errors.New("Amount exceeds the transfer ceiling")
	ErrInvalidCredentials      = errors.New("Invalid CPF or password")
	ErrDuplicateCPF            = errors.New("CPF already registered")
)
