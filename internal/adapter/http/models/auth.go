package models

import (
	"errors"
	"strings"
	"time"
)

type RegisterRequest struct {
	CPF       string `json:"cpf"`
	Name      string `json:"name"`
	BirthDate string `json:"birthDate"`
	Address   string `json:"address"`
	Password  string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	var errs []string

	if !isElevenDigits(r.CPF) {
		errs = append(errs, "cpf must be exactly 11 digits")
	}
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, "name is required")
	}
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(r.BirthDate)); err != nil {
		errs = append(errs, "birthDate must be in YYYY-MM-DD format")
	}
	if strings.TrimSpace(r.Address) == "" {
		errs = append(errs, "address is required")
	}
	if len(strings.TrimSpace(r.Password)) < 6 {
		errs = append(errs, "password must be at least 6 characters")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type RegisterResponse struct {
	ClientID string `json:"clientId"`
	CPF      string `json:"cpf"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	CPF      string `json:"cpf"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	var errs []string

	if !isElevenDigits(r.CPF) {
		errs = append(errs, "cpf must be exactly 11 digits")
	}
	if strings.TrimSpace(r.Password) == "" {
		errs = append(errs, "password is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
}

func isElevenDigits(value string) bool {
	trimmed := strings.TrimSpace(value)
	return len(trimmed) == 11 && digitsOnly(trimmed)
}

func digitsOnly(value string) bool {
	for _, ch := range value {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
