package domain

import "time"

type Client struct {
	ID           string
	CPF          string
	Name         string
	BirthDate    time.Time
	Address      string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
