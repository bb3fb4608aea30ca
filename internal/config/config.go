package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=core_banking_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"
const defaultJWTSecret = "change-me-in-production"

type Config struct {
	Port          string
	DatabaseDSN   string
	MigrationsDir string
	JWTSecret     string
	TokenTTL      time.Duration
	Policy        Policy
}

// Policy holds the operation limits the ledger enforces. They are supplied
// by configuration so the services never hard-code amounts.
type Policy struct {
	Branch             string
	DefaultCreditLimit decimal.Decimal
	WithdrawalCap      int
	WithdrawalFee      decimal.Decimal
	KeyTransferCeiling decimal.Decimal
	KeyQuota           int
}

func Load() (Config, error) {
	// .env is optional; production supplies real environment variables.
	_ = godotenv.Load()

	tokenMinutes, err := intEnv("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	if err != nil {
		return Config{}, err
	}

	withdrawalCap, err := intEnv("WITHDRAWAL_CAP", 3)
	if err != nil {
		return Config{}, err
	}

	keyQuota, err := intEnv("PAYMENT_KEY_QUOTA", 5)
	if err != nil {
		return Config{}, err
	}

	creditLimit, err := decimalEnv("DEFAULT_CREDIT_LIMIT", "500.00")
	if err != nil {
		return Config{}, err
	}

	withdrawalFee, err := decimalEnv("WITHDRAWAL_FEE", "2.50")
	if err != nil {
		return Config{}, err
	}

	ceiling, err := decimalEnv("KEY_TRANSFER_CEILING", "50000.00")
	if err != nil {
		return Config{}, err
	}

	return Config{
		Port:          getEnv("PORT", "8000"),
		DatabaseDSN:   normalizeConnectionString(getEnv("DATABASE_DSN", defaultConnectionString)),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),
		JWTSecret:     getEnv("JWT_SECRET", defaultJWTSecret),
		TokenTTL:      time.Duration(tokenMinutes) * time.Minute,
		Policy: Policy{
			Branch:             getEnv("BRANCH", "0001"),
			DefaultCreditLimit: creditLimit,
			WithdrawalCap:      withdrawalCap,
			WithdrawalFee:      withdrawalFee,
			KeyTransferCeiling: ceiling,
			KeyQuota:           keyQuota,
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func decimalEnv(key string, fallback string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		raw = fallback
	}

	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func normalizeConnectionString(raw string) string {
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "commandtimeout", "command timeout":
			out = append(out, "statement_timeout="+val+"s")
		case "sslmode":
			hasSSLMode = true
			out = append(out, "sslmode="+val)
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
