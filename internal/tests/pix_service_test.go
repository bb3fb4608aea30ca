package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atlasbank/core-banking/internal/adapter/http/models"
	"github.com/atlasbank/core-banking/internal/domain"
	"github.com/atlasbank/core-banking/internal/usecase/services"
	"github.com/shopspring/decimal"
)

func newPixService(store *memStore) *services.PixService {
	return services.NewPixService(
		&fakeAccountRepo{store: store},
		&fakeClientRepo{store: store},
		&fakePaymentKeyRepo{store: store},
		&fakeLedgerRepo{store: store},
		testPolicy(),
	)
}

func TestPixServiceCreateKeyValidationError(t *testing.T) {
	svc := newPixService(newMemStore())

	_, err := svc.CreateKey(context.Background(), domain.Client{ID: "client-1"}, models.CreateKeyRequest{})
	if err == nil {
		t.Fatal("expected validation error for empty create key request")
	}
}

func TestPixServiceCreateCPFKeyNormalizesDigits(t *testing.T) {
	store := newMemStore()
	svc := newPixService(store)
	client := store.seedClient("12345678901", "Maria Silva")
	store.seedAccount(client.ID, "0000000001", domain.AccountKindStandard, decimal.Zero, decimal.Zero, 0)

	response, err := svc.CreateKey(context.Background(), client, models.CreateKeyRequest{
		AccountNumber: "0000000001",
		Kind:          "cpf",
		Key:           "123.456.789-01",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Data.Key != "12345678901" {
		t.Fatalf("expected punctuation stripped, got %q", response.Data.Key)
	}
}

func TestPixServiceCreateRandomKeyGenerated(t *testing.T) {
	store := newMemStore()
	svc := newPixService(store)
	client := store.seedClient("12345678901", "Maria Silva")
	store.seedAccount(client.ID, "0000000001", domain.AccountKindStandard, decimal.Zero, decimal.Zero, 0)

	response, err := svc.CreateKey(context.Background(), client, models.CreateKeyRequest{
		AccountNumber: "0000000001",
		Kind:          "random",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(response.Data.Key) != 32 {
		t.Fatalf("expected 32 character generated key, got %d characters", len(response.Data.Key))
	}
}

func TestPixServiceCreateKeyInvalidEmail(t *testing.T) {
	store := newMemStore()
	svc := newPixService(store)
	client := store.seedClient("12345678901", "Maria Silva")
	store.seedAccount(client.ID, "0000000001", domain.AccountKindStandard, decimal.Zero, decimal.Zero, 0)

	_, err := svc.CreateKey(context.Background(), client, models.CreateKeyRequest{
		AccountNumber: "0000000001",
		Kind:          "email",
		Key:           "not-an-email",
	})
	if !errors.Is(err, domain.ErrInvalidKeyFormat) {
		t.Fatalf("expected invalid key format, got %v", err)
	}
}

func TestPixServiceCreateKeyDuplicateRejected(t *testing.T) {
	store := newMemStore()
	svc := newPixService(store)
	alice := store.seedClient("12345678901", "Maria Silva")
	bob := store.seedClient("98765432100", "Joao Souza")
	store.seedAccount(alice.ID, "0000000001", domain.AccountKindStandard, decimal.Zero, decimal.Zero, 0)
	store.seedAccount(bob.ID, "0000000002", domain.AccountKindStandard, decimal.Zero, decimal.Zero, 0)

	request := models.CreateKeyRequest{
		AccountNumber: "0000000001",
		Kind:          "email",
		Key:           "maria@example.com",
	}
	if _, err := svc.CreateKey(context.Background(), alice, request); err != nil {
		t.Fatalf("unexpected first create error: %v", err)
	}

	_, err := svc.CreateKey(context.Background(), bob, models.CreateKeyRequest{
		AccountNumber: "0000000002",
		Kind:          "email",
		Key:           "maria@example.com",
	})
	if !errors.Is(err, domain.ErrDuplicateKey) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestPixServiceKeyReusableAfterDeactivation(t *testing.T) {
	store := newMemStore()
	svc := newPixService(store)
	alice := store.seedClient("12345678901", "Maria Silva")
	bob := store.seedClient("98765432100", "Joao Souza")
	store.seedAccount(alice.ID, "0000000001", domain.AccountKindStandard, decimal.Zero, decimal.Zero, 0)
	store.seedAccount(bob.ID, "0000000002", domain.AccountKindStandard, decimal.Zero, decimal.Zero, 0)

	if _, err := svc.CreateKey(context.Background(), alice, models.CreateKeyRequest{
		AccountNumber: "0000000001",
		Kind:          "email",
		Key:           "maria@example.com",
	}); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if _, err := svc.DeactivateKey(context.Background(), alice, models.DeleteKeyRequest{Key: "maria@example.com"}); err != nil {
		t.Fatalf("unexpected deactivate error: %v", err)
	}

	if _, err := svc.CreateKey(context.Background(), bob, models.CreateKeyRequest{
		AccountNumber: "0000000002",
		Kind:          "email",
		Key:           "maria@example.com",
	}); err != nil {
		t.Fatalf("deactivated key string must be reusable, got %v", err)
	}
}

func TestPixServiceKeyQuotaEnforced(t *testing.T) {
	store := newMemStore()
	svc := newPixService(store)
	client := store.seedClient("12345678901", "Maria Silva")
	account := store.seedAccount(client.ID, "0000000001", domain.AccountKindStandard, decimal.Zero, decimal.Zero, 0)

	for i := 0; i < 5; i++ {
		store.seedKey(account.ID, "key-"+string(rune('a'+i)), domain.PaymentKeyRandom, time.Now())
	}

	_, err := svc.CreateKey(context.Background(), client, models.CreateKeyRequest{
		AccountNumber: "0000000001",
		Kind:          "random",
	})
	if !errors.Is(err, domain.ErrKeyQuotaExceeded) {
		t.Fatalf("expected key quota error, got %v", err)
	}
}

func TestPixServiceDeactivateForeignKeyRejected(t *testing.T) {
	store := newMemStore()
	svc := newPixService(store)
	alice := store.seedClient("12345678901", "Maria Silva")
	bob := store.seedClient("98765432100", "Joao Souza")
	account := store.seedAccount(alice.ID, "0000000001", domain.AccountKindStandard, decimal.Zero, decimal.Zero, 0)
	store.seedKey(account.ID, "maria@example.com", domain.PaymentKeyEmail, time.Now())

	_, err := svc.DeactivateKey(context.Background(), bob, models.DeleteKeyRequest{Key: "maria@example.com"})
	if !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected key not found for foreign key, got %v", err)
	}
}

func TestPixServiceTransferByKeyMovesMoneyAndCompletes(t *testing.T) {
	store := newMemStore()
	svc := newPixService(store)
	alice := store.seedClient("12345678901", "Maria Silva")
	bob := store.seedClient("98765432100", "Joao Souza")
	source := store.seedAccount(alice.ID, "0000000001", domain.AccountKindStandard, dec("200.00"), decimal.Zero, 0)
	destination := store.seedAccount(bob.ID, "0000000002", domain.AccountKindStandard, decimal.Zero, decimal.Zero, 0)
	store.seedKey(source.ID, "maria@example.com", domain.PaymentKeyEmail, time.Now().Add(-time.Hour))
	store.seedKey(destination.ID, "joao@example.com", domain.PaymentKeyEmail, time.Now())

	response, err := svc.TransferByKey(context.Background(), alice, "0000000001", models.KeyTransferRequest{
		DestinationKey: "joao@example.com",
		Amount:         dec("75.50"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if response.Data.Status != string(domain.KeyTransferStatusCompleted) {
		t.Fatalf("expected completed status, got %q", response.Data.Status)
	}
	if response.Data.OriginKey != "maria@example.com" {
		t.Fatalf("expected origin key maria@example.com, got %q", response.Data.OriginKey)
	}
	if response.Data.Amount != "75.50" {
		t.Fatalf("expected amount 75.50, got %q", response.Data.Amount)
	}
	if !store.balanceOf(source.ID).Equal(dec("124.50")) {
		t.Fatalf("expected source balance 124.50, got %s", store.balanceOf(source.ID))
	}
	if !store.balanceOf(destination.ID).Equal(dec("75.50")) {
		t.Fatalf("expected destination balance 75.50, got %s", store.balanceOf(destination.ID))
	}
	if len(store.keyTransfers) != 1 || store.keyTransfers[0].AmountCents != 7550 {
		t.Fatal("expected one key transfer recorded in cents")
	}
}

func TestPixServiceTransferByKeyRequiresOriginKey(t *testing.T) {
	store := newMemStore()
	svc := newPixService(store)
	alice := store.seedClient("12345678901", "Maria Silva")
	bob := store.seedClient("98765432100", "Joao Souza")
	store.seedAccount(alice.ID, "0000000001", domain.AccountKindStandard, dec("200.00"), decimal.Zero, 0)
	destination := store.seedAccount(bob.ID, "0000000002", domain.AccountKindStandard, decimal.Zero, decimal.Zero, 0)
	store.seedKey(destination.ID, "joao@example.com", domain.PaymentKeyEmail, time.Now())

	_, err := svc.TransferByKey(context.Background(), alice, "0000000001", models.KeyTransferRequest{
		DestinationKey: "joao@example.com",
		Amount:         dec("10.00"),
	})
	if !errors.Is(err, domain.ErrNoActiveOriginKey) {
		t.Fatalf("expected missing origin key error, got %v", err)
	}
}

func TestPixServiceTransferByKeyUnknownKeyLeavesNoTrace(t *testing.T) {
	store := newMemStore()
	svc := newPixService(store)
	alice := store.seedClient("12345678901", "Maria Silva")
	source := store.seedAccount(alice.ID, "0000000001", domain.AccountKindStandard, dec("200.00"), decimal.Zero, 0)
	store.seedKey(source.ID, "maria@example.com", domain.PaymentKeyEmail, time.Now())

	_, err := svc.TransferByKey(context.Background(), alice, "0000000001", models.KeyTransferRequest{
		DestinationKey: "ghost@example.com",
		Amount:         dec("10.00"),
	})
	if !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected key not found, got %v", err)
	}
	if len(store.entries) != 0 || len(store.keyTransfers) != 0 {
		t.Fatal("failed key transfer must leave no entries or transfer rows")
	}
	if !store.balanceOf(source.ID).Equal(dec("200.00")) {
		t.Fatal("failed key transfer must not move the balance")
	}
}

func TestPixServiceTransferByKeyCeilingEnforced(t *testing.T) {
	store := newMemStore()
	svc := newPixService(store)
	alice := store.seedClient("12345678901", "Maria Silva")
	bob := store.seedClient("98765432100", "Joao Souza")
	source := store.seedAccount(alice.ID, "0000000001", domain.AccountKindStandard, dec("100000.00"), decimal.Zero, 0)
	destination := store.seedAccount(bob.ID, "0000000002", domain.AccountKindStandard, decimal.Zero, decimal.Zero, 0)
	store.seedKey(source.ID, "maria@example.com", domain.PaymentKeyEmail, time.Now())
	store.seedKey(destination.ID, "joao@example.com", domain.PaymentKeyEmail, time.Now())

	_, err := svc.TransferByKey(context.Background(), alice, "0000000001", models.KeyTransferRequest{
		DestinationKey: "joao@example.com",
		Amount:         dec("50000.01"),
	})
	if !errors.Is(err, domain.ErrAmountExceedsCeiling) {
		t.Fatalf("expected ceiling error, got %v", err)
	}
}

func TestPixServiceTransferToOwnKeyRejected(t *testing.T) {
	store := newMemStore()
	svc := newPixService(store)
	alice := store.seedClient("12345678901", "Maria Silva")
	source := store.seedAccount(alice.ID, "0000000001", domain.AccountKindStandard, dec("100.00"), decimal.Zero, 0)
	store.seedKey(source.ID, "maria@example.com", domain.PaymentKeyEmail, time.Now())

	_, err := svc.TransferByKey(context.Background(), alice, "0000000001", models.KeyTransferRequest{
		DestinationKey: "maria@example.com",
		Amount:         dec("10.00"),
	})
	if !errors.Is(err, domain.ErrSelfTransferNotAllowed) {
		t.Fatalf("expected self transfer rejection, got %v", err)
	}
}

func TestPixServiceValidateKeyTransferReportsBeneficiary(t *testing.T) {
	store := newMemStore()
	svc := newPixService(store)
	alice := store.seedClient("12345678901", "Maria Silva")
	bob := store.seedClient("98765432100", "Joao Souza")
	source := store.seedAccount(alice.ID, "0000000001", domain.AccountKindStandard, dec("100.00"), decimal.Zero, 0)
	destination := store.seedAccount(bob.ID, "0000000002", domain.AccountKindStandard, decimal.Zero, decimal.Zero, 0)
	store.seedKey(source.ID, "maria@example.com", domain.PaymentKeyEmail, time.Now())
	store.seedKey(destination.ID, "joao@example.com", domain.PaymentKeyEmail, time.Now())

	response, err := svc.ValidateKeyTransfer(context.Background(), alice, "0000000001", models.KeyTransferRequest{
		DestinationKey: "joao@example.com",
		Amount:         dec("50.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Data.BeneficiaryName != "Joao Souza" {
		t.Fatalf("expected beneficiary Joao Souza, got %q", response.Data.BeneficiaryName)
	}
	if len(store.entries) != 0 {
		t.Fatal("validation must not post anything")
	}
}

func TestPixServiceListKeysOnlyActive(t *testing.T) {
	store := newMemStore()
	svc := newPixService(store)
	client := store.seedClient("12345678901", "Maria Silva")
	account := store.seedAccount(client.ID, "0000000001", domain.AccountKindStandard, decimal.Zero, decimal.Zero, 0)
	store.seedKey(account.ID, "maria@example.com", domain.PaymentKeyEmail, time.Now())
	inactive := store.seedKey(account.ID, "old@example.com", domain.PaymentKeyEmail, time.Now())
	inactive.Active = false
	store.keys[inactive.ID] = inactive

	response, err := svc.ListKeys(context.Background(), client, "0000000001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Data.Total != 1 {
		t.Fatalf("expected 1 active key, got %d", response.Data.Total)
	}
	if response.Data.Keys[0].Key != "maria@example.com" {
		t.Fatalf("expected the active key, got %q", response.Data.Keys[0].Key)
	}
}
