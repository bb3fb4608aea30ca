package services_test

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atlasbank/core-banking/internal/domain"
	"github.com/shopspring/decimal"
)

// The in-memory repositories mirror the invariants the SQL layer enforces
// so the services can be exercised end to end without a database.

type memStore struct {
	clients      map[string]domain.Client
	accounts     map[string]domain.Account
	entries      []domain.LedgerEntry
	keys         map[string]domain.PaymentKey
	keyTransfers []domain.KeyTransfer
	nextID       int
}

func newMemStore() *memStore {
	return &memStore{
		clients:  map[string]domain.Client{},
		accounts: map[string]domain.Account{},
		keys:     map[string]domain.PaymentKey{},
	}
}

func (s *memStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *memStore) seedClient(cpf, name string) domain.Client {
	client := domain.Client{
		ID:        s.id("client"),
		CPF:       cpf,
		Name:      name,
		Active:    true,
		CreatedAt: time.Now(),
	}
	s.clients[client.ID] = client
	return client
}

func (s *memStore) seedAccount(clientID, number string, kind domain.AccountKind, balance, creditLimit decimal.Decimal, withdrawalCap int) domain.Account {
	account := domain.Account{
		ID:            s.id("account"),
		ClientID:      clientID,
		Number:        number,
		Branch:        "0001",
		Kind:          kind,
		Balance:       balance,
		CreditLimit:   creditLimit,
		WithdrawalCap: withdrawalCap,
		Active:        true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	s.accounts[account.ID] = account
	return account
}

func (s *memStore) seedKey(accountID, value string, kind domain.PaymentKeyKind, createdAt time.Time) domain.PaymentKey {
	key := domain.PaymentKey{
		ID:        s.id("key"),
		AccountID: accountID,
		Key:       value,
		Kind:      kind,
		Active:    true,
		CreatedAt: createdAt,
	}
	s.keys[key.ID] = key
	return key
}

func (s *memStore) balanceOf(accountID string) decimal.Decimal {
	return s.accounts[accountID].Balance
}

type fakeClientRepo struct{ store *memStore }

func (r *fakeClientRepo) Create(_ context.Context, client domain.Client) (domain.Client, error) {
	for _, existing := range r.store.clients {
		if existing.CPF == client.CPF {
			return domain.Client{}, domain.ErrDuplicateCPF
		}
	}
	client.ID = r.store.id("client")
	client.CreatedAt = time.Now()
	r.store.clients[client.ID] = client
	return client, nil
}

func (r *fakeClientRepo) GetByCPF(_ context.Context, cpf string) (domain.Client, error) {
	for _, client := range r.store.clients {
		if client.CPF == cpf {
			return client, nil
		}
	}
	return domain.Client{}, domain.ErrRecordNotFound
}

func (r *fakeClientRepo) GetByID(_ context.Context, id string) (domain.Client, error) {
	client, ok := r.store.clients[id]
	if !ok {
		return domain.Client{}, domain.ErrRecordNotFound
	}
	return client, nil
}

type fakeAccountRepo struct{ store *memStore }

func (r *fakeAccountRepo) Create(_ context.Context, account domain.Account) (domain.Account, error) {
	account.ID = r.store.id("account")
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	r.store.accounts[account.ID] = account
	return account, nil
}

func (r *fakeAccountRepo) GetByNumber(_ context.Context, number string) (domain.Account, error) {
	for _, account := range r.store.accounts {
		if account.Number == number {
			return account, nil
		}
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id string) (domain.Account, error) {
	account, ok := r.store.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return account, nil
}

func (r *fakeAccountRepo) GetOwnedByNumber(_ context.Context, number string, clientID string) (domain.Account, error) {
	for _, account := range r.store.accounts {
		if account.Number == number && account.ClientID == clientID && account.Active {
			return account, nil
		}
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

func (r *fakeAccountRepo) ListByClient(_ context.Context, clientID string) ([]domain.Account, error) {
	var out []domain.Account
	for _, account := range r.store.accounts {
		if account.ClientID == clientID {
			out = append(out, account)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) SetActive(_ context.Context, number string, clientID string, active bool) error {
	for id, account := range r.store.accounts {
		if account.Number == number && account.ClientID == clientID {
			if !account.Balance.IsZero() {
				return domain.ErrAccountHasBalance
			}
			account.Active = active
			r.store.accounts[id] = account
			return nil
		}
	}
	return domain.ErrAccountNotFound
}

type fakeLedgerRepo struct{ store *memStore }

func (r *fakeLedgerRepo) accountByNumber(number string) (domain.Account, error) {
	for _, account := range r.store.accounts {
		if account.Number == number {
			return account, nil
		}
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

func (r *fakeLedgerRepo) append(entry domain.LedgerEntry) domain.LedgerEntry {
	entry.ID = r.store.id("entry")
	entry.CreatedAt = time.Now()
	r.store.entries = append(r.store.entries, entry)
	return entry
}

func (r *fakeLedgerRepo) Withdraw(_ context.Context, accountNumber string, amount decimal.Decimal, fee decimal.Decimal, description string) (domain.LedgerEntry, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.LedgerEntry{}, domain.ErrInvalidAmount
	}
	account, err := r.accountByNumber(accountNumber)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	if !account.Active {
		return domain.LedgerEntry{}, domain.ErrAccountInactive
	}
	if account.Kind == domain.AccountKindOverdraft && account.WithdrawalsUsed >= account.WithdrawalCap {
		return domain.LedgerEntry{}, domain.ErrWithdrawalLimitExceeded
	}
	if amount.GreaterThan(account.AvailableForDebit()) {
		return domain.LedgerEntry{}, domain.ErrInsufficientFunds
	}

	before := account.Balance
	account.Balance = account.Balance.Sub(amount)
	if account.Kind == domain.AccountKindOverdraft {
		account.WithdrawalsUsed++
	}
	r.store.accounts[account.ID] = account

	return r.append(domain.LedgerEntry{
		AccountID:     account.ID,
		Kind:          domain.LedgerEntryWithdrawal,
		Direction:     domain.EntryDirectionDebit,
		Amount:        amount,
		Fee:           fee,
		Description:   description,
		BalanceBefore: before,
		BalanceAfter:  account.Balance,
	}), nil
}

func (r *fakeLedgerRepo) Deposit(_ context.Context, accountNumber string, amount decimal.Decimal, origin *string, description string) (domain.LedgerEntry, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.LedgerEntry{}, domain.ErrInvalidAmount
	}
	account, err := r.accountByNumber(accountNumber)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	if !account.Active {
		return domain.LedgerEntry{}, domain.ErrAccountInactive
	}

	before := account.Balance
	account.Balance = account.Balance.Add(amount)
	r.store.accounts[account.ID] = account

	return r.append(domain.LedgerEntry{
		AccountID:     account.ID,
		Kind:          domain.LedgerEntryDeposit,
		Direction:     domain.EntryDirectionCredit,
		Amount:        amount,
		Origin:        origin,
		Description:   description,
		BalanceBefore: before,
		BalanceAfter:  account.Balance,
	}), nil
}

func (r *fakeLedgerRepo) post(posting domain.TransferPosting, kind domain.LedgerEntryKind) (domain.LedgerEntry, domain.LedgerEntry, error) {
	if posting.Amount.LessThanOrEqual(decimal.Zero) {
		return domain.LedgerEntry{}, domain.LedgerEntry{}, domain.ErrInvalidAmount
	}
	if posting.SourceNumber == posting.DestinationNumber {
		return domain.LedgerEntry{}, domain.LedgerEntry{}, domain.ErrSelfTransferNotAllowed
	}

	source, err := r.accountByNumber(posting.SourceNumber)
	if err != nil {
		return domain.LedgerEntry{}, domain.LedgerEntry{}, err
	}
	destination, err := r.accountByNumber(posting.DestinationNumber)
	if err != nil {
		return domain.LedgerEntry{}, domain.LedgerEntry{}, err
	}
	if !source.Active || !destination.Active {
		return domain.LedgerEntry{}, domain.LedgerEntry{}, domain.ErrAccountInactive
	}
	if posting.Amount.GreaterThan(source.AvailableForDebit()) {
		return domain.LedgerEntry{}, domain.LedgerEntry{}, domain.ErrInsufficientFunds
	}

	sourceBefore := source.Balance
	destinationBefore := destination.Balance
	source.Balance = source.Balance.Sub(posting.Amount)
	destination.Balance = destination.Balance.Add(posting.Amount)
	r.store.accounts[source.ID] = source
	r.store.accounts[destination.ID] = destination

	debit := r.append(domain.LedgerEntry{
		AccountID:     source.ID,
		Kind:          kind,
		Direction:     domain.EntryDirectionDebit,
		Amount:        posting.Amount,
		Description:   posting.SourceDescription,
		BalanceBefore: sourceBefore,
		BalanceAfter:  source.Balance,
	})
	credit := r.append(domain.LedgerEntry{
		AccountID:     destination.ID,
		Kind:          kind,
		Direction:     domain.EntryDirectionCredit,
		Amount:        posting.Amount,
		Description:   posting.DestinationDescription,
		BalanceBefore: destinationBefore,
		BalanceAfter:  destination.Balance,
	})
	return debit, credit, nil
}

func (r *fakeLedgerRepo) Transfer(_ context.Context, posting domain.TransferPosting) (domain.LedgerEntry, domain.LedgerEntry, error) {
	return r.post(posting, domain.LedgerEntryTransfer)
}

func (r *fakeLedgerRepo) KeyTransfer(_ context.Context, posting domain.KeyTransferPosting) (domain.KeyTransfer, domain.LedgerEntry, domain.LedgerEntry, error) {
	debit, credit, err := r.post(posting.TransferPosting, domain.LedgerEntryKeyTransfer)
	if err != nil {
		return domain.KeyTransfer{}, domain.LedgerEntry{}, domain.LedgerEntry{}, err
	}

	destination, err := r.accountByNumber(posting.DestinationNumber)
	if err != nil {
		return domain.KeyTransfer{}, domain.LedgerEntry{}, domain.LedgerEntry{}, err
	}
	destinationID := destination.ID

	transfer := domain.KeyTransfer{
		ID:                   r.store.id("keytransfer"),
		OriginKey:            posting.OriginKey,
		DestinationKey:       posting.DestinationKey,
		AmountCents:          posting.Amount.Shift(2).IntPart(),
		Description:          posting.Description,
		Status:               domain.KeyTransferStatusCompleted,
		OriginAccountID:      debit.AccountID,
		DestinationAccountID: &destinationID,
		CreatedAt:            time.Now(),
	}
	r.store.keyTransfers = append(r.store.keyTransfers, transfer)
	return transfer, debit, credit, nil
}

func (r *fakeLedgerRepo) ListByAccount(_ context.Context, accountID string, from time.Time, to time.Time, kind *domain.LedgerEntryKind) ([]domain.LedgerEntry, error) {
	var out []domain.LedgerEntry
	for i := len(r.store.entries) - 1; i >= 0; i-- {
		entry := r.store.entries[i]
		if entry.AccountID != accountID {
			continue
		}
		if entry.CreatedAt.Before(from) || entry.CreatedAt.After(to) {
			continue
		}
		if kind != nil && entry.Kind != *kind {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

type fakePaymentKeyRepo struct{ store *memStore }

func (r *fakePaymentKeyRepo) Create(_ context.Context, key domain.PaymentKey) (domain.PaymentKey, error) {
	for _, existing := range r.store.keys {
		if existing.Key == key.Key && existing.Active {
			return domain.PaymentKey{}, domain.ErrDuplicateKey
		}
	}
	key.ID = r.store.id("key")
	key.CreatedAt = time.Now()
	r.store.keys[key.ID] = key
	return key, nil
}

func (r *fakePaymentKeyRepo) GetActiveByKey(_ context.Context, value string) (domain.PaymentKey, error) {
	for _, key := range r.store.keys {
		if key.Key == value && key.Active {
			return key, nil
		}
	}
	return domain.PaymentKey{}, domain.ErrKeyNotFound
}

func (r *fakePaymentKeyRepo) FirstActiveByAccount(_ context.Context, accountID string) (domain.PaymentKey, error) {
	var oldest *domain.PaymentKey
	for id := range r.store.keys {
		key := r.store.keys[id]
		if key.AccountID != accountID || !key.Active {
			continue
		}
		if oldest == nil || key.CreatedAt.Before(oldest.CreatedAt) ||
			(key.CreatedAt.Equal(oldest.CreatedAt) && strings.Compare(key.ID, oldest.ID) < 0) {
			copied := key
			oldest = &copied
		}
	}
	if oldest == nil {
		return domain.PaymentKey{}, domain.ErrNoActiveOriginKey
	}
	return *oldest, nil
}

func (r *fakePaymentKeyRepo) ListActiveByAccount(_ context.Context, accountID string) ([]domain.PaymentKey, error) {
	var out []domain.PaymentKey
	for _, key := range r.store.keys {
		if key.AccountID == accountID && key.Active {
			out = append(out, key)
		}
	}
	return out, nil
}

func (r *fakePaymentKeyRepo) CountActiveByAccount(_ context.Context, accountID string) (int, error) {
	count := 0
	for _, key := range r.store.keys {
		if key.AccountID == accountID && key.Active {
			count++
		}
	}
	return count, nil
}

func (r *fakePaymentKeyRepo) Deactivate(_ context.Context, value string, clientID string) error {
	for id, key := range r.store.keys {
		if key.Key != value || !key.Active {
			continue
		}
		account, ok := r.store.accounts[key.AccountID]
		if !ok || account.ClientID != clientID {
			continue
		}
		key.Active = false
		r.store.keys[id] = key
		return nil
	}
	return domain.ErrKeyNotFound
}
