package domain

import "time"

type PaymentKeyKind string

const (
	PaymentKeyCPF    PaymentKeyKind = "cpf"
	PaymentKeyCNPJ   PaymentKeyKind = "cnpj"
	PaymentKeyEmail  PaymentKeyKind = "email"
	PaymentKeyPhone  PaymentKeyKind = "phone"
	PaymentKeyRandom PaymentKeyKind = "random"
)

// PaymentKey binds an alias string to exactly one account. Deactivated keys
// are kept for audit; the unique constraint only covers active keys, so a
// string can be re-registered after its previous binding is deactivated.
type PaymentKey struct {
	ID        string
	AccountID string
	Key       string
	Kind      PaymentKeyKind
	Active    bool
	CreatedAt time.Time
}
