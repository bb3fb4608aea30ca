package domain

import "time"

type KeyTransferStatus string

const (
	KeyTransferStatusProcessing KeyTransferStatus = "processing"
	KeyTransferStatusCompleted  KeyTransferStatus = "completed"
	KeyTransferStatusFailed     KeyTransferStatus = "failed"
)

// KeyTransfer records one key-routed transfer. The amount is persisted in
// integer cents. Status moves processing -> completed only after both
// ledger entries are written, inside the same transaction, and never
// reverts.
type KeyTransfer struct {
	ID                   string
	OriginKey            string
	DestinationKey       string
	AmountCents          int64
	Description          *string
	Status               KeyTransferStatus
	OriginAccountID      string
	DestinationAccountID *string
	CreatedAt            time.Time
}
