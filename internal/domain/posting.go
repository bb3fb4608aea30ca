package domain

import "github.com/shopspring/decimal"

// TransferPosting carries the inputs of one paired transfer posting: debit
// the source, credit the destination, and write one entry on each side.
type TransferPosting struct {
	SourceNumber           string
	DestinationNumber      string
	Amount                 decimal.Decimal
	SourceDescription      string
	DestinationDescription string
}

// KeyTransferPosting extends a transfer posting with the key strings that
// routed it, recorded on the KeyTransfer row.
type KeyTransferPosting struct {
	TransferPosting
	OriginKey      string
	DestinationKey string
	Description    *string
}
