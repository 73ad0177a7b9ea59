package models

import "github.com/pocketledger/backend/internal/money"

// DefaultTransferDescription is applied to both legs when the caller omits a description.
const DefaultTransferDescription = "Transferencia entre cuentas"

// TransferRequest moves Amount from SourceCardID to DestinationCardID.
type TransferRequest struct {
	SourceCardID      int64        `json:"source_card_id" validate:"required,gt=0"`
	DestinationCardID int64        `json:"destination_card_id" validate:"required,gt=0"`
	Amount            money.Amount `json:"amount"`
	Description       *string      `json:"description,omitempty"`
	CategoryID        *int64       `json:"category_id,omitempty"`
}

// TransferUpdate carries the fields of a transfer that may change after creation.
type TransferUpdate struct {
	Description *string `json:"description,omitempty"`
	CategoryID  *int64  `json:"category_id,omitempty"`
}

// IsEmpty reports whether the update would change nothing.
func (u TransferUpdate) IsEmpty() bool {
	return u.Description == nil && u.CategoryID == nil
}

// TransferPair is the reconstructed view of a transfer group.
type TransferPair struct {
	Source      Transaction `json:"source_transaction"`
	Destination Transaction `json:"destination_transaction"`
}

// TransferID returns the group id shared by both legs, or 0 when unset.
func (p TransferPair) TransferID() int64 {
	if p.Source.TransferID != nil {
		return *p.Source.TransferID
	}
	if p.Destination.TransferID != nil {
		return *p.Destination.TransferID
	}
	return 0
}
