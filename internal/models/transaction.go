package models

import (
	"time"

	"github.com/pocketledger/backend/internal/money"
)

// Transaction is one ledger row: an income or expense entry against a card.
// Rows that belong to a transfer share a non-nil TransferID.
type Transaction struct {
	ID          int64        `json:"id" db:"id"`
	UserID      int64        `json:"user_id" db:"user_id"`
	CardID      int64        `json:"card_id" db:"card_id"`
	Description string       `json:"description" db:"description"`
	CategoryID  *int64       `json:"category_id" db:"category_id"`
	Income      money.Amount `json:"income" db:"income"`
	Expenses    money.Amount `json:"expenses" db:"expenses"`
	Executed    bool         `json:"executed" db:"executed"`
	TransferID  *int64       `json:"transfer_id" db:"transfer_id"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// IsTransferLeg reports whether the row belongs to a transfer group.
func (t *Transaction) IsTransferLeg() bool {
	return t.TransferID != nil
}

// TransactionCreateRequest records a plain income or expense entry.
type TransactionCreateRequest struct {
	CardID      int64         `json:"card_id" validate:"required,gt=0"`
	Description string        `json:"description" validate:"required,max=255"`
	CategoryID  *int64        `json:"category_id,omitempty"`
	Income      *money.Amount `json:"income,omitempty"`
	Expenses    *money.Amount `json:"expenses,omitempty"`
	Executed    bool          `json:"executed"`
}

// TransactionUpdate is a partial update of a single ledger row. Nil fields are left untouched.
type TransactionUpdate struct {
	CardID      *int64        `json:"card_id,omitempty"`
	Description *string       `json:"description,omitempty" validate:"omitempty,min=1,max=255"`
	CategoryID  *int64        `json:"category_id,omitempty"`
	Income      *money.Amount `json:"income,omitempty"`
	Expenses    *money.Amount `json:"expenses,omitempty"`
	Executed    *bool         `json:"executed,omitempty"`
}

// TouchesMoney reports whether the update changes the card or either amount.
func (u TransactionUpdate) TouchesMoney() bool {
	return u.CardID != nil || u.Income != nil || u.Expenses != nil
}

// IsEmpty reports whether no field is set.
func (u TransactionUpdate) IsEmpty() bool {
	return !u.TouchesMoney() && u.Description == nil && u.CategoryID == nil && u.Executed == nil
}
