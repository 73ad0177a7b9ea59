package models

import "time"

// Card is a user's payment card. Its balance is never stored; it is derived from ledger rows.
type Card struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	BankName  string    `json:"bank_name" db:"bank_name"`
	Type      string    `json:"type" db:"type"`
	CardName  string    `json:"card_name" db:"card_name"`
	Alias     *string   `json:"alias" db:"alias"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CardCreateRequest represents new card registration
type CardCreateRequest struct {
	BankName string  `json:"bank_name" validate:"required,max=100"`
	Type     string  `json:"type" validate:"required,max=50"`
	CardName string  `json:"card_name" validate:"required,max=100"`
	Alias    *string `json:"alias,omitempty" validate:"omitempty,max=100"`
}

// CardUpdateRequest is a partial card update
type CardUpdateRequest struct {
	BankName *string `json:"bank_name,omitempty" validate:"omitempty,min=1,max=100"`
	Type     *string `json:"type,omitempty" validate:"omitempty,min=1,max=50"`
	CardName *string `json:"card_name,omitempty" validate:"omitempty,min=1,max=100"`
	Alias    *string `json:"alias,omitempty" validate:"omitempty,max=100"`
}
