package models

import "github.com/pocketledger/backend/internal/money"

// CardSummary aggregates a card's ledger rows over a period.
type CardSummary struct {
	CardID   int64        `json:"card_id"`
	CardName string       `json:"card_name"`
	BankName string       `json:"bank_name"`
	Income   money.Amount `json:"income_total"`
	Expenses money.Amount `json:"expenses_total"`
	Balance  money.Amount `json:"balance"`
}
