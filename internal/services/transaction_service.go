package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pocketledger/backend/internal/models"
	"github.com/pocketledger/backend/internal/money"
	"github.com/rs/zerolog"
)

// TransactionService is the CRUD path for single ledger rows. Transfer legs are
// read-only here except for description, category and executed; anything that
// would change money or remove a leg must go through TransferService.
type TransactionService struct {
	db         *sql.DB
	ledger     *LedgerService
	cards      CardLookup
	categories CategoryChecker
	audit      AuditRecorder
	logger     zerolog.Logger
}

func NewTransactionService(db *sql.DB, ledger *LedgerService, cards CardLookup, categories CategoryChecker,
	audit AuditRecorder, logger zerolog.Logger) *TransactionService {
	return &TransactionService{
		db:         db,
		ledger:     ledger,
		cards:      cards,
		categories: categories,
		audit:      audit,
		logger:     logger,
	}
}

const (
	DefaultTransactionLimit = 50
	MaxTransactionLimit     = 200
)

func (s *TransactionService) List(ctx context.Context, userID int64, limit, offset int) ([]models.Transaction, error) {
	if limit < 1 || limit > MaxTransactionLimit {
		return nil, NewValidationError("limit must be between 1 and %d", MaxTransactionLimit)
	}
	if offset < 0 {
		return nil, NewValidationError("offset must not be negative")
	}
	txs, err := s.ledger.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	return s.ledger.Get(ctx, userID, id)
}

func (s *TransactionService) Create(ctx context.Context, userID int64, req models.TransactionCreateRequest) (*models.Transaction, error) {
	t := models.Transaction{
		UserID:      userID,
		CardID:      req.CardID,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Income:      money.Zero,
		Expenses:    money.Zero,
		Executed:    req.Executed,
	}
	if req.Income != nil {
		t.Income = *req.Income
	}
	if req.Expenses != nil {
		t.Expenses = *req.Expenses
	}
	if err := validateAmounts(t.Income, t.Expenses); err != nil {
		return nil, err
	}

	if _, err := s.cards.GetByID(ctx, req.CardID, userID); err != nil {
		return nil, err
	}
	if err := requireCategory(ctx, s.categories, req.CategoryID); err != nil {
		return nil, err
	}

	if err := s.ledger.InsertTx(ctx, s.db, &t); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, userID, "create", "transaction", map[string]any{"transaction_id": t.ID})
	s.logger.Info().
		Str("event", "transaction_create").
		Int64("user_id", userID).
		Int64("transaction_id", t.ID).
		Msg("Transaction created")
	return &t, nil
}

func (s *TransactionService) Update(ctx context.Context, userID, id int64, upd models.TransactionUpdate) (*models.Transaction, error) {
	t, err := s.ledger.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if upd.IsEmpty() {
		return t, nil
	}

	if t.IsTransferLeg() && upd.TouchesMoney() {
		return nil, &ConflictError{Message: fmt.Sprintf("transaction %d is part of transfer %d; change amounts or cards through the transfer", t.ID, *t.TransferID)}
	}

	if upd.CardID != nil && *upd.CardID != t.CardID {
		if _, err := s.cards.GetByID(ctx, *upd.CardID, userID); err != nil {
			return nil, err
		}
		t.CardID = *upd.CardID
	}
	if err := requireCategory(ctx, s.categories, upd.CategoryID); err != nil {
		return nil, err
	}

	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.CategoryID != nil {
		t.CategoryID = upd.CategoryID
	}
	if upd.Income != nil {
		t.Income = *upd.Income
	}
	if upd.Expenses != nil {
		t.Expenses = *upd.Expenses
	}
	if upd.Executed != nil {
		t.Executed = *upd.Executed
	}
	if err := validateAmounts(t.Income, t.Expenses); err != nil {
		return nil, err
	}

	if err := s.ledger.UpdateTx(ctx, s.db, t); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, userID, "update", "transaction", map[string]any{"transaction_id": t.ID})
	return t, nil
}

// Delete removes a plain transaction. Transfer legs are refused so a group never
// loses one side.
func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	t, err := s.ledger.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if t.IsTransferLeg() {
		return &ConflictError{Message: fmt.Sprintf("transaction %d is part of transfer %d; delete the transfer instead", t.ID, *t.TransferID)}
	}

	if err := s.ledger.DeleteTx(ctx, s.db, userID, id); err != nil {
		return err
	}

	s.audit.Record(ctx, userID, "delete", "transaction", map[string]any{"transaction_id": id})
	s.logger.Warn().
		Str("event", "transaction_delete").
		Int64("user_id", userID).
		Int64("transaction_id", id).
		Msg("Transaction deleted")
	return nil
}

func validateAmounts(income, expenses money.Amount) error {
	if income.IsNegative() || expenses.IsNegative() {
		return NewValidationError("income and expenses must not be negative")
	}
	if !income.WellScaled() || !expenses.WellScaled() {
		return NewValidationError("amounts must have at most %d fraction digits", money.Scale)
	}
	return nil
}
