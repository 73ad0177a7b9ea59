package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pocketledger/backend/internal/models"
	"github.com/pocketledger/backend/internal/money"
	"github.com/rs/zerolog"
)

const (
	DefaultTransferLimit = 20
	MaxTransferLimit     = 100
)

// CardLookup resolves a card owned by userID or fails with *NotFoundError.
type CardLookup interface {
	GetByID(ctx context.Context, cardID, userID int64) (*models.Card, error)
}

type CategoryChecker interface {
	Exists(ctx context.Context, categoryID int64) (bool, error)
}

// AuditRecorder receives mutating events. It must not fail the caller.
type AuditRecorder interface {
	Record(ctx context.Context, userID int64, action, resource string, details map[string]any)
}

// AttachmentRemover deletes stored files whose attachment rows went away with a transfer.
type AttachmentRemover interface {
	RemoveFiles(storagePaths []string)
}

// TransferService moves money between two of a user's cards as a pair of ledger rows
// sharing a transfer_id. The balance check runs before the write transaction and
// takes no lock, so two concurrent transfers from one card can both pass it.
type TransferService struct {
	db         *sql.DB
	ledger     *LedgerService
	cards      CardLookup
	categories CategoryChecker
	audit      AuditRecorder
	pairs      PairResolver
	files      AttachmentRemover
	logger     zerolog.Logger
}

func NewTransferService(db *sql.DB, ledger *LedgerService, cards CardLookup, categories CategoryChecker,
	audit AuditRecorder, logger zerolog.Logger) *TransferService {
	return &TransferService{
		db:         db,
		ledger:     ledger,
		cards:      cards,
		categories: categories,
		audit:      audit,
		pairs:      HeuristicPairResolver{},
		logger:     logger,
	}
}

// WithPairResolver swaps the side-labelling strategy.
func (s *TransferService) WithPairResolver(r PairResolver) *TransferService {
	s.pairs = r
	return s
}

// WithAttachmentRemover sets who deletes attachment files after DeleteTransfer commits.
func (s *TransferService) WithAttachmentRemover(r AttachmentRemover) *TransferService {
	s.files = r
	return s
}

// CreateTransfer validates the request and then writes both legs in one transaction.
func (s *TransferService) CreateTransfer(ctx context.Context, userID int64, req models.TransferRequest) (*models.TransferPair, error) {
	if req.SourceCardID == req.DestinationCardID {
		return nil, NewValidationError("same account transfer: source and destination cards must differ")
	}
	if !req.Amount.IsPositive() {
		return nil, NewValidationError("amount must be greater than zero")
	}
	if !req.Amount.WellScaled() {
		return nil, NewValidationError("amount must have at most %d fraction digits", money.Scale)
	}

	description := models.DefaultTransferDescription
	if req.Description != nil && strings.TrimSpace(*req.Description) != "" {
		description = strings.TrimSpace(*req.Description)
	}
	if len(description) > 255 {
		return nil, NewValidationError("description must be at most 255 characters")
	}

	if _, err := s.cards.GetByID(ctx, req.SourceCardID, userID); err != nil {
		return nil, err
	}
	if _, err := s.cards.GetByID(ctx, req.DestinationCardID, userID); err != nil {
		return nil, err
	}
	if err := requireCategory(ctx, s.categories, req.CategoryID); err != nil {
		return nil, err
	}

	balance, err := s.ledger.Balance(ctx, userID, req.SourceCardID)
	if err != nil {
		return nil, err
	}
	if balance.LessThan(req.Amount) {
		s.logger.Warn().
			Str("event", "transfer_insufficient_funds").
			Int64("user_id", userID).
			Int64("card_id", req.SourceCardID).
			Stringer("balance", balance).
			Stringer("attempt", req.Amount).
			Msg("Insufficient funds for transfer")
		return nil, &InsufficientFundsError{CardID: req.SourceCardID, Balance: balance, Requested: req.Amount}
	}

	pair, err := s.createPair(ctx, userID, req.SourceCardID, req.DestinationCardID, req.Amount, description, req.CategoryID)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, userID, "transfer", "transaction", map[string]any{
		"source_card_id":      req.SourceCardID,
		"destination_card_id": req.DestinationCardID,
		"amount":              req.Amount.String(),
		"transfer_id":         pair.TransferID(),
		"expense_tx":          pair.Source.ID,
		"income_tx":           pair.Destination.ID,
	})

	s.logger.Info().
		Str("event", "transfer").
		Int64("user_id", userID).
		Int64("source_card_id", req.SourceCardID).
		Int64("destination_card_id", req.DestinationCardID).
		Stringer("amount", req.Amount).
		Int64("transfer_id", pair.TransferID()).
		Msg("Transfer completed")

	return pair, nil
}

// createPair trusts its inputs. Both legs are inserted, linked through the expense
// leg's id and committed together; on any error nothing is persisted.
func (s *TransferService) createPair(ctx context.Context, userID, sourceCardID, destinationCardID int64,
	amount money.Amount, description string, categoryID *int64) (*models.TransferPair, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transfer: %w", err)
	}
	defer tx.Rollback()

	expense := models.Transaction{
		UserID:      userID,
		CardID:      sourceCardID,
		Description: description,
		CategoryID:  categoryID,
		Income:      money.Zero,
		Expenses:    amount,
		Executed:    true,
	}
	income := models.Transaction{
		UserID:      userID,
		CardID:      destinationCardID,
		Description: description,
		CategoryID:  categoryID,
		Income:      amount,
		Expenses:    money.Zero,
		Executed:    true,
	}

	if err := s.ledger.InsertTx(ctx, tx, &expense); err != nil {
		return nil, err
	}
	if err := s.ledger.InsertTx(ctx, tx, &income); err != nil {
		return nil, err
	}

	transferID := expense.ID
	if err := s.ledger.LinkTransferTx(ctx, tx, transferID, []int64{expense.ID, income.ID}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transfer: %w", err)
	}

	expense.TransferID = &transferID
	income.TransferID = &transferID
	return &models.TransferPair{Source: expense, Destination: income}, nil
}

func (s *TransferService) GetTransfer(ctx context.Context, userID, transferID int64) (*models.TransferPair, error) {
	rows, err := s.ledger.GroupTx(ctx, s.db, userID, transferID, false)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &NotFoundError{Resource: "transfer"}
	}
	pair := s.resolve(userID, transferID, rows)
	return &pair, nil
}

// ListTransfers pages through the user's transfers, newest first.
func (s *TransferService) ListTransfers(ctx context.Context, userID int64, limit, offset int) ([]models.TransferPair, error) {
	if limit < 1 || limit > MaxTransferLimit {
		return nil, NewValidationError("limit must be between 1 and %d", MaxTransferLimit)
	}
	if offset < 0 {
		return nil, NewValidationError("offset must not be negative")
	}

	ids, err := s.ledger.RecentTransferIDs(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	pairs := make([]models.TransferPair, 0, len(ids))
	if len(ids) == 0 {
		return pairs, nil
	}

	groups, err := s.ledger.GroupsByTransferID(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		rows := groups[id]
		if len(rows) == 0 {
			continue
		}
		pairs = append(pairs, s.resolve(userID, id, rows))
	}
	return pairs, nil
}

// UpdateTransfer applies the same description and category to every leg.
// An empty update returns the current pair and records no audit event.
func (s *TransferService) UpdateTransfer(ctx context.Context, userID, transferID int64, upd models.TransferUpdate) (*models.TransferPair, error) {
	if upd.Description != nil {
		trimmed := strings.TrimSpace(*upd.Description)
		if trimmed == "" || len(trimmed) > 255 {
			return nil, NewValidationError("description must be between 1 and 255 characters")
		}
		upd.Description = &trimmed
	}
	if err := requireCategory(ctx, s.categories, upd.CategoryID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transfer update: %w", err)
	}
	defer tx.Rollback()

	rows, err := s.ledger.GroupTx(ctx, tx, userID, transferID, true)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &NotFoundError{Resource: "transfer"}
	}

	if upd.IsEmpty() {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		pair := s.resolve(userID, transferID, rows)
		return &pair, nil
	}

	for i := range rows {
		if upd.Description != nil {
			rows[i].Description = *upd.Description
		}
		if upd.CategoryID != nil {
			rows[i].CategoryID = upd.CategoryID
		}
		if err := s.ledger.UpdateTx(ctx, tx, &rows[i]); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transfer update: %w", err)
	}

	s.audit.Record(ctx, userID, "transfer_update", "transaction", map[string]any{
		"transfer_id":         transferID,
		"updated_description": upd.Description != nil,
		"updated_category":    upd.CategoryID != nil,
	})

	pair := s.resolve(userID, transferID, rows)
	return &pair, nil
}

// DeleteTransfer removes whatever rows the group has, so it also clears broken groups.
// Attachments linked to the group go in the same transaction; their files are removed
// only after commit.
func (s *TransferService) DeleteTransfer(ctx context.Context, userID, transferID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transfer delete: %w", err)
	}
	defer tx.Rollback()

	count, err := s.ledger.DeleteGroupTx(ctx, tx, userID, transferID)
	if err != nil {
		return err
	}
	if count == 0 {
		return &NotFoundError{Resource: "transfer"}
	}

	storagePaths, err := deleteTransferAttachmentsTx(ctx, tx, userID, transferID)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transfer delete: %w", err)
	}

	if s.files != nil && len(storagePaths) > 0 {
		s.files.RemoveFiles(storagePaths)
	}

	s.audit.Record(ctx, userID, "transfer_delete", "transaction", map[string]any{
		"transfer_id": transferID,
		"count":       count,
	})
	return nil
}

// requireCategory fails with *NotFoundError when categoryID is set but unknown.
func requireCategory(ctx context.Context, categories CategoryChecker, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	ok, err := categories.Exists(ctx, *categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Resource: "category"}
	}
	return nil
}

func (s *TransferService) resolve(userID, transferID int64, rows []models.Transaction) models.TransferPair {
	pair, clean := s.pairs.Resolve(rows)
	if !clean {
		s.logger.Warn().
			Str("event", "transfer_read_incomplete").
			Int64("user_id", userID).
			Int64("transfer_id", transferID).
			Int("count", len(rows)).
			Msg("Unexpected transfer size")
	}
	return pair
}
