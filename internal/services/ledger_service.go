package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pocketledger/backend/internal/models"
	"github.com/pocketledger/backend/internal/money"
)

// Querier is the subset of *sql.DB and *sql.Tx the ledger needs, so the same
// queries run standalone or inside a caller's unit of work.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const transactionColumns = `id, user_id, card_id, description, category_id, income, expenses, executed, transfer_id, created_at, updated_at`

// LedgerService owns every read and write against the transactions table.
// All queries are scoped by user_id.
type LedgerService struct {
	db *sql.DB
}

func NewLedgerService(db *sql.DB) *LedgerService {
	return &LedgerService{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var (
		t          models.Transaction
		categoryID sql.NullInt64
		transferID sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.UserID, &t.CardID, &t.Description, &categoryID,
		&t.Income, &t.Expenses, &t.Executed, &transferID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	if categoryID.Valid {
		t.CategoryID = &categoryID.Int64
	}
	if transferID.Valid {
		t.TransferID = &transferID.Int64
	}
	return t, nil
}

func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Balance returns income minus expenses over every row of the user's card, 0.00 when it has none.
func (s *LedgerService) Balance(ctx context.Context, userID, cardID int64) (money.Amount, error) {
	return s.BalanceTx(ctx, s.db, userID, cardID)
}

func (s *LedgerService) BalanceTx(ctx context.Context, q Querier, userID, cardID int64) (money.Amount, error) {
	var balance money.Amount
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(income), 0) - COALESCE(SUM(expenses), 0)
		FROM transactions
		WHERE user_id = $1 AND card_id = $2`,
		userID, cardID).Scan(&balance)
	if err != nil {
		return money.Zero, fmt.Errorf("failed to compute balance for card %d: %w", cardID, err)
	}
	return balance, nil
}

// InsertTx stores t and fills in its generated id and timestamps.
func (s *LedgerService) InsertTx(ctx context.Context, q Querier, t *models.Transaction) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO transactions (user_id, card_id, description, category_id, income, expenses, executed, transfer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		t.UserID, t.CardID, t.Description, t.CategoryID, t.Income, t.Expenses, t.Executed, t.TransferID,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (s *LedgerService) Get(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	return s.GetTx(ctx, s.db, userID, id)
}

func (s *LedgerService) GetTx(ctx context.Context, q Querier, userID, id int64) (*models.Transaction, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Resource: "transaction"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transaction %d: %w", id, err)
	}
	return &t, nil
}

// ListByUser returns the user's rows newest first.
func (s *LedgerService) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return scanTransactions(rows)
}

// UpdateTx writes every mutable column of t and refreshes updated_at.
func (s *LedgerService) UpdateTx(ctx context.Context, q Querier, t *models.Transaction) error {
	err := q.QueryRowContext(ctx, `
		UPDATE transactions
		SET card_id = $1, description = $2, category_id = $3, income = $4, expenses = $5, executed = $6, updated_at = NOW()
		WHERE id = $7 AND user_id = $8
		RETURNING updated_at`,
		t.CardID, t.Description, t.CategoryID, t.Income, t.Expenses, t.Executed, t.ID, t.UserID,
	).Scan(&t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &NotFoundError{Resource: "transaction"}
	}
	if err != nil {
		return fmt.Errorf("failed to update transaction %d: %w", t.ID, err)
	}
	return nil
}

func (s *LedgerService) DeleteTx(ctx context.Context, q Querier, userID, id int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &NotFoundError{Resource: "transaction"}
	}
	return nil
}

// GroupTx returns every row of a transfer group ordered by id. An empty slice means
// the group does not exist for this user. With forUpdate the rows are locked until
// the surrounding transaction ends.
func (s *LedgerService) GroupTx(ctx context.Context, q Querier, userID, transferID int64, forUpdate bool) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND transfer_id = $2
		ORDER BY id`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	rows, err := q.QueryContext(ctx, query, userID, transferID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transfer %d: %w", transferID, err)
	}
	return scanTransactions(rows)
}

// RecentTransferIDs pages through the user's transfer groups, most recently created first.
func (s *LedgerService) RecentTransferIDs(ctx context.Context, userID int64, limit, offset int) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT transfer_id
		FROM transactions
		WHERE user_id = $1 AND transfer_id IS NOT NULL
		GROUP BY transfer_id
		ORDER BY MAX(created_at) DESC, transfer_id DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfer ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GroupsByTransferID fetches the rows of several groups at once, keyed by transfer id.
func (s *LedgerService) GroupsByTransferID(ctx context.Context, userID int64, transferIDs []int64) (map[int64][]models.Transaction, error) {
	groups := make(map[int64][]models.Transaction, len(transferIDs))
	if len(transferIDs) == 0 {
		return groups, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = $1 AND transfer_id = ANY($2)
		ORDER BY id`,
		userID, pq.Array(transferIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transfer groups: %w", err)
	}

	txs, err := scanTransactions(rows)
	if err != nil {
		return nil, err
	}
	for _, t := range txs {
		if t.TransferID != nil {
			groups[*t.TransferID] = append(groups[*t.TransferID], t)
		}
	}
	return groups, nil
}

// LinkTransferTx stamps transferID onto the given rows.
func (s *LedgerService) LinkTransferTx(ctx context.Context, q Querier, transferID int64, ids []int64) error {
	result, err := q.ExecContext(ctx, `
		UPDATE transactions
		SET transfer_id = $1, updated_at = NOW()
		WHERE id = ANY($2)`,
		transferID, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to link transfer %d: %w", transferID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected != int64(len(ids)) {
		return fmt.Errorf("linked %d of %d transfer rows", affected, len(ids))
	}
	return nil
}

// DeleteGroupTx removes every row of a transfer group and returns how many went.
func (s *LedgerService) DeleteGroupTx(ctx context.Context, q Querier, userID, transferID int64) (int64, error) {
	result, err := q.ExecContext(ctx,
		`DELETE FROM transactions WHERE user_id = $1 AND transfer_id = $2`, userID, transferID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete transfer %d: %w", transferID, err)
	}
	return result.RowsAffected()
}
