package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketledger/backend/internal/models"
)

const cardColumns = `id, user_id, bank_name, type, card_name, alias, created_at, updated_at`

// CardService manages a user's cards. Every query is owner scoped.
type CardService struct {
	db    *sql.DB
	audit AuditRecorder
}

func NewCardService(db *sql.DB, audit AuditRecorder) *CardService {
	return &CardService{db: db, audit: audit}
}

func scanCard(row rowScanner) (models.Card, error) {
	var (
		c     models.Card
		alias sql.NullString
	)
	err := row.Scan(&c.ID, &c.UserID, &c.BankName, &c.Type, &c.CardName, &alias, &c.CreatedAt, &c.UpdatedAt)
	if alias.Valid {
		c.Alias = &alias.String
	}
	return c, err
}

func (s *CardService) List(ctx context.Context, userID int64) ([]models.Card, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// GetByID returns the card when userID owns it, *NotFoundError otherwise.
func (s *CardService) GetByID(ctx context.Context, cardID, userID int64) (*models.Card, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = $1 AND user_id = $2`, cardID, userID)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Resource: "card"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch card %d: %w", cardID, err)
	}
	return &c, nil
}

func (s *CardService) Create(ctx context.Context, userID int64, req models.CardCreateRequest) (*models.Card, error) {
	c := models.Card{
		UserID:   userID,
		BankName: req.BankName,
		Type:     req.Type,
		CardName: req.CardName,
		Alias:    req.Alias,
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO cards (user_id, bank_name, type, card_name, alias)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		c.UserID, c.BankName, c.Type, c.CardName, c.Alias,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}

	s.audit.Record(ctx, userID, "create", "card", map[string]any{"card_id": c.ID})
	return &c, nil
}

func (s *CardService) Update(ctx context.Context, cardID, userID int64, req models.CardUpdateRequest) (*models.Card, error) {
	c, err := s.GetByID(ctx, cardID, userID)
	if err != nil {
		return nil, err
	}

	if req.BankName != nil {
		c.BankName = *req.BankName
	}
	if req.Type != nil {
		c.Type = *req.Type
	}
	if req.CardName != nil {
		c.CardName = *req.CardName
	}
	if req.Alias != nil {
		c.Alias = req.Alias
	}

	err = s.db.QueryRowContext(ctx, `
		UPDATE cards
		SET bank_name = $1, type = $2, card_name = $3, alias = $4, updated_at = NOW()
		WHERE id = $5 AND user_id = $6
		RETURNING updated_at`,
		c.BankName, c.Type, c.CardName, c.Alias, c.ID, userID,
	).Scan(&c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Resource: "card"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update card %d: %w", cardID, err)
	}

	s.audit.Record(ctx, userID, "update", "card", map[string]any{"card_id": c.ID})
	return c, nil
}

// Delete removes the card; its ledger rows go with it through ON DELETE CASCADE.
func (s *CardService) Delete(ctx context.Context, cardID, userID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = $1 AND user_id = $2`, cardID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete card %d: %w", cardID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &NotFoundError{Resource: "card"}
	}

	s.audit.Record(ctx, userID, "delete", "card", map[string]any{"card_id": cardID})
	return nil
}
