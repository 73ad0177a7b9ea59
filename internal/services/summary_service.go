package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pocketledger/backend/internal/models"
	"github.com/pocketledger/backend/internal/money"
	"github.com/rs/zerolog"
)

type CardLister interface {
	List(ctx context.Context, userID int64) ([]models.Card, error)
}

// SummaryService reports per-card totals over a period.
type SummaryService struct {
	db     *sql.DB
	cards  CardLister
	logger zerolog.Logger
}

func NewSummaryService(db *sql.DB, cards CardLister, logger zerolog.Logger) *SummaryService {
	return &SummaryService{db: db, cards: cards, logger: logger}
}

type cardTotals struct {
	income, expenses money.Amount
}

// CardSummaries returns one entry per card of currentUserID, in card order, with the
// income and expense totals of rows created in [start, end). Cards without rows in the
// period report zeros. Only the caller's own summary may be requested.
func (s *SummaryService) CardSummaries(ctx context.Context, currentUserID, requestedUserID int64, start, end time.Time) ([]models.CardSummary, error) {
	if currentUserID != requestedUserID {
		return nil, ErrForbidden
	}
	if start.After(end) {
		return nil, NewValidationError("start_date must be before or equal to end_date")
	}

	cards, err := s.cards.List(ctx, currentUserID)
	if err != nil {
		return nil, err
	}

	totals, err := s.totalsByCard(ctx, currentUserID, start, end)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.CardSummary, 0, len(cards))
	for _, card := range cards {
		t, ok := totals[card.ID]
		if !ok {
			t = cardTotals{income: money.Zero, expenses: money.Zero}
		}
		summaries = append(summaries, models.CardSummary{
			CardID:   card.ID,
			CardName: card.CardName,
			BankName: card.BankName,
			Income:   t.income,
			Expenses: t.expenses,
			Balance:  t.income.Sub(t.expenses),
		})
	}
	return summaries, nil
}

func (s *SummaryService) totalsByCard(ctx context.Context, userID int64, start, end time.Time) (map[int64]cardTotals, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.card_id, COALESCE(SUM(t.income), 0), COALESCE(SUM(t.expenses), 0)
		FROM transactions t
		JOIN cards c ON c.id = t.card_id
		WHERE t.user_id = $1 AND t.created_at >= $2 AND t.created_at < $3
		GROUP BY t.card_id`,
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize transactions: %w", err)
	}
	defer rows.Close()

	totals := make(map[int64]cardTotals)
	for rows.Next() {
		var (
			cardID int64
			t      cardTotals
		)
		if err := rows.Scan(&cardID, &t.income, &t.expenses); err != nil {
			return nil, err
		}
		totals[cardID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("event", "transaction_summary").
		Int64("user_id", userID).
		Time("start", start).
		Time("end", end).
		Int("count", len(totals)).
		Msg("Transaction summary generated")
	return totals, nil
}
