package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pocketledger/backend/internal/models"
	"github.com/rs/zerolog"
)

// AuditService persists an audit trail of mutating actions in audit_logs.
type AuditService struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewAuditService(db *sql.DB, logger zerolog.Logger) *AuditService {
	return &AuditService{db: db, logger: logger}
}

// Record stores one event. Failures are logged and never reach the caller.
func (s *AuditService) Record(ctx context.Context, userID int64, action, resource string, details map[string]any) {
	var (
		raw     []byte
		payload any
	)
	if details != nil {
		var err error
		raw, err = json.Marshal(details)
		if err != nil {
			s.logger.Error().Err(err).Str("event", "audit_failed").Str("action", action).Msg("Failed to encode audit details")
			return
		}
		payload = string(raw)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_logs (user_id, action, resource, details) VALUES ($1, $2, $3, $4)`,
		userID, action, resource, payload)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("event", "audit_failed").
			Int64("user_id", userID).
			Str("action", action).
			Str("resource", resource).
			Msg("Failed to record audit event")
		return
	}

	s.logger.Debug().
		Str("event", "audit").
		Int64("user_id", userID).
		Str("action", action).
		Str("resource", resource).
		RawJSON("details", nonEmptyJSON(raw)).
		Msg("Audit event recorded")
}

// List returns the user's audit trail, newest first.
func (s *AuditService) List(ctx context.Context, userID int64) ([]models.AuditLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, action, resource, details, created_at
		FROM audit_logs
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	logs := []models.AuditLog{}
	for rows.Next() {
		var (
			entry   models.AuditLog
			owner   sql.NullInt64
			details []byte
		)
		if err := rows.Scan(&entry.ID, &owner, &entry.Action, &entry.Resource, &details, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if owner.Valid {
			entry.UserID = &owner.Int64
		}
		if len(details) > 0 {
			entry.Details = json.RawMessage(details)
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func nonEmptyJSON(b []byte) []byte {
	if len(b) == 0 {
		return []byte("null")
	}
	return b
}
