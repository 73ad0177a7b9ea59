package services

import (
	"context"
	"strings"

	"github.com/pocketledger/backend/internal/models"
	"github.com/rs/zerolog"
)

// HabitService logs habits as audit events; there is no habits table.
type HabitService struct {
	audit  AuditRecorder
	logger zerolog.Logger
}

func NewHabitService(audit AuditRecorder, logger zerolog.Logger) *HabitService {
	return &HabitService{audit: audit, logger: logger}
}

func (s *HabitService) Register(ctx context.Context, userID int64, req models.HabitRequest) (*models.HabitRecord, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, NewValidationError("name must not be blank")
	}

	var description any
	if req.Description != nil {
		description = *req.Description
	}
	s.audit.Record(ctx, userID, "habit_register", "habit", map[string]any{
		"name":        req.Name,
		"description": description,
	})

	s.logger.Info().Str("event", "habit_register").Int64("user_id", userID).Msg("Habit registered")
	return &models.HabitRecord{Message: "Habit registered", Habit: req}, nil
}
