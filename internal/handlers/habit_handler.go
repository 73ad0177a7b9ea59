package handlers

import (
	"net/http"

	"github.com/pocketledger/backend/internal/models"
	"github.com/pocketledger/backend/internal/services"
)

type HabitHandler struct {
	service   *services.HabitService
	validator *services.ValidationHelper
}

func NewHabitHandler(service *services.HabitService) *HabitHandler {
	return &HabitHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// RegisterHabit logs a habit for the caller
// @Summary Register a habit
// @Tags Habits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.HabitRequest true "Habit"
// @Success 201 {object} models.HabitRecord
// @Failure 400 {object} services.ErrorResponse
// @Router /habits [post]
func (h *HabitHandler) RegisterHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.HabitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		services.WriteError(w, err)
		return
	}

	record, err := h.service.Register(r.Context(), userID, req)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}
