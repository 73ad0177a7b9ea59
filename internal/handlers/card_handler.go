package handlers

import (
	"net/http"

	"github.com/pocketledger/backend/internal/models"
	"github.com/pocketledger/backend/internal/services"
)

type CardHandler struct {
	service   *services.CardService
	validator *services.ValidationHelper
}

func NewCardHandler(service *services.CardService) *CardHandler {
	return &CardHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// ListCards returns the caller's cards
// @Summary List cards
// @Tags Cards
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Card
// @Router /cards [get]
func (h *CardHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	cards, err := h.service.List(r.Context(), userID)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// CreateCard registers a new card
// @Summary Create card
// @Tags Cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CardCreateRequest true "Card"
// @Success 201 {object} models.Card
// @Failure 400 {object} services.ErrorResponse
// @Router /cards [post]
func (h *CardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CardCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		services.WriteError(w, err)
		return
	}

	card, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// GetCard returns one card
// @Summary Get card
// @Tags Cards
// @Produce json
// @Security BearerAuth
// @Param cardID path int true "Card ID"
// @Success 200 {object} models.Card
// @Failure 404 {object} services.ErrorResponse
// @Router /cards/{cardID} [get]
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}

	card, err := h.service.GetByID(r.Context(), cardID, userID)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// UpdateCard applies a partial update
// @Summary Update card
// @Tags Cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param cardID path int true "Card ID"
// @Param request body models.CardUpdateRequest true "Fields to change"
// @Success 200 {object} models.Card
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /cards/{cardID} [patch]
func (h *CardHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}

	var req models.CardUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		services.WriteError(w, err)
		return
	}

	card, err := h.service.Update(r.Context(), cardID, userID, req)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// DeleteCard removes a card and its ledger rows
// @Summary Delete card
// @Tags Cards
// @Security BearerAuth
// @Param cardID path int true "Card ID"
// @Success 204
// @Failure 404 {object} services.ErrorResponse
// @Router /cards/{cardID} [delete]
func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	cardID, ok := pathID(w, r, "cardID")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), cardID, userID); err != nil {
		services.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
