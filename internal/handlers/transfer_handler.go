package handlers

import (
	"context"
	"net/http"

	"github.com/pocketledger/backend/internal/models"
	"github.com/pocketledger/backend/internal/services"
)

// TransferService is the part of services.TransferService the HTTP layer needs.
type TransferService interface {
	CreateTransfer(ctx context.Context, userID int64, req models.TransferRequest) (*models.TransferPair, error)
	GetTransfer(ctx context.Context, userID, transferID int64) (*models.TransferPair, error)
	ListTransfers(ctx context.Context, userID int64, limit, offset int) ([]models.TransferPair, error)
	UpdateTransfer(ctx context.Context, userID, transferID int64, upd models.TransferUpdate) (*models.TransferPair, error)
	DeleteTransfer(ctx context.Context, userID, transferID int64) error
}

type TransferHandler struct {
	service   TransferService
	validator *services.ValidationHelper
}

func NewTransferHandler(service TransferService) *TransferHandler {
	return &TransferHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// CreateTransfer moves money between two of the caller's cards
// @Summary Create transfer
// @Description Debit the source card and credit the destination card as one atomic pair of transactions
// @Tags Transfers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.TransferRequest true "Transfer request"
// @Success 201 {object} models.TransferPair
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /transfers [post]
func (h *TransferHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.TransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		services.WriteError(w, err)
		return
	}

	pair, err := h.service.CreateTransfer(r.Context(), userID, req)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pair)
}

// ListTransfers returns the caller's transfers, newest first
// @Summary List transfers
// @Tags Transfers
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (1-100)" default(20)
// @Param offset query int false "Rows to skip" default(0)
// @Success 200 {array} models.TransferPair
// @Failure 400 {object} services.ErrorResponse
// @Router /transfers [get]
func (h *TransferHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit, offset, ok := pagination(w, r, services.DefaultTransferLimit)
	if !ok {
		return
	}

	pairs, err := h.service.ListTransfers(r.Context(), userID, limit, offset)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pairs)
}

// GetTransfer returns both legs of a transfer
// @Summary Get transfer
// @Tags Transfers
// @Produce json
// @Security BearerAuth
// @Param transferID path int true "Transfer ID"
// @Success 200 {object} models.TransferPair
// @Failure 404 {object} services.ErrorResponse
// @Router /transfers/{transferID} [get]
func (h *TransferHandler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	transferID, ok := pathID(w, r, "transferID")
	if !ok {
		return
	}

	pair, err := h.service.GetTransfer(r.Context(), userID, transferID)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// UpdateTransfer changes description and/or category on both legs
// @Summary Update transfer
// @Tags Transfers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param transferID path int true "Transfer ID"
// @Param request body models.TransferUpdate true "Fields to change"
// @Success 200 {object} models.TransferPair
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /transfers/{transferID} [patch]
func (h *TransferHandler) UpdateTransfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	transferID, ok := pathID(w, r, "transferID")
	if !ok {
		return
	}

	var upd models.TransferUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}

	pair, err := h.service.UpdateTransfer(r.Context(), userID, transferID, upd)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// DeleteTransfer removes every row of a transfer
// @Summary Delete transfer
// @Tags Transfers
// @Security BearerAuth
// @Param transferID path int true "Transfer ID"
// @Success 204
// @Failure 404 {object} services.ErrorResponse
// @Router /transfers/{transferID} [delete]
func (h *TransferHandler) DeleteTransfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	transferID, ok := pathID(w, r, "transferID")
	if !ok {
		return
	}

	if err := h.service.DeleteTransfer(r.Context(), userID, transferID); err != nil {
		services.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
