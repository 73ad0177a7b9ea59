package handlers

import (
	"context"
	"net/http"

	"github.com/pocketledger/backend/internal/models"
	"github.com/pocketledger/backend/internal/services"
)

type TransactionService interface {
	List(ctx context.Context, userID int64, limit, offset int) ([]models.Transaction, error)
	Get(ctx context.Context, userID, id int64) (*models.Transaction, error)
	Create(ctx context.Context, userID int64, req models.TransactionCreateRequest) (*models.Transaction, error)
	Update(ctx context.Context, userID, id int64, upd models.TransactionUpdate) (*models.Transaction, error)
	Delete(ctx context.Context, userID, id int64) error
}

type TransactionHandler struct {
	service   TransactionService
	validator *services.ValidationHelper
}

func NewTransactionHandler(service TransactionService) *TransactionHandler {
	return &TransactionHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// ListTransactions returns the caller's ledger rows, newest first
// @Summary List transactions
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (1-200)" default(50)
// @Param offset query int false "Rows to skip" default(0)
// @Success 200 {array} models.Transaction
// @Router /transactions [get]
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit, offset, ok := pagination(w, r, services.DefaultTransactionLimit)
	if !ok {
		return
	}

	txs, err := h.service.List(r.Context(), userID, limit, offset)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

// CreateTransaction records a single income or expense
// @Summary Create transaction
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.TransactionCreateRequest true "Transaction"
// @Success 201 {object} models.Transaction
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /transactions [post]
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.TransactionCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		services.WriteError(w, err)
		return
	}

	tx, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// GetTransaction returns one ledger row
// @Summary Get transaction
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param transactionID path int true "Transaction ID"
// @Success 200 {object} models.Transaction
// @Failure 404 {object} services.ErrorResponse
// @Router /transactions/{transactionID} [get]
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "transactionID")
	if !ok {
		return
	}

	tx, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// UpdateTransaction applies a partial update
// @Summary Update transaction
// @Description Amounts and card of a transfer leg cannot be changed here
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param transactionID path int true "Transaction ID"
// @Param request body models.TransactionUpdate true "Fields to change"
// @Success 200 {object} models.Transaction
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /transactions/{transactionID} [patch]
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "transactionID")
	if !ok {
		return
	}

	var upd models.TransactionUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	if err := h.validator.Validate(&upd); err != nil {
		services.WriteError(w, err)
		return
	}

	tx, err := h.service.Update(r.Context(), userID, id, upd)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// DeleteTransaction removes a plain transaction
// @Summary Delete transaction
// @Description Transfer legs are refused with 409; delete the transfer instead
// @Tags Transactions
// @Security BearerAuth
// @Param transactionID path int true "Transaction ID"
// @Success 204
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /transactions/{transactionID} [delete]
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "transactionID")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		services.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
