package handlers

import (
	"net/http"

	"github.com/pocketledger/backend/internal/services"
)

type AuditHandler struct {
	service *services.AuditService
}

func NewAuditHandler(service *services.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// ListAudit returns the caller's audit trail, newest first
// @Summary List audit events
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.AuditLog
// @Router /audit [get]
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	logs, err := h.service.List(r.Context(), userID)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
