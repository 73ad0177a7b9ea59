package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/pocketledger/backend/internal/services"
)

type SummaryHandler struct {
	service *services.SummaryService
}

func NewSummaryHandler(service *services.SummaryService) *SummaryHandler {
	return &SummaryHandler{service: service}
}

// CardSummary reports income, expenses and balance per card over a period
// @Summary Per-card summary
// @Description Totals of rows created in [start_date, end_date). Dates are ISO 8601, date-only or RFC 3339.
// @Tags Summary
// @Produce json
// @Security BearerAuth
// @Param user_id query int true "User ID; must be the caller"
// @Param start_date query string true "Start date" example(2025-03-01)
// @Param end_date query string true "End date" example(2025-04-01)
// @Success 200 {array} models.CardSummary
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Router /summary/cards [get]
func (h *SummaryHandler) CardSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	requestedUserID, err := strconv.ParseInt(q.Get("user_id"), 10, 64)
	if err != nil {
		services.SendErrorResponse(w, "user_id is required", http.StatusBadRequest, nil)
		return
	}
	start, err := parseDate(q.Get("start_date"))
	if err != nil {
		services.SendErrorResponse(w, "Invalid start_date", http.StatusBadRequest, nil)
		return
	}
	end, err := parseDate(q.Get("end_date"))
	if err != nil {
		services.SendErrorResponse(w, "Invalid end_date", http.StatusBadRequest, nil)
		return
	}

	summaries, err := h.service.CardSummaries(r.Context(), userID, requestedUserID, start, end)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(value string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
