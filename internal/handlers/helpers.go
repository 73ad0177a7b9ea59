package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pocketledger/backend/internal/middleware"
	"github.com/pocketledger/backend/internal/money"
	"github.com/pocketledger/backend/internal/services"
)

const maxBodyBytes = 1_048_576

// decodeJSON reads exactly one JSON object into dst. On failure it writes the
// error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, money.ErrInvalidAmount) || errors.Is(err, money.ErrTooManyPlaces) {
			services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
			return false
		}
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return 0, false
	}
	return userID, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		services.SendErrorResponse(w, "Invalid "+name, http.StatusBadRequest, nil)
		return 0, false
	}
	return id, true
}

// pagination parses limit and offset query parameters. Range checks are left to the services.
func pagination(w http.ResponseWriter, r *http.Request, defaultLimit int) (limit, offset int, ok bool) {
	limit, offset = defaultLimit, 0
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			services.SendErrorResponse(w, "limit must be an integer", http.StatusBadRequest, nil)
			return 0, 0, false
		}
		limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			services.SendErrorResponse(w, "offset must be an integer", http.StatusBadRequest, nil)
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}
