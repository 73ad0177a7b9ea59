package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketledger/backend/internal/middleware"
	"github.com/pocketledger/backend/internal/services"
)

type AuthHandler struct {
	service   *services.AuthService
	validator *services.ValidationHelper
}

func NewAuthHandler(service *services.AuthService) *AuthHandler {
	return &AuthHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// Login authenticates a user
// @Summary User login
// @Description Exchange phone and password for a bearer token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body services.LoginRequest true "Login credentials"
// @Success 200 {object} services.AuthResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		services.WriteError(w, err)
		return
	}

	resp, err := h.service.Login(r.Context(), req.Phone, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			services.SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
			return
		}
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Logout revokes the presented token
// @Summary Logout
// @Tags Authentication
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} services.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		services.SendErrorResponse(w, "Authorization header required", http.StatusUnauthorized, nil)
		return
	}
	if err := h.service.Logout(r.Context(), token); err != nil {
		services.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
