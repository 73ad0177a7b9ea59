package handlers

import (
	"net/http"

	"github.com/pocketledger/backend/internal/models"
	"github.com/pocketledger/backend/internal/services"
)

type UserHandler struct {
	service   *services.UserService
	validator *services.ValidationHelper
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// Register creates a user account
// @Summary Register user
// @Tags Users
// @Accept json
// @Produce json
// @Param request body models.UserCreateRequest true "New user"
// @Success 201 {object} models.User
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /users [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.UserCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		services.WriteError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Me returns the authenticated user
// @Summary Current user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} services.ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.service.Get(r.Context(), userID)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateMe applies a partial profile update
// @Summary Update current user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.UserUpdateRequest true "Fields to change"
// @Success 200 {object} models.User
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /users/me [patch]
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UserUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		services.WriteError(w, err)
		return
	}

	user, err := h.service.Update(r.Context(), userID, req)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteMe removes the account and everything it owns
// @Summary Delete current user
// @Tags Users
// @Security BearerAuth
// @Success 204
// @Router /users/me [delete]
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), userID); err != nil {
		services.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
