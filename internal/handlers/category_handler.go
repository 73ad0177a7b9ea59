package handlers

import (
	"net/http"
	"strings"

	"github.com/pocketledger/backend/internal/services"
)

// CategoryRequest is the payload for creating or renaming a category
type CategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100" example:"Despensa"`
}

type CategoryHandler struct {
	service   *services.CategoryService
	validator *services.ValidationHelper
}

func NewCategoryHandler(service *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// ListCategories returns the shared category list
// @Summary List categories
// @Tags Categories
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Category
// @Router /categories [get]
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context())
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// CreateCategory adds a category
// @Summary Create category
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryRequest true "Category"
// @Success 201 {object} models.Category
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /categories [post]
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	category, err := h.service.Create(r.Context(), userID, req.Name)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

// UpdateCategory renames a category
// @Summary Rename category
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param categoryID path int true "Category ID"
// @Param request body CategoryRequest true "Category"
// @Success 200 {object} models.Category
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /categories/{categoryID} [patch]
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	categoryID, ok := pathID(w, r, "categoryID")
	if !ok {
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	category, err := h.service.Update(r.Context(), userID, categoryID, req.Name)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// DeleteCategory removes a category; ledger rows keep no category
// @Summary Delete category
// @Tags Categories
// @Security BearerAuth
// @Param categoryID path int true "Category ID"
// @Success 204
// @Failure 404 {object} services.ErrorResponse
// @Router /categories/{categoryID} [delete]
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	categoryID, ok := pathID(w, r, "categoryID")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, categoryID); err != nil {
		services.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CategoryHandler) decode(w http.ResponseWriter, r *http.Request) (CategoryRequest, bool) {
	var req CategoryRequest
	if !decodeJSON(w, r, &req) {
		return req, false
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := h.validator.Validate(&req); err != nil {
		services.WriteError(w, err)
		return req, false
	}
	return req, true
}
