package handler

import (
	"log/slog"
	"net/http"

	"github.com/pesona-id/pesona-backend/internal/service"
)

// CategoryHandler serves the category taxonomy. Reads are public; writes
// are mounted behind the admin middleware.
type CategoryHandler struct {
	categories *service.CategoryService
	logger     *slog.Logger
}

func NewCategoryHandler(categories *service.CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, logger: logger}
}

// List handles GET /categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := service.ParseListQuery(r.URL.Query(), h.categories.ListOptions())
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	rows, page, err := h.categories.List(r.Context(), q)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]any{"categories": rows, "pagination": page}, "")
}

// Get handles GET /categories/{slug}.
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	cat, err := h.categories.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]any{"category": cat}, "")
}

// Create handles POST /categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CategoryInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	res, err := h.categories.Create(r.Context(), actorFromRequest(r), in)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, res, "create category successfully")
}

// Update handles PATCH /categories/{id}.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.CategoryInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	res, err := h.categories.Update(r.Context(), actorFromRequest(r), r.PathValue("id"), in)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, res, "update category successfully")
}

// Delete handles DELETE /categories/{id}.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.categories.Delete(r.Context(), actorFromRequest(r), r.PathValue("id"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, res, "delete category successfully")
}
