package handler

import (
	"log/slog"
	"net/http"

	"github.com/pesona-id/pesona-backend/internal/service"
)

// UserHandler serves profiles. The index and profile reads are
// public; updates and deletes are self-or-admin, enforced by the service.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// List handles GET /users: the public user index with role filter.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := service.ParseListQuery(r.URL.Query(), h.users.ListOptions())
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	rows, page, err := h.users.List(r.Context(), q)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]any{"users": rows, "pagination": page}, "")
}

// Get handles GET /users/{name}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.Get(r.Context(), r.PathValue("name"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]any{"user": profile}, "")
}

// Update handles PATCH /users/{name}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateUserInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	res, err := h.users.Update(r.Context(), actorFromRequest(r), r.PathValue("name"), in)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, res, "update user successfully")
}

// Delete handles DELETE /users/{name}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.users.Delete(r.Context(), actorFromRequest(r), r.PathValue("name"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, res, "delete user successfully")
}
