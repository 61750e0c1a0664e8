package handler

import (
	"log/slog"
	"net/http"

	"github.com/pesona-id/pesona-backend/internal/service"
)

// InteractionHandler serves likes and bookmarks. Everything here requires
// authentication.
type InteractionHandler struct {
	likes     *service.LikeService
	bookmarks *service.BookmarkService
	logger    *slog.Logger
}

func NewInteractionHandler(likes *service.LikeService, bookmarks *service.BookmarkService, logger *slog.Logger) *InteractionHandler {
	return &InteractionHandler{likes: likes, bookmarks: bookmarks, logger: logger}
}

// CreateLike handles POST /like.
func (h *InteractionHandler) CreateLike(w http.ResponseWriter, r *http.Request) {
	var in service.InteractionInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	res, err := h.likes.Create(r.Context(), actorFromRequest(r), in)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, res, "create like successfully")
}

// DeleteLike handles DELETE /like/{id}.
func (h *InteractionHandler) DeleteLike(w http.ResponseWriter, r *http.Request) {
	res, err := h.likes.Delete(r.Context(), actorFromRequest(r), r.PathValue("id"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, res, "delete like successfully")
}

// CreateBookmark handles POST /bookmark.
func (h *InteractionHandler) CreateBookmark(w http.ResponseWriter, r *http.Request) {
	var in service.InteractionInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	res, err := h.bookmarks.Create(r.Context(), actorFromRequest(r), in)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, res, "create bookmark successfully")
}

// ListBookmarks handles GET /bookmarks: the caller's saved content.
func (h *InteractionHandler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	q, err := service.ParseListQuery(r.URL.Query(), service.ListOptions{DefaultLimit: 10})
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	rows, page, err := h.bookmarks.List(r.Context(), actorFromRequest(r), q)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]any{"bookmarks": rows, "pagination": page}, "")
}

// DeleteBookmark handles DELETE /bookmark/{id}.
func (h *InteractionHandler) DeleteBookmark(w http.ResponseWriter, r *http.Request) {
	res, err := h.bookmarks.Delete(r.Context(), actorFromRequest(r), r.PathValue("id"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, res, "delete bookmark successfully")
}
