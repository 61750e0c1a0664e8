package handler

import (
	"log/slog"
	"net/http"

	"github.com/pesona-id/pesona-backend/internal/domain"
	"github.com/pesona-id/pesona-backend/internal/service"
)

// CommentHandler serves the comment thread of any content entity.
type CommentHandler struct {
	comments *service.CommentService
	logger   *slog.Logger
}

func NewCommentHandler(comments *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger}
}

// List handles GET /comments/{schema}/{schemaId}.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := service.ParseListQuery(r.URL.Query(), service.ListOptions{
		DefaultLimit: 10,
		SortKeys:     map[string]string{"createdAt": "created_at"},
	})
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	ref := domain.ContentRef{
		Kind: domain.ContentKind(r.PathValue("schema")),
		ID:   r.PathValue("schemaId"),
	}
	rows, page, err := h.comments.List(r.Context(), ref, q)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]any{"comments": rows, "pagination": page}, "")
}

// Create handles POST /comment.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CommentInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	res, err := h.comments.Create(r.Context(), actorFromRequest(r), in)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, res, "create comment successfully")
}

// Update handles PATCH /comment/{id}.
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateCommentInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	res, err := h.comments.Update(r.Context(), actorFromRequest(r), r.PathValue("id"), in)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, res, "update comment successfully")
}

// Delete handles DELETE /comment/{id}.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.comments.Delete(r.Context(), actorFromRequest(r), r.PathValue("id"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, res, "delete comment successfully")
}
