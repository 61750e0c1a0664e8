package handler

import (
	"log/slog"
	"net/http"

	"github.com/pesona-id/pesona-backend/internal/service"
)

// TagHandler serves direct tag management. Implicit tag creation happens
// inside destination and tradition writes.
type TagHandler struct {
	tags   *service.TagService
	logger *slog.Logger
}

func NewTagHandler(tags *service.TagService, logger *slog.Logger) *TagHandler {
	return &TagHandler{tags: tags, logger: logger}
}

func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := service.ParseListQuery(r.URL.Query(), h.tags.ListOptions())
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	rows, page, err := h.tags.List(r.Context(), q)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]any{"tags": rows, "pagination": page}, "")
}

func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.TagInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	res, err := h.tags.Create(r.Context(), actorFromRequest(r), in)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, res, "create tag successfully")
}

func (h *TagHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.TagInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	res, err := h.tags.Update(r.Context(), actorFromRequest(r), r.PathValue("id"), in)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, res, "update tag successfully")
}

func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.tags.Delete(r.Context(), actorFromRequest(r), r.PathValue("id"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, res, "delete tag successfully")
}
