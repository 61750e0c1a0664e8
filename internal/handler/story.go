package handler

import (
	"log/slog"
	"net/http"

	"github.com/pesona-id/pesona-backend/internal/service"
)

// StoryHandler serves user-authored stories. Any authenticated user may
// create; the service enforces author-or-admin on update and delete.
type StoryHandler struct {
	stories *service.StoryService
	logger  *slog.Logger
}

func NewStoryHandler(stories *service.StoryService, logger *slog.Logger) *StoryHandler {
	return &StoryHandler{stories: stories, logger: logger}
}

func (h *StoryHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := service.ParseListQuery(r.URL.Query(), h.stories.ListOptions())
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	rows, page, err := h.stories.List(r.Context(), q)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]any{"stories": rows, "pagination": page}, "")
}

// Get handles GET /stories/{slug}: public detail addressed by slug.
func (h *StoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	story, err := h.stories.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]any{"story": story}, "")
}

func (h *StoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.StoryInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	res, err := h.stories.Create(r.Context(), actorFromRequest(r), in)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, res, "create story successfully")
}

func (h *StoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateStoryInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	res, err := h.stories.Update(r.Context(), actorFromRequest(r), r.PathValue("id"), in)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, res, "update story successfully")
}

func (h *StoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.stories.Delete(r.Context(), actorFromRequest(r), r.PathValue("id"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, res, "delete story successfully")
}
