package handler

import (
	"log/slog"
	"net/http"

	"github.com/pesona-id/pesona-backend/internal/service"
)

// DestinationHandler serves the destination catalog. Reads are public;
// writes are admin-only via the route group.
type DestinationHandler struct {
	destinations *service.DestinationService
	logger       *slog.Logger
}

func NewDestinationHandler(destinations *service.DestinationService, logger *slog.Logger) *DestinationHandler {
	return &DestinationHandler{destinations: destinations, logger: logger}
}

func (h *DestinationHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := service.ParseListQuery(r.URL.Query(), h.destinations.ListOptions())
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	rows, page, err := h.destinations.List(r.Context(), q)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]any{"destinations": rows, "pagination": page}, "")
}

// Get handles GET /destinations/{slug}: public detail addressed by slug.
func (h *DestinationHandler) Get(w http.ResponseWriter, r *http.Request) {
	dest, err := h.destinations.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]any{"destination": dest}, "")
}

func (h *DestinationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.DestinationInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	res, err := h.destinations.Create(r.Context(), actorFromRequest(r), in)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, res, "create destination successfully")
}

func (h *DestinationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateDestinationInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	res, err := h.destinations.Update(r.Context(), actorFromRequest(r), r.PathValue("id"), in)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, res, "update destination successfully")
}

func (h *DestinationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.destinations.Delete(r.Context(), actorFromRequest(r), r.PathValue("id"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, res, "delete destination successfully")
}
