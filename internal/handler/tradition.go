package handler

import (
	"log/slog"
	"net/http"

	"github.com/pesona-id/pesona-backend/internal/service"
)

// TraditionHandler serves tradition articles.
type TraditionHandler struct {
	traditions *service.TraditionService
	logger     *slog.Logger
}

func NewTraditionHandler(traditions *service.TraditionService, logger *slog.Logger) *TraditionHandler {
	return &TraditionHandler{traditions: traditions, logger: logger}
}

func (h *TraditionHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := service.ParseListQuery(r.URL.Query(), h.traditions.ListOptions())
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	rows, page, err := h.traditions.List(r.Context(), q)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]any{"traditions": rows, "pagination": page}, "")
}

// Get handles GET /traditions/{slug}: public detail addressed by slug.
func (h *TraditionHandler) Get(w http.ResponseWriter, r *http.Request) {
	trad, err := h.traditions.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]any{"tradition": trad}, "")
}

func (h *TraditionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.TraditionInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	res, err := h.traditions.Create(r.Context(), actorFromRequest(r), in)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, res, "create tradition successfully")
}

func (h *TraditionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateTraditionInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	res, err := h.traditions.Update(r.Context(), actorFromRequest(r), r.PathValue("id"), in)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, res, "update tradition successfully")
}

func (h *TraditionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.traditions.Delete(r.Context(), actorFromRequest(r), r.PathValue("id"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, res, "delete tradition successfully")
}
