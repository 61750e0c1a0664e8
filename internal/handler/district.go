package handler

import (
	"log/slog"
	"net/http"

	"github.com/pesona-id/pesona-backend/internal/service"
)

// DistrictHandler serves the district taxonomy.
type DistrictHandler struct {
	districts *service.DistrictService
	logger    *slog.Logger
}

func NewDistrictHandler(districts *service.DistrictService, logger *slog.Logger) *DistrictHandler {
	return &DistrictHandler{districts: districts, logger: logger}
}

func (h *DistrictHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := service.ParseListQuery(r.URL.Query(), h.districts.ListOptions())
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	rows, page, err := h.districts.List(r.Context(), q)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]any{"districts": rows, "pagination": page}, "")
}

func (h *DistrictHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.districts.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, map[string]any{"district": d}, "")
}

func (h *DistrictHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.DistrictInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	res, err := h.districts.Create(r.Context(), actorFromRequest(r), in)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, res, "create district successfully")
}

func (h *DistrictHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateDistrictInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	res, err := h.districts.Update(r.Context(), actorFromRequest(r), r.PathValue("id"), in)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, res, "update district successfully")
}

func (h *DistrictHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.districts.Delete(r.Context(), actorFromRequest(r), r.PathValue("id"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteSuccess(w, http.StatusOK, res, "delete district successfully")
}
