package api

import (
	"net/http"
	"strings"

	"github.com/warp/agro-engine/agro"
)

// ListCultivars handles GET /api/farm/cultivares. The optional "cultura"
// query parameter filters by crop, ignoring case.
func (h *Handler) ListCultivars(w http.ResponseWriter, r *http.Request) {
	crop := strings.TrimSpace(r.URL.Query().Get("cultura"))
	entries, err := h.Store.ListCultivars(r.Context(), crop)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	dtos := make([]CultivarDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, cultivarToDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCultivar handles POST /api/farm/cultivares.
func (h *Handler) CreateCultivar(w http.ResponseWriter, r *http.Request) {
	var req CultivarRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.check(req); err != nil {
		h.handleError(w, r, err)
		return
	}

	entry := agro.CultivarEntry{
		Crop:    strings.TrimSpace(req.Cultura),
		Variety: strings.TrimSpace(req.Variedade),
	}
	if err := entry.Validate(); err != nil {
		h.handleError(w, r, err)
		return
	}
	created, err := h.Store.CreateCultivar(r.Context(), entry)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cultivarToDTO(created))
}
