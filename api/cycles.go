package api

import (
	"net/http"

	"github.com/warp/agro-engine/agro"
)

// ListCycles handles GET /api/farm/cultivos.
func (h *Handler) ListCycles(w http.ResponseWriter, r *http.Request) {
	cycles, err := h.Store.ListCycles(r.Context(), producer(r))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	dtos := make([]CycleDTO, 0, len(cycles))
	for _, c := range cycles {
		dtos = append(dtos, cycleToDTO(c))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCycle handles POST /api/farm/cultivos.
func (h *Handler) CreateCycle(w http.ResponseWriter, r *http.Request) {
	var req CycleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.check(req); err != nil {
		h.handleError(w, r, err)
		return
	}

	created, err := h.Cycles.CreateCycle(r.Context(), producer(r), req.toCycle(0))
	if err != nil {
		h.logRejection(r, req, err)
		h.handleError(w, r, err)
		return
	}

	h.Log.Info("crop cycle created",
		"cycle_id", created.ID, "farm_id", created.FarmID, "season", created.Season)
	writeJSON(w, http.StatusCreated, cycleToDTO(created))
}

// GetCycle handles GET /api/farm/cultivos/{id}.
func (h *Handler) GetCycle(w http.ResponseWriter, r *http.Request) {
	cycle, err := h.ownedCycle(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cycleToDTO(cycle))
}

// UpdateCycle handles PUT and PATCH on /api/farm/cultivos/{id}. The area
// budget check runs on the merged result in both cases.
func (h *Handler) UpdateCycle(w http.ResponseWriter, r *http.Request) {
	existing, err := h.ownedCycle(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	var req CycleRequest
	if r.Method == http.MethodPatch {
		req = cycleToRequest(existing)
	}
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.check(req); err != nil {
		h.handleError(w, r, err)
		return
	}

	updated, err := h.Cycles.UpdateCycle(r.Context(), producer(r), req.toCycle(existing.ID))
	if err != nil {
		h.logRejection(r, req, err)
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cycleToDTO(updated))
}

// DeleteCycle handles DELETE /api/farm/cultivos/{id}.
func (h *Handler) DeleteCycle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.Cycles.DeleteCycle(r.Context(), producer(r), agro.CycleID(id)); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ownedCycle(r *http.Request) (agro.CropCycle, error) {
	id, err := pathID(r)
	if err != nil {
		return agro.CropCycle{}, err
	}
	return h.Cycles.OwnedCycle(r.Context(), producer(r), agro.CycleID(id))
}

// logRejection records budget rejections, which are the interesting 400s.
func (h *Handler) logRejection(r *http.Request, req CycleRequest, err error) {
	if !agro.IsClientError(err) {
		return
	}
	h.Log.Debug("crop cycle rejected",
		"producer_id", producer(r), "farm_id", req.Fazenda, "season", req.Safra,
		"area_ha", req.AreaHa.Decimal.String(), "reason", agro.Message(err))
}
