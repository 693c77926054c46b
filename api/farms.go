package api

import (
	"net/http"

	"github.com/warp/agro-engine/agro"
)

// ListFarms handles GET /api/farm/fazendas.
func (h *Handler) ListFarms(w http.ResponseWriter, r *http.Request) {
	farms, err := h.Store.ListFarms(r.Context(), producer(r))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	dtos := make([]FarmDTO, 0, len(farms))
	for _, f := range farms {
		dtos = append(dtos, farmToDTO(f))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateFarm handles POST /api/farm/fazendas. The owner is always the caller.
func (h *Handler) CreateFarm(w http.ResponseWriter, r *http.Request) {
	var req FarmRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.check(req); err != nil {
		h.handleError(w, r, err)
		return
	}

	farm := req.toFarm(0, producer(r))
	if err := farm.Validate(); err != nil {
		h.handleError(w, r, err)
		return
	}
	created, err := h.Store.CreateFarm(r.Context(), farm)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.Log.Info("farm created", "farm_id", created.ID, "producer_id", created.ProducerID)
	writeJSON(w, http.StatusCreated, farmToDTO(created))
}

// GetFarm handles GET /api/farm/fazendas/{id}.
func (h *Handler) GetFarm(w http.ResponseWriter, r *http.Request) {
	farm, err := h.ownedFarm(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, farmToDTO(farm))
}

// UpdateFarm handles PUT and PATCH on /api/farm/fazendas/{id}. PATCH starts
// from the stored farm so absent fields are kept; PUT starts empty.
func (h *Handler) UpdateFarm(w http.ResponseWriter, r *http.Request) {
	existing, err := h.ownedFarm(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	var req FarmRequest
	if r.Method == http.MethodPatch {
		req = farmToRequest(existing)
	}
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.check(req); err != nil {
		h.handleError(w, r, err)
		return
	}

	farm := req.toFarm(existing.ID, existing.ProducerID)
	if err := farm.Validate(); err != nil {
		h.handleError(w, r, err)
		return
	}
	updated, err := h.Store.UpdateFarm(r.Context(), farm)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.warnOverAllocated(r, updated)
	writeJSON(w, http.StatusOK, farmToDTO(updated))
}

// DeleteFarm handles DELETE /api/farm/fazendas/{id}.
func (h *Handler) DeleteFarm(w http.ResponseWriter, r *http.Request) {
	farm, err := h.ownedFarm(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.Store.DeleteFarm(r.Context(), farm.ID); err != nil {
		h.handleError(w, r, err)
		return
	}

	h.Log.Info("farm deleted", "farm_id", farm.ID, "producer_id", farm.ProducerID)
	w.WriteHeader(http.StatusNoContent)
}

// warnOverAllocated logs seasons left above a lowered budget. Existing
// cycles are not re-validated when the farm's area changes, so the update
// is still accepted.
func (h *Handler) warnOverAllocated(r *http.Request, farm agro.Farm) {
	cycles, err := h.Store.ListCycles(r.Context(), farm.ProducerID)
	if err != nil {
		h.Log.Warn("could not check season allocation", "farm_id", farm.ID, "error", err)
		return
	}
	if seasons := agro.OverAllocatedSeasons(farm, cycles); len(seasons) > 0 {
		h.Log.Warn("farm budget below allocated area",
			"farm_id", farm.ID, "producer_id", farm.ProducerID, "seasons", seasons)
	}
}

func (h *Handler) ownedFarm(r *http.Request) (agro.Farm, error) {
	id, err := pathID(r)
	if err != nil {
		return agro.Farm{}, err
	}
	return h.Cycles.OwnedFarm(r.Context(), producer(r), agro.FarmID(id))
}
