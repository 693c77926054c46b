package api

import (
	"net/http"

	"github.com/warp/agro-engine/agro"
	"github.com/warp/agro-engine/dashboard"
)

// Dashboard handles GET /api/farm/dashboard. Everything is recomputed per
// request as of today.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	farms, err := h.Store.ListFarms(ctx, producer(r))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	cycles, err := h.Store.ListCycles(ctx, producer(r))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	balance, err := h.Ledger.Balance(ctx, producer(r))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	snap := dashboard.Summarize(cycles, agro.DateOf(h.Now()))
	writeJSON(w, http.StatusOK, dashboardToDTO(len(farms), snap, balance))
}
