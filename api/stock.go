package api

import (
	"net/http"

	"github.com/warp/agro-engine/agro"
	"github.com/warp/agro-engine/stock"
)

// StockSummary handles GET /api/estoque.
func (h *Handler) StockSummary(w http.ResponseWriter, r *http.Request) {
	movements, balance, err := h.stockState(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stockSummaryToDTO(movements, balance))
}

// RecordStockEntry handles POST /api/estoque/entrada.
//
// Order of checks: body shape, quantity and kind (400), cycle ownership
// (404), then the harvest date (400).
func (h *Handler) RecordStockEntry(w http.ResponseWriter, r *http.Request) {
	var req StockEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.check(req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if _, err := stock.ValidateInput(req.QuantidadeKg, req.Tipo); err != nil {
		h.handleError(w, r, err)
		return
	}

	cycle, err := h.Cycles.OwnedCycle(r.Context(), producer(r), agro.CycleID(req.CultivoID))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	m, err := h.Ledger.Record(r.Context(), cycle, req.QuantidadeKg, req.Tipo, req.Observacao)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, movementToDTO(m))
}

func (h *Handler) stockState(r *http.Request) ([]agro.StockMovement, stock.BalanceResult, error) {
	movements, err := h.Ledger.Entries(r.Context(), producer(r))
	if err != nil {
		return nil, stock.BalanceResult{}, err
	}
	balance, err := h.Ledger.Balance(r.Context(), producer(r))
	if err != nil {
		return nil, stock.BalanceResult{}, err
	}
	return movements, balance, nil
}
