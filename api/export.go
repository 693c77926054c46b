package api

import (
	"fmt"
	"net/http"

	"github.com/xuri/excelize/v2"
)

const stockSheet = "Estoque"

var stockHeaders = []string{"ID", "Cultivo", "Quantidade (kg)", "Tipo", "Observação", "Criado em"}

// ExportStock handles GET /api/estoque/export. The workbook lists the
// caller's movements, most recent first, followed by the balance row.
func (h *Handler) ExportStock(w http.ResponseWriter, r *http.Request) {
	movements, balance, err := h.stockState(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", stockSheet); err != nil {
		h.handleError(w, r, fmt.Errorf("failed to name sheet: %w", err))
		return
	}

	for i, title := range stockHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(stockSheet, cell, title)
	}

	row := 2
	for _, m := range movements {
		f.SetCellValue(stockSheet, fmt.Sprintf("A%d", row), int64(m.ID))
		f.SetCellValue(stockSheet, fmt.Sprintf("B%d", row), m.CycleLabel)
		f.SetCellValue(stockSheet, fmt.Sprintf("C%d", row), m.QuantityKg.InexactFloat64())
		f.SetCellValue(stockSheet, fmt.Sprintf("D%d", row), string(m.Kind))
		f.SetCellValue(stockSheet, fmt.Sprintf("E%d", row), m.Note)
		f.SetCellValue(stockSheet, fmt.Sprintf("F%d", row), formatTime(m.CreatedAt))
		row++
	}
	f.SetCellValue(stockSheet, fmt.Sprintf("B%d", row), "Saldo total")
	f.SetCellValue(stockSheet, fmt.Sprintf("C%d", row), balance.TotalKg.InexactFloat64())

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=estoque.xlsx")
	if err := f.Write(w); err != nil {
		h.Log.Error("failed to write stock workbook", "producer_id", producer(r), "error", err)
	}
}
