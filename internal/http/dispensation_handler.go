package httpapi

import (
	"net/http"

	"farmacia-data/internal/service"

	"go.uber.org/zap"
)

// DispensationHandler 出库
type DispensationHandler struct {
	ledger *service.StockLedger
	logger *zap.Logger
}

func NewDispensationHandler(ledger *service.StockLedger, logger *zap.Logger) *DispensationHandler {
	return &DispensationHandler{ledger: ledger, logger: logger}
}

type dispenseRequest struct {
	ResidentID string `json:"resident_id"`
	ItemID     string `json:"item_id"`
	Quantity   int    `json:"quantity"`
}

// Form GET /api/v1/dispensations/form
func (h *DispensationHandler) Form(w http.ResponseWriter, r *http.Request) {
	form, err := h.ledger.Form(r.Context(), sessionFromReq(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(form))
}

// Dispense POST /api/v1/dispensations
// 成功后通过响应头回传上次选择的住户和物品
func (h *DispensationHandler) Dispense(w http.ResponseWriter, r *http.Request) {
	var req dispenseRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.ledger.Dispense(r.Context(), sessionFromReq(r), req.ItemID, req.ResidentID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSession(w, res.Session)
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"movement":         res.Movement,
		"stock":            res.Stock,
		"low_stock":        res.LowStock,
		"last_resident_id": res.Session.LastResidentID,
		"last_item_id":     res.Session.LastItemID,
	}))
}
