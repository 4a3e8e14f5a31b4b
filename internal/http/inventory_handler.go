package httpapi

import (
	"net/http"
	"strings"

	"farmacia-data/internal/domain"
	"farmacia-data/internal/importer"
	"farmacia-data/internal/service"

	"go.uber.org/zap"
)

const inventoryPrefix = "/api/v1/inventory/"

// InventoryHandler 库存管理 Handler
type InventoryHandler struct {
	inventory *service.InventoryService
	ledger    *service.StockLedger
	imports   *service.ImportService
	logger    *zap.Logger
}

func NewInventoryHandler(inventory *service.InventoryService, ledger *service.StockLedger, imports *service.ImportService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, ledger: ledger, imports: imports, logger: logger}
}

func (h *InventoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/v1/inventory" && r.Method == http.MethodGet:
		h.List(w, r)
	case path == "/api/v1/inventory" && r.Method == http.MethodPost:
		h.Create(w, r)
	// 固定子路径必须在 {id} 之前
	case path == inventoryPrefix+"import" && r.Method == http.MethodPost:
		handleImport(w, r, h.imports, importer.KindInventory, h.logger)
	case path == inventoryPrefix+"pdf" && r.Method == http.MethodGet:
		h.PDF(w, r)
	case path == inventoryPrefix+"template" && r.Method == http.MethodGet:
		handleTemplate(w, importer.KindInventory)
	case strings.HasSuffix(path, "/receive") && r.Method == http.MethodPost:
		id := pathID(strings.TrimSuffix(path, "/receive"), inventoryPrefix)
		if id == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.Receive(w, r, id)
	case strings.HasPrefix(path, inventoryPrefix):
		id := pathID(path, inventoryPrefix)
		if id == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodPut:
			h.Update(w, r, id)
		case http.MethodDelete:
			h.Delete(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// List GET /api/v1/inventory?department=
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.List(r.Context(), sessionFromReq(r), r.URL.Query().Get("department"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": items,
		"total": len(items),
	}))
}

func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var item domain.InventoryItem
	if err := readBodyJSON(r, maxBodyBytes, &item); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.inventory.Create(r.Context(), sessionFromReq(r), item)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(created))
}

// Update 只修改名称/单位/最低库存/部门，库存只能通过入库和出库变化
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
	var item domain.InventoryItem
	if err := readBodyJSON(r, maxBodyBytes, &item); err != nil {
		writeError(w, err)
		return
	}
	item.ID = id
	updated, err := h.inventory.Update(r.Context(), sessionFromReq(r), item)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(updated))
}

func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.inventory.Delete(r.Context(), sessionFromReq(r), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"id": id}))
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// Receive POST /api/v1/inventory/{id}/receive
func (h *InventoryHandler) Receive(w http.ResponseWriter, r *http.Request, id string) {
	var req quantityRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.ledger.Receive(r.Context(), sessionFromReq(r), id, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

func (h *InventoryHandler) PDF(w http.ResponseWriter, r *http.Request) {
	data, err := h.inventory.PDF(r.Context(), sessionFromReq(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeFile(w, "application/pdf", "inventario.pdf", data)
}
