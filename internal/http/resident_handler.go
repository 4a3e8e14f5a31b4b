package httpapi

import (
	"net/http"
	"strings"

	"farmacia-data/internal/domain"
	"farmacia-data/internal/importer"
	"farmacia-data/internal/service"

	"go.uber.org/zap"
)

const residentsPrefix = "/api/v1/residents/"

// ResidentHandler 住户管理 Handler
type ResidentHandler struct {
	residents *service.ResidentService
	imports   *service.ImportService
	logger    *zap.Logger
}

func NewResidentHandler(residents *service.ResidentService, imports *service.ImportService, logger *zap.Logger) *ResidentHandler {
	return &ResidentHandler{residents: residents, imports: imports, logger: logger}
}

func (h *ResidentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/v1/residents" && r.Method == http.MethodGet:
		h.List(w, r)
	case path == "/api/v1/residents" && r.Method == http.MethodPost:
		h.Create(w, r)
	case path == residentsPrefix+"import" && r.Method == http.MethodPost:
		handleImport(w, r, h.imports, importer.KindResidents, h.logger)
	case path == residentsPrefix+"template" && r.Method == http.MethodGet:
		handleTemplate(w, importer.KindResidents)
	case strings.HasPrefix(path, residentsPrefix):
		id := pathID(path, residentsPrefix)
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

func (h *ResidentHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.residents.List(r.Context(), sessionFromReq(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": list,
		"total": len(list),
	}))
}

func (h *ResidentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var res domain.Resident
	if err := readBodyJSON(r, maxBodyBytes, &res); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.residents.Create(r.Context(), sessionFromReq(r), res)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(created))
}

func (h *ResidentHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
	var res domain.Resident
	if err := readBodyJSON(r, maxBodyBytes, &res); err != nil {
		writeError(w, err)
		return
	}
	res.ID = id
	updated, err := h.residents.Update(r.Context(), sessionFromReq(r), res)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(updated))
}

// Delete 历史流水保留，报表中显示为孤立记录
func (h *ResidentHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.residents.Delete(r.Context(), sessionFromReq(r), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"id": id}))
}
