package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"farmacia-data/internal/domain"
	"farmacia-data/internal/render"
	"farmacia-data/internal/report"
	"farmacia-data/internal/service"

	"go.uber.org/zap"
)

// ReportHandler 消耗报表
type ReportHandler struct {
	reports *service.ReportService
	logger  *zap.Logger
}

func NewReportHandler(reports *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

// parseReportRequest ?from=YYYY-MM-DD&to=YYYY-MM-DD&department=&type=
// 缺省为本月 1 日到今天、全部部门、CONSUMO
func (h *ReportHandler) parseReportRequest(r *http.Request) (service.ReportRequest, error) {
	req := h.reports.DefaultRequest()
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		d, err := report.ParseDate(v)
		if err != nil {
			return req, err
		}
		req.From = d
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		d, err := report.ParseDate(v)
		if err != nil {
			return req, err
		}
		req.To = d
	}
	if v := q.Get("department"); v != "" {
		f, ok := domain.ParseDepartmentFilter(v)
		if !ok {
			return req, fmt.Errorf("%w: unknown department filter %q", domain.ErrInvalidInput, v)
		}
		req.Department = f
	}
	if v := q.Get("type"); v != "" {
		t, ok := domain.ParseMovementType(v)
		if !ok {
			return req, fmt.Errorf("%w: unknown movement type %q", domain.ErrInvalidInput, v)
		}
		req.Type = t
	}
	return req, nil
}

func residentParam(r *http.Request) (string, error) {
	name := strings.TrimSpace(r.URL.Query().Get("resident"))
	if name == "" {
		return "", fmt.Errorf("%w: resident is required", domain.ErrInvalidInput)
	}
	return name, nil
}

// Consumption GET /api/v1/reports/consumption
func (h *ReportHandler) Consumption(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseReportRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	summary, err := h.reports.Consumption(r.Context(), sessionFromReq(r), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(summary))
}

// Rows GET /api/v1/reports/consumption/rows?resident=
func (h *ReportHandler) Rows(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseReportRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	name, err := residentParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := h.reports.ResidentRows(r.Context(), sessionFromReq(r), req, name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"resident": name,
		"rows":     rows,
		"total":    report.TotalQuantity(rows),
	}))
}

// PDF GET /api/v1/reports/consumption/pdf?resident=
func (h *ReportHandler) PDF(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseReportRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	name, err := residentParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	renderer := render.PDFRenderer{}
	data, err := h.reports.ResidentReport(r.Context(), sessionFromReq(r), req, name, renderer)
	if err != nil {
		writeError(w, err)
		return
	}
	filename := fmt.Sprintf("Reporte_%s.%s", strings.ReplaceAll(name, " ", "_"), renderer.Extension())
	writeFile(w, renderer.ContentType(), filename, data)
}

// XLSX GET /api/v1/reports/consumption/xlsx
func (h *ReportHandler) XLSX(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseReportRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := h.reports.ExportXLSX(r.Context(), sessionFromReq(r), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeFile(w, xlsxMIME, fmt.Sprintf("consumos_%s_%s.xlsx", req.From, req.To), data)
}
