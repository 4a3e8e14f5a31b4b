package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（用于 /metrics 等）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterAuthRoutes
func (r *Router) RegisterAuthRoutes(h *AuthHandler) {
	r.Handle("/api/v1/auth/login", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Login(w, req)
	})
}

// RegisterInventoryRoutes：库存 CRUD、入库、导入、PDF、模板
func (r *Router) RegisterInventoryRoutes(h *InventoryHandler) {
	r.Handle("/api/v1/inventory", h.ServeHTTP)
	r.Handle("/api/v1/inventory/", h.ServeHTTP)
}

func (r *Router) RegisterResidentRoutes(h *ResidentHandler) {
	r.Handle("/api/v1/residents", h.ServeHTTP)
	r.Handle("/api/v1/residents/", h.ServeHTTP)
}

// RegisterDispensationRoutes：出库表单 + 出库
func (r *Router) RegisterDispensationRoutes(h *DispensationHandler) {
	r.Handle("/api/v1/dispensations", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Dispense(w, req)
	})
	r.Handle("/api/v1/dispensations/form", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Form(w, req)
	})
}

// RegisterReportRoutes：consumption 概览、住户明细、PDF、XLSX
func (r *Router) RegisterReportRoutes(h *ReportHandler) {
	routes := map[string]http.HandlerFunc{
		"/api/v1/reports/consumption":      h.Consumption,
		"/api/v1/reports/consumption/rows": h.Rows,
		"/api/v1/reports/consumption/pdf":  h.PDF,
		"/api/v1/reports/consumption/xlsx": h.XLSX,
	}
	for pattern, fn := range routes {
		fn := fn
		r.Handle(pattern, func(w http.ResponseWriter, req *http.Request) {
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			fn(w, req)
		})
	}
}

func (r *Router) RegisterUserRoutes(h *UserHandler) {
	r.Handle("/api/v1/users", h.ServeHTTP)
	r.Handle("/api/v1/users/", h.ServeHTTP)
}

// RegisterHealthRoutes：/healthz 检查存储；/metrics 为 Prometheus 指标
func (r *Router) RegisterHealthRoutes(h *HealthHandler, metrics http.Handler) {
	r.Handle("/healthz", h.Healthz)
	if metrics != nil {
		r.HandleHandler("/metrics", metrics)
	}
}
