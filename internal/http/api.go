package httpapi

import (
	"net/http"

	"farmacia-data/internal/service"

	"go.uber.org/zap"
)

// Services 路由依赖的服务集合
type Services struct {
	Users     *service.UserService
	Inventory *service.InventoryService
	Residents *service.ResidentService
	Ledger    *service.StockLedger
	Imports   *service.ImportService
	Reports   *service.ReportService
	Store     Pinger
	Metrics   http.Handler // 可为 nil
}

// NewAPI 注册全部路由
func NewAPI(s Services, logger *zap.Logger) *Router {
	r := NewRouter(logger)
	r.RegisterAuthRoutes(NewAuthHandler(s.Users, logger))
	r.RegisterInventoryRoutes(NewInventoryHandler(s.Inventory, s.Ledger, s.Imports, logger))
	r.RegisterResidentRoutes(NewResidentHandler(s.Residents, s.Imports, logger))
	r.RegisterDispensationRoutes(NewDispensationHandler(s.Ledger, logger))
	r.RegisterReportRoutes(NewReportHandler(s.Reports, logger))
	r.RegisterUserRoutes(NewUserHandler(s.Users, logger))
	r.RegisterHealthRoutes(NewHealthHandler(s.Store, logger), s.Metrics)
	return r
}
