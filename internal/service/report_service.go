package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"farmacia-data/internal/domain"
	"farmacia-data/internal/metrics"
	"farmacia-data/internal/render"
	"farmacia-data/internal/report"

	"go.uber.org/zap"
)

// ReportRequest 报表条件
type ReportRequest struct {
	From       report.Date
	To         report.Date
	Department domain.DepartmentFilter
	Type       domain.MovementType
}

// ConsumptionSummary 报表概览：有数据的住户列表和按物品汇总
type ConsumptionSummary struct {
	From          string             `json:"from"`
	To            string             `json:"to"`
	Filter        string             `json:"filter"`
	FilterLabel   string             `json:"filter_label"`
	Type          string             `json:"type"`
	Residents     []string           `json:"residents"`
	Totals        []report.ItemTotal `json:"totals"`
	RowCount      int                `json:"row_count"`
	TotalQuantity int                `json:"total_quantity"`
	Skipped       int                `json:"skipped"`
}

// ReportService 消耗报表
type ReportService struct {
	cache   *SnapshotCache
	now     func() time.Time
	loc     *time.Location
	logger  *zap.Logger
	metrics *metrics.Recorder
}

func NewReportService(cache *SnapshotCache, loc *time.Location, logger *zap.Logger, rec *metrics.Recorder) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{cache: cache, now: time.Now, loc: loc, logger: logger, metrics: rec}
}

// DefaultRequest 本月 1 日到今天，全部部门，CONSUMO
func (s *ReportService) DefaultRequest() ReportRequest {
	today := report.DateOf(s.now().In(s.loc))
	return ReportRequest{
		From:       report.Date{Year: today.Year, Month: today.Month, Day: 1},
		To:         today,
		Department: domain.FilterGeneral,
		Type:       domain.MovementConsumption,
	}
}

func (s *ReportService) query(ctx context.Context, sess domain.Session, req ReportRequest) (*report.Result, *Snapshot, error) {
	if err := sess.Require(sess.CanOperate(), "view reports"); err != nil {
		return nil, nil, err
	}
	snap, err := s.cache.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	res := report.QueryMovements(snap.Movements, snap.Inventory, snap.Residents, report.Query{
		From:       req.From,
		To:         req.To,
		Department: req.Department,
		Type:       req.Type,
	})
	if res.Skipped > 0 {
		s.logger.Warn("Skipped movements with unparsable timestamps",
			zap.Int("count", res.Skipped),
			zap.String("from", req.From.String()),
			zap.String("to", req.To.String()),
		)
		s.metrics.SkippedRows(res.Skipped)
	}
	return &res, snap, nil
}

// Consumption 概览（住户列表为空也是有效结果）
func (s *ReportService) Consumption(ctx context.Context, sess domain.Session, req ReportRequest) (*ConsumptionSummary, error) {
	res, _, err := s.query(ctx, sess, req)
	if err != nil {
		return nil, err
	}
	typ := req.Type
	if typ == "" {
		typ = domain.MovementConsumption
	}
	filter := req.Department
	if filter == "" {
		filter = domain.FilterGeneral
	}
	return &ConsumptionSummary{
		From:          req.From.String(),
		To:            req.To.String(),
		Filter:        string(filter),
		FilterLabel:   filter.Label(),
		Type:          string(typ),
		Residents:     res.GroupByResident(),
		Totals:        report.TotalsByItem(res.Rows),
		RowCount:      len(res.Rows),
		TotalQuantity: report.TotalQuantity(res.Rows),
		Skipped:       res.Skipped,
	}, nil
}

// ResidentRows 指定住户的明细（按时间升序）
func (s *ReportService) ResidentRows(ctx context.Context, sess domain.Session, req ReportRequest, name string) ([]report.Row, error) {
	res, _, err := s.query(ctx, sess, req)
	if err != nil {
		return nil, err
	}
	return res.ForResident(name), nil
}

// ResidentReport 渲染指定住户的报表；该住户在条件内没有记录时返回 domain.ErrNotFound
// 同名住户合并显示，表头使用第一个同名住户的资料
func (s *ReportService) ResidentReport(ctx context.Context, sess domain.Session, req ReportRequest, name string, r render.Renderer) ([]byte, error) {
	res, snap, err := s.query(ctx, sess, req)
	if err != nil {
		return nil, err
	}
	rows := res.ForResident(name)
	if len(rows) == 0 {
		return nil, fmt.Errorf("report for resident %q: %w", name, domain.ErrNotFound)
	}
	var header domain.Resident
	for _, rr := range snap.Residents {
		if rr.Name == name {
			header = rr
			break
		}
	}
	filter := req.Department
	if filter == "" {
		filter = domain.FilterGeneral
	}
	out, err := r.RenderResidentReport(render.ResidentReport{
		Resident:    header,
		From:        req.From,
		To:          req.To,
		FilterLabel: filter.Label(),
		Rows:        rows,
		GeneratedBy: sess.Username,
		GeneratedAt: s.now().In(s.loc),
	})
	if err != nil {
		s.logger.Error("Failed to render resident report", zap.String("resident", name), zap.Error(err))
		return nil, err
	}
	return out, nil
}

// ExportXLSX 导出条件内全部明细（含孤立记录），按时间升序
func (s *ReportService) ExportXLSX(ctx context.Context, sess domain.Session, req ReportRequest) ([]byte, error) {
	res, _, err := s.query(ctx, sess, req)
	if err != nil {
		return nil, err
	}
	rows := append([]report.Row(nil), res.Rows...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Time.Before(rows[j].Time) })

	filter := req.Department
	if filter == "" {
		filter = domain.FilterGeneral
	}
	return render.MovementsWorkbook(rows, filter.Label(), req.From, req.To)
}
