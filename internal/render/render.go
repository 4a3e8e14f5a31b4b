package render

import (
	"time"

	"farmacia-data/internal/domain"
	"farmacia-data/internal/report"
)

// ResidentReport 单个住户的消耗报表输入
type ResidentReport struct {
	Resident    domain.Resident
	From        report.Date
	To          report.Date
	FilterLabel string
	Rows        []report.Row // 已按时间升序
	GeneratedBy string
	GeneratedAt time.Time
}

// Renderer 报表输出格式
type Renderer interface {
	RenderResidentReport(r ResidentReport) ([]byte, error)
	ContentType() string
	Extension() string
}

// rowTimestamp 报表中显示的时间（最多到分钟）
func rowTimestamp(row report.Row) string {
	ts := row.Movement.Timestamp
	if len(ts) > 16 {
		ts = ts[:16]
	}
	return ts
}
