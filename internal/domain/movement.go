package domain

import (
	"strings"
	"time"
)

// MovementType 出入库类型（存储值沿用历史数据）
type MovementType string

const (
	MovementConsumption MovementType = "CONSUMO"
	MovementReceipt     MovementType = "ENTRADA"
)

// ParseMovementType accepts the stored values and the English names.
func ParseMovementType(s string) (MovementType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "CONSUMO", "CONSUMPTION":
		return MovementConsumption, true
	case "ENTRADA", "RECEIPT":
		return MovementReceipt, true
	default:
		return "", false
	}
}

// TimestampLayout is the layout new movements are written with (minute precision).
const TimestampLayout = "2006-01-02 15:04"

// Movement 库存流水（审计日志，只追加不修改）
type Movement struct {
	ID                 string       `json:"id" db:"id"`
	Timestamp          string       `json:"timestamp" db:"recorded_at"` // 原样保存，历史数据可能是其它格式
	Type               MovementType `json:"type" db:"type"`
	ResidentID         string       `json:"resident_id,omitempty" db:"resident_id"` // RECEIPT 为空
	ItemID             string       `json:"item_id" db:"item_id"`
	ItemName           string       `json:"item_name" db:"item_name"` // 出库时的物品名称快照
	Quantity           int          `json:"quantity" db:"quantity"`   // > 0
	DepartmentSnapshot string       `json:"department,omitempty" db:"department"`
}

// Delta is the signed stock change this movement represents.
func (m Movement) Delta() int {
	if m.Type == MovementConsumption {
		return -m.Quantity
	}
	return m.Quantity
}

// FormatTimestamp renders t in the layout new movements are stored with.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
