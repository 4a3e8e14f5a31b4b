package notify

import "farmacia-data/internal/domain"

// MovementEvent 出入库完成后发布的事件
type MovementEvent struct {
	Movement domain.Movement `json:"movement"`
	Stock    int             `json:"stock"` // 变动后的库存
	Actor    string          `json:"actor"`
}

// LowStockAlert 出库后库存降到最低库存以下
type LowStockAlert struct {
	ItemID       string            `json:"item_id"`
	ItemName     string            `json:"item_name"`
	Department   domain.Department `json:"department"`
	Stock        int               `json:"stock"`
	MinimumStock int               `json:"minimum_stock"`
	Unit         string            `json:"unit"`
	At           string            `json:"at"`
}
