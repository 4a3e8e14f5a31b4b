package report

import "farmacia-data/internal/domain"

// ResolveDepartment 确定流水归属部门：
// 1. 流水上保存的部门快照（非空且可识别）
// 2. 物品当前的部门（物品仍存在时）
// 3. 默认 Farmacia
func ResolveDepartment(m domain.Movement, inventoryByID map[string]domain.InventoryItem) domain.Department {
	if d, ok := domain.ParseDepartment(m.DepartmentSnapshot); ok {
		return d
	}
	if it, ok := inventoryByID[m.ItemID]; ok {
		if d, ok := domain.ParseDepartment(string(it.Department)); ok {
			return d
		}
	}
	return domain.DefaultDepartment
}
