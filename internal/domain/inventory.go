package domain

import (
	"fmt"
	"math"
	"strings"
)

const (
	DefaultUnit         = "unidades"
	DefaultMinimumStock = 5

	// MaxStock 库存和单次数量的上限，与 stock INTEGER 列一致
	MaxStock = math.MaxInt32
)

// Units offered by the inventory form.
var Units = []string{"unidades", "cajas", "ml"}

// InventoryItem 库存物品（对应 inventory 表）
type InventoryItem struct {
	ID           string     `json:"id" db:"id"`                       // 不可变
	Name         string     `json:"name" db:"name"`                   // 自然键（导入时按名称去重）
	Unit         string     `json:"unit" db:"unit"`
	Stock        int        `json:"stock" db:"stock"`                 // >= 0
	MinimumStock int        `json:"minimum_stock" db:"minimum_stock"` // >= 0
	Department   Department `json:"department" db:"department"`
}

// LowStock reports whether the item is below its minimum.
func (i InventoryItem) LowStock() bool {
	return i.Stock < i.MinimumStock
}

// Label 出库下拉框显示：名称 (部门) [Stk:库存]
func (i InventoryItem) Label() string {
	return fmt.Sprintf("%s (%s) [Stk:%d]", i.Name, i.Department, i.Stock)
}

// Validate checks the fields a caller may set directly.
func (i *InventoryItem) Validate() error {
	i.Name = strings.TrimSpace(i.Name)
	if i.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if i.Stock < 0 || i.Stock > MaxStock {
		return fmt.Errorf("%w: stock must be between 0 and %d", ErrInvalidInput, MaxStock)
	}
	if i.MinimumStock < 0 || i.MinimumStock > MaxStock {
		return fmt.Errorf("%w: minimum_stock must be between 0 and %d", ErrInvalidInput, MaxStock)
	}
	if strings.TrimSpace(i.Unit) == "" {
		i.Unit = DefaultUnit
	}
	if i.Department == "" {
		i.Department = DefaultDepartment
	}
	d, ok := ParseDepartment(string(i.Department))
	if !ok {
		return fmt.Errorf("%w: unknown department %q", ErrInvalidInput, i.Department)
	}
	i.Department = d
	return nil
}

// IndexInventory builds an ID lookup over an inventory snapshot.
func IndexInventory(items []InventoryItem) map[string]InventoryItem {
	m := make(map[string]InventoryItem, len(items))
	for _, it := range items {
		m[it.ID] = it
	}
	return m
}
