package service

import (
	"context"

	"farmacia-data/internal/domain"
)

// Option 下拉框选项
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// DispenseForm 出库表单数据；默认选中上次使用的住户和物品
type DispenseForm struct {
	Residents         []Option `json:"residents"`
	Items             []Option `json:"items"`
	DefaultResidentID string   `json:"default_resident_id"`
	DefaultItemID     string   `json:"default_item_id"`
}

// Form 构造出库表单；上次的住户/物品已删除时退回列表第一项
func (l *StockLedger) Form(ctx context.Context, sess domain.Session) (*DispenseForm, error) {
	if err := sess.Require(sess.CanOperate(), "dispense"); err != nil {
		return nil, err
	}
	snap, err := l.cache.Load(ctx)
	if err != nil {
		return nil, err
	}
	form := &DispenseForm{
		Residents: make([]Option, 0, len(snap.Residents)),
		Items:     make([]Option, 0, len(snap.Inventory)),
	}
	for _, r := range snap.Residents {
		form.Residents = append(form.Residents, Option{ID: r.ID, Label: r.Label()})
		if r.ID == sess.LastResidentID {
			form.DefaultResidentID = r.ID
		}
	}
	for _, it := range snap.Inventory {
		form.Items = append(form.Items, Option{ID: it.ID, Label: it.Label()})
		if it.ID == sess.LastItemID {
			form.DefaultItemID = it.ID
		}
	}
	if form.DefaultResidentID == "" && len(form.Residents) > 0 {
		form.DefaultResidentID = form.Residents[0].ID
	}
	if form.DefaultItemID == "" && len(form.Items) > 0 {
		form.DefaultItemID = form.Items[0].ID
	}
	return form, nil
}
