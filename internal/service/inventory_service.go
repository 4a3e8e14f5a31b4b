package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"farmacia-data/internal/domain"
	"farmacia-data/internal/render"
	"farmacia-data/internal/repository"

	"go.uber.org/zap"
)

// InventoryView 库存列表项
type InventoryView struct {
	domain.InventoryItem
	LowStock bool   `json:"low_stock"`
	Label    string `json:"label"`
}

// InventoryService 库存物品管理（库存数量只通过 StockLedger 变动）
type InventoryService struct {
	store  repository.Store
	cache  *SnapshotCache
	now    func() time.Time
	loc    *time.Location
	logger *zap.Logger
}

func NewInventoryService(st repository.Store, cache *SnapshotCache, loc *time.Location, logger *zap.Logger) *InventoryService {
	if loc == nil {
		loc = time.UTC
	}
	return &InventoryService{store: st, cache: cache, now: time.Now, loc: loc, logger: logger}
}

// List 所有角色可见；department 为空表示全部
func (s *InventoryService) List(ctx context.Context, sess domain.Session, department string) ([]InventoryView, error) {
	if err := sess.Require(sess.CanViewInventory(), "view inventory"); err != nil {
		return nil, err
	}
	filter, ok := domain.ParseDepartmentFilter(department)
	if !ok {
		return nil, fmt.Errorf("%w: unknown department %q", domain.ErrInvalidInput, department)
	}
	snap, err := s.cache.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]InventoryView, 0, len(snap.Inventory))
	for _, it := range snap.Inventory {
		if !filter.Matches(it.Department) {
			continue
		}
		out = append(out, InventoryView{InventoryItem: it, LowStock: it.LowStock(), Label: it.Label()})
	}
	return out, nil
}

// Create 新建物品（ID 由系统分配）
func (s *InventoryService) Create(ctx context.Context, sess domain.Session, item domain.InventoryItem) (*domain.InventoryItem, error) {
	if err := sess.Require(sess.CanOperate(), "create inventory items"); err != nil {
		return nil, err
	}
	item.ID = ""
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateInventoryItem(ctx, &item); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("Inventory item created",
		zap.String("item_id", item.ID),
		zap.String("name", item.Name),
		zap.String("user", sess.Username),
	)
	return &item, nil
}

// Update 修改名称、单位、最低库存、部门；Stock 字段被忽略
func (s *InventoryService) Update(ctx context.Context, sess domain.Session, item domain.InventoryItem) (*domain.InventoryItem, error) {
	if err := sess.Require(sess.CanOperate(), "edit inventory items"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(item.ID) == "" {
		return nil, fmt.Errorf("%w: id is required", domain.ErrInvalidInput)
	}
	cur, err := s.store.GetInventoryItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	item.Stock = cur.Stock
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateInventoryItem(ctx, &item); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return &item, nil
}

// Delete 仅管理员；历史流水保留（成为孤立记录）
func (s *InventoryService) Delete(ctx context.Context, sess domain.Session, id string) error {
	if err := sess.Require(sess.CanDeleteInventory(), "delete inventory items"); err != nil {
		return err
	}
	if err := s.store.DeleteInventoryItem(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("Inventory item deleted", zap.String("item_id", id), zap.String("user", sess.Username))
	return nil
}

// PDF 库存总表
func (s *InventoryService) PDF(ctx context.Context, sess domain.Session) ([]byte, error) {
	if err := sess.Require(sess.CanViewInventory(), "view inventory"); err != nil {
		return nil, err
	}
	snap, err := s.cache.Load(ctx)
	if err != nil {
		return nil, err
	}
	return render.InventoryPDF(snap.Inventory, sess.Username, s.now().In(s.loc).Format("02/01/2006"))
}
