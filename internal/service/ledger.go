package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"farmacia-data/internal/domain"
	"farmacia-data/internal/metrics"
	"farmacia-data/internal/notify"
	"farmacia-data/internal/repository"

	"go.uber.org/zap"
)

// LowStockNotifier 低库存提醒（webhook、MQTT，或 notify.Fanout 组合）
type LowStockNotifier = notify.LowStockNotifier

// MovementPublisher 流水事件发布（Redis Stream 等）
type MovementPublisher interface {
	PublishMovement(ctx context.Context, ev notify.MovementEvent) error
}

// LedgerResult 出入库结果
type LedgerResult struct {
	Movement domain.Movement `json:"movement"`
	Stock    int             `json:"stock"`     // 变动后的库存
	LowStock bool            `json:"low_stock"` // 变动后低于最低库存
	// Session 更新了 LastResidentID / LastItemID，由调用方保存
	Session domain.Session `json:"-"`
}

// StockLedger 库存台账：库存增减与流水记录作为一个整体完成
type StockLedger struct {
	store   repository.Store
	cache   *SnapshotCache
	locks   *keyedMutex
	now     func() time.Time
	loc     *time.Location
	logger  *zap.Logger
	metrics *metrics.Recorder

	lowStock LowStockNotifier
	events   MovementPublisher
}

type LedgerOption func(*StockLedger)

// WithClock 替换时钟（测试用）
func WithClock(now func() time.Time) LedgerOption {
	return func(l *StockLedger) { l.now = now }
}

// WithLocation 流水时间戳所用时区
func WithLocation(loc *time.Location) LedgerOption {
	return func(l *StockLedger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

func WithMetrics(rec *metrics.Recorder) LedgerOption {
	return func(l *StockLedger) { l.metrics = rec }
}

func WithLowStockNotifier(n LowStockNotifier) LedgerOption {
	return func(l *StockLedger) { l.lowStock = n }
}

func WithMovementPublisher(p MovementPublisher) LedgerOption {
	return func(l *StockLedger) { l.events = p }
}

func NewStockLedger(st repository.Store, cache *SnapshotCache, logger *zap.Logger, opts ...LedgerOption) *StockLedger {
	l := &StockLedger{
		store:  st,
		cache:  cache,
		locks:  newKeyedMutex(),
		now:    time.Now,
		loc:    time.UTC,
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dispense 出库给住户：扣减库存并追加一条 CONSUMO 流水
// 库存不足时返回 domain.ErrInsufficientStock，不做任何修改
func (l *StockLedger) Dispense(ctx context.Context, sess domain.Session, itemID, residentID string, quantity int) (*LedgerResult, error) {
	if err := sess.Require(sess.CanOperate(), "dispense"); err != nil {
		return nil, err
	}
	if err := l.checkQuantity("dispense", quantity); err != nil {
		return nil, err
	}

	var resident *domain.Resident
	item, m, stock, err := l.commit(ctx, itemID, func(item *domain.InventoryItem) (domain.Movement, error) {
		r, err := l.store.GetResident(ctx, residentID)
		if err != nil {
			l.reject(err)
			return domain.Movement{}, err
		}
		if item.Stock < quantity {
			l.metrics.Rejection("insufficient_stock")
			return domain.Movement{}, fmt.Errorf("dispense %d of %q (stock %d): %w", quantity, item.Name, item.Stock, domain.ErrInsufficientStock)
		}
		resident = r
		return domain.Movement{
			ID:                 domain.NewID(),
			Timestamp:          domain.FormatTimestamp(l.now().In(l.loc)),
			Type:               domain.MovementConsumption,
			ResidentID:         r.ID,
			ItemID:             item.ID,
			ItemName:           item.Name,
			Quantity:           quantity,
			DepartmentSnapshot: string(item.Department),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	// 以下在物品锁之外执行
	l.logger.Info("Dispensed",
		zap.String("movement_id", m.ID),
		zap.String("item_id", item.ID),
		zap.String("resident_id", resident.ID),
		zap.Int("quantity", quantity),
		zap.Int("stock", stock),
		zap.String("user", sess.Username),
	)
	l.metrics.Movement(string(m.Type), m.DepartmentSnapshot, quantity)
	l.publish(ctx, m, stock, sess.Username)

	low := stock < item.MinimumStock
	if low && stock+quantity >= item.MinimumStock {
		l.notifyLowStock(ctx, *item, stock)
	}

	sess.LastResidentID = resident.ID
	sess.LastItemID = item.ID
	return &LedgerResult{Movement: m, Stock: stock, LowStock: low, Session: sess}, nil
}

// Receive 入库：增加库存并追加一条 ENTRADA 流水（无住户）
func (l *StockLedger) Receive(ctx context.Context, sess domain.Session, itemID string, quantity int) (*LedgerResult, error) {
	if err := sess.Require(sess.CanOperate(), "receive stock"); err != nil {
		return nil, err
	}
	if err := l.checkQuantity("receive", quantity); err != nil {
		return nil, err
	}

	item, m, stock, err := l.commit(ctx, itemID, func(item *domain.InventoryItem) (domain.Movement, error) {
		return domain.Movement{
			ID:                 domain.NewID(),
			Timestamp:          domain.FormatTimestamp(l.now().In(l.loc)),
			Type:               domain.MovementReceipt,
			ItemID:             item.ID,
			ItemName:           item.Name,
			Quantity:           quantity,
			DepartmentSnapshot: string(item.Department),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("Received stock",
		zap.String("movement_id", m.ID),
		zap.String("item_id", item.ID),
		zap.Int("quantity", quantity),
		zap.Int("stock", stock),
		zap.String("user", sess.Username),
	)
	l.metrics.Movement(string(m.Type), m.DepartmentSnapshot, quantity)
	l.publish(ctx, m, stock, sess.Username)

	return &LedgerResult{Movement: m, Stock: stock, LowStock: stock < item.MinimumStock, Session: sess}, nil
}

func (l *StockLedger) checkQuantity(op string, quantity int) error {
	if quantity <= 0 || quantity > domain.MaxStock {
		l.metrics.Rejection("invalid_quantity")
		return fmt.Errorf("%s %d: %w", op, quantity, domain.ErrInvalidQuantity)
	}
	return nil
}

// commit 持有物品锁完成 读取-校验-更新-追加，并使读缓存失效
// build 在锁内根据当前物品生成流水；日志、事件、提醒由调用方在返回后执行
func (l *StockLedger) commit(ctx context.Context, itemID string, build func(item *domain.InventoryItem) (domain.Movement, error)) (*domain.InventoryItem, domain.Movement, int, error) {
	unlock := l.locks.Lock(itemID)
	defer unlock()

	item, err := l.store.GetInventoryItem(ctx, itemID)
	if err != nil {
		l.reject(err)
		return nil, domain.Movement{}, 0, err
	}
	m, err := build(item)
	if err != nil {
		return nil, domain.Movement{}, 0, err
	}
	stock, err := l.store.ApplyMovement(ctx, &m)
	if err != nil {
		l.reject(err)
		return nil, domain.Movement{}, 0, err
	}
	l.cache.Invalidate(ctx)
	return item, m, stock, nil
}

func (l *StockLedger) reject(err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		l.metrics.Rejection("not_found")
	case errors.Is(err, domain.ErrInsufficientStock):
		l.metrics.Rejection("insufficient_stock")
	case errors.Is(err, domain.ErrInvalidQuantity):
		l.metrics.Rejection("invalid_quantity")
	default:
		l.metrics.Rejection("store_error")
		l.logger.Error("Ledger store failure", zap.Error(err))
	}
}

// publish / notifyLowStock 失败只记日志，不影响已提交的出入库
func (l *StockLedger) publish(ctx context.Context, m domain.Movement, stock int, actor string) {
	if l.events == nil {
		return
	}
	if err := l.events.PublishMovement(ctx, notify.MovementEvent{Movement: m, Stock: stock, Actor: actor}); err != nil {
		l.logger.Warn("Failed to publish movement event", zap.String("movement_id", m.ID), zap.Error(err))
	}
}

func (l *StockLedger) notifyLowStock(ctx context.Context, item domain.InventoryItem, stock int) {
	l.metrics.LowStock()
	l.logger.Warn("Item below minimum stock",
		zap.String("item_id", item.ID),
		zap.String("item_name", item.Name),
		zap.Int("stock", stock),
		zap.Int("minimum_stock", item.MinimumStock),
	)
	if l.lowStock == nil {
		return
	}
	alert := notify.LowStockAlert{
		ItemID:       item.ID,
		ItemName:     item.Name,
		Department:   item.Department,
		Stock:        stock,
		MinimumStock: item.MinimumStock,
		Unit:         item.Unit,
		At:           domain.FormatTimestamp(l.now().In(l.loc)),
	}
	if err := l.lowStock.NotifyLowStock(ctx, alert); err != nil {
		l.logger.Warn("Failed to send low stock notification", zap.String("item_id", item.ID), zap.Error(err))
	}
}
