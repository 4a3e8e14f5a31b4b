package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"farmacia-data/internal/domain"
	"farmacia-data/internal/metrics"
	"farmacia-data/internal/repository"
	"farmacia-data/internal/store"

	"go.uber.org/zap"
)

const (
	snapshotGenKey    = "farmacia:snapshot:gen"
	snapshotKeyPrefix = "farmacia:snapshot:"
)

// Snapshot 报表和下拉框使用的只读视图
type Snapshot struct {
	Inventory []domain.InventoryItem `json:"inventory"`
	Residents []domain.Resident      `json:"residents"`
	Movements []domain.Movement      `json:"movements"`
}

// SnapshotCache 读视图缓存
// 缓存键带代数（generation），写操作提交后 Invalidate 使代数 +1，之后的读取不会命中旧数据
type SnapshotCache struct {
	store   repository.Store
	kv      store.KV // nil 表示不缓存
	ttl     time.Duration
	logger  *zap.Logger
	metrics *metrics.Recorder
}

func NewSnapshotCache(st repository.Store, kv store.KV, ttl time.Duration, logger *zap.Logger, rec *metrics.Recorder) *SnapshotCache {
	return &SnapshotCache{store: st, kv: kv, ttl: ttl, logger: logger, metrics: rec}
}

// Load returns the current read view, from cache when possible.
// Cache failures fall back to the store.
func (c *SnapshotCache) Load(ctx context.Context) (*Snapshot, error) {
	if c.kv == nil || c.ttl <= 0 {
		return c.loadFromStore(ctx)
	}

	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Warn("Snapshot cache unavailable, reading store directly", zap.Error(err))
		return c.loadFromStore(ctx)
	}
	key := snapshotKeyPrefix + strconv.FormatInt(gen, 10)

	if raw, err := c.kv.Get(ctx, key); err == nil {
		var snap Snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err == nil {
			c.metrics.CacheLookup(true)
			return &snap, nil
		}
		c.logger.Warn("Discarding undecodable snapshot", zap.String("key", key))
	} else if !errors.Is(err, store.ErrMiss) {
		c.logger.Warn("Snapshot cache get failed", zap.String("key", key), zap.Error(err))
	}
	c.metrics.CacheLookup(false)

	snap, err := c.loadFromStore(ctx)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(snap); err == nil {
		if err := c.kv.Set(ctx, key, string(b), c.ttl); err != nil {
			c.logger.Warn("Snapshot cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return snap, nil
}

// Invalidate bumps the generation so the next Load reads the store.
func (c *SnapshotCache) Invalidate(ctx context.Context) {
	if c == nil || c.kv == nil {
		return
	}
	if _, err := c.kv.Incr(ctx, snapshotGenKey); err != nil {
		// 代数无法递增时删除当前键，最坏情况读到 TTL 内的旧视图
		c.logger.Error("Snapshot cache invalidate failed", zap.Error(err))
		if gen, gerr := c.generation(ctx); gerr == nil {
			_ = c.kv.Del(ctx, snapshotKeyPrefix+strconv.FormatInt(gen, 10))
		}
	}
}

func (c *SnapshotCache) generation(ctx context.Context) (int64, error) {
	raw, err := c.kv.Get(ctx, snapshotGenKey)
	if errors.Is(err, store.ErrMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (c *SnapshotCache) loadFromStore(ctx context.Context) (*Snapshot, error) {
	inv, err := c.store.ListInventory(ctx)
	if err != nil {
		return nil, err
	}
	res, err := c.store.ListResidents(ctx)
	if err != nil {
		return nil, err
	}
	mov, err := c.store.ListMovements(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Inventory: inv, Residents: res, Movements: mov}, nil
}
