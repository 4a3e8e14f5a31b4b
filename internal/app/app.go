package app

import (
	"context"
	"fmt"
	"time"

	"farmacia-data/internal/common/database"
	mqttcommon "farmacia-data/internal/common/mqtt"
	rediscommon "farmacia-data/internal/common/redis"
	"farmacia-data/internal/config"
	"farmacia-data/internal/metrics"
	"farmacia-data/internal/notify"
	"farmacia-data/internal/repository"
	"farmacia-data/internal/service"
	"farmacia-data/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type migrator interface {
	Migrate(ctx context.Context) error
}

// OpenStore 按配置选择存储后端；SQL 后端会执行建表
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	var st repository.Store
	switch cfg.Store.Backend {
	case config.BackendMemory:
		logger.Warn("Using in-memory store, data is lost on restart")
		return repository.NewMemoryStore(), nil
	case config.BackendPostgres:
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, err
		}
		st = repository.NewPostgresStore(db)
		logger.Info("Postgres store enabled", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.Database))
	case config.BackendSQLite:
		db, err := database.NewSQLiteDB(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		st = repository.NewSQLiteStore(db)
		logger.Info("SQLite store enabled", zap.String("path", cfg.Store.SQLitePath))
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if m, ok := st.(migrator); ok {
		if err := m.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return st, nil
}

// App 组装好的服务
type App struct {
	Store     repository.Store
	Metrics   *metrics.Recorder
	Cache     *service.SnapshotCache
	Users     *service.UserService
	Inventory *service.InventoryService
	Residents *service.ResidentService
	Ledger    *service.StockLedger
	Imports   *service.ImportService
	Reports   *service.ReportService

	redis *redis.Client
	mqtt  *mqttcommon.Client
}

// New 组装服务；Redis 不可用时退回进程内缓存，不发布流水事件
func New(ctx context.Context, cfg *config.Config, st repository.Store, logger *zap.Logger) *App {
	a := &App{Store: st, Metrics: metrics.NewRecorder()}
	loc := cfg.Location()

	var kv store.KV = store.NewMemoryKV()
	opts := []service.LedgerOption{
		service.WithLocation(loc),
		service.WithMetrics(a.Metrics),
	}
	if cfg.Redis.Enabled {
		client := rediscommon.NewRedisClient(&cfg.Redis.RedisConfig)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rediscommon.Ping(pingCtx, client)
		cancel()
		if err != nil {
			logger.Warn("Redis unavailable, using in-process cache", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = rediscommon.Close(client)
		} else {
			a.redis = client
			kv = store.NewRedisKV(client)
			if cfg.Events.MovementStream != "" {
				opts = append(opts, service.WithMovementPublisher(
					notify.NewStreamPublisher(client, cfg.Events.MovementStream, cfg.Events.StreamMaxLen)))
			}
			logger.Info("Redis enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}
	var alerts notify.Fanout
	if cfg.Notify.LowStockWebhookURL != "" {
		alerts = append(alerts, notify.NewWebhookNotifier(cfg.Notify.LowStockWebhookURL, logger))
	}
	if cfg.MQTT.Broker != "" {
		client, err := mqttcommon.NewClient(&cfg.MQTT.MQTTConfig, logger)
		if err != nil {
			logger.Warn("MQTT unavailable, low stock alerts not published", zap.String("broker", cfg.MQTT.Broker), zap.Error(err))
		} else {
			a.mqtt = client
			alerts = append(alerts, notify.NewMQTTNotifier(client, cfg.MQTT.LowStockTopic))
			logger.Info("MQTT enabled", zap.String("broker", cfg.MQTT.Broker), zap.String("topic", cfg.MQTT.LowStockTopic))
		}
	}
	if len(alerts) > 0 {
		opts = append(opts, service.WithLowStockNotifier(alerts))
	}

	a.Cache = service.NewSnapshotCache(st, kv, cfg.Cache.TTL, logger, a.Metrics)
	a.Users = service.NewUserService(st, logger)
	a.Inventory = service.NewInventoryService(st, a.Cache, loc, logger)
	a.Residents = service.NewResidentService(st, a.Cache, logger)
	a.Ledger = service.NewStockLedger(st, a.Cache, logger, opts...)
	a.Imports = service.NewImportService(st, a.Cache, logger, a.Metrics)
	a.Reports = service.NewReportService(a.Cache, loc, logger, a.Metrics)
	return a
}

// Close 关闭 Redis 和存储
func (a *App) Close() error {
	if a.redis != nil {
		_ = rediscommon.Close(a.redis)
	}
	if a.mqtt != nil {
		a.mqtt.Disconnect()
	}
	return a.Store.Close()
}
