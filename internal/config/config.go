package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	commoncfg "farmacia-data/internal/common/config"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config farmacia-data（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	Store struct {
		Backend    string // sqlite / postgres / memory
		SQLitePath string
	}
	Database commoncfg.DatabaseConfig
	Redis    struct {
		Enabled bool
		commoncfg.RedisConfig
	}
	MQTT struct {
		commoncfg.MQTTConfig // Broker 为空表示不发布
		LowStockTopic        string
	}
	Cache struct {
		TTL time.Duration // 读视图缓存 TTL，写操作会立即失效
	}
	Events struct {
		MovementStream string // Redis Stream 名称，空表示不发布
		StreamMaxLen   int64
	}
	Notify struct {
		LowStockWebhookURL string // 空表示不通知
	}
	Log struct {
		Level  string
		Format string
	}
	Timezone         string
	SeedDefaultUsers bool
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Store.Backend = strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite))
	cfg.Store.SQLitePath = getEnv("SQLITE_PATH", "farmacia.db")

	cfg.Database = commoncfg.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "farmacia",
		SSLMode:  "disable",
		MaxConns: 10,
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.RedisConfig = commoncfg.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT.MQTTConfig = commoncfg.MQTTConfig{ClientID: "farmacia-data"}
	cfg.MQTT.LoadFromEnv("MQTT")
	cfg.MQTT.LowStockTopic = getEnv("MQTT_LOW_STOCK_TOPIC", "farmacia/alerts/low-stock")

	cfg.Cache.TTL = time.Duration(parseInt(getEnv("CACHE_TTL_SECONDS", "3"), 3)) * time.Second

	cfg.Events.MovementStream = getEnv("MOVEMENT_STREAM", "farmacia:movements")
	cfg.Events.StreamMaxLen = int64(parseInt(getEnv("MOVEMENT_STREAM_MAXLEN", "10000"), 10000))

	cfg.Notify.LowStockWebhookURL = getEnv("LOW_STOCK_WEBHOOK_URL", "")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Timezone = getEnv("TIMEZONE", "America/Santiago")
	cfg.SeedDefaultUsers = getEnv("SEED_DEFAULT_USERS", "true") == "true"

	return cfg
}

// Location 返回配置的时区；无法加载时退回 UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
