package redis

import (
	"context"
	"time"

	"farmacia-data/internal/common/config"

	"github.com/go-redis/redis/v8"
)

// Client 类型别名，调用方无需直接引入 go-redis
type Client = redis.Client

// NewRedisClient 缓存只是加速，超时设置较短，Redis 故障时尽快退回存储
func NewRedisClient(cfg *config.RedisConfig) *Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

func Ping(ctx context.Context, client *Client) error {
	return client.Ping(ctx).Err()
}

func Close(client *Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
