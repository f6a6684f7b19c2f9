package redis

import (
	"context"
	"fmt"
	"time"

	"xdrip-watch/common/config"

	"github.com/go-redis/redis/v8"
)

// Client Redis客户端类型别名
type Client = redis.Client

const (
	dialTimeout = 5 * time.Second
	pingTimeout = 3 * time.Second

	// 一个连接给读数流阻塞读取，其余给快照缓存
	poolSize = 4
)

// NewRedisClient 创建Redis客户端；快照缓存与读数流共用同一个客户端。
// XREADGROUP 阻塞读取时 go-redis 会在 ReadTimeout 之上追加阻塞时长。
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  pingTimeout,
		WriteTimeout: pingTimeout,
		PoolSize:     poolSize,
	})
}

// Connect 创建客户端并确认可用；失败时关闭客户端
func Connect(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := NewRedisClient(cfg)
	if err := Ping(ctx, client); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Ping 在 pingTimeout 内测试Redis连接
func Ping(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", client.Options().Addr, err)
	}
	return nil
}

// Close 关闭Redis连接
func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
