package companion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"xdrip-watch/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ErrCacheMiss 快照缓存不存在或已失效
var ErrCacheMiss = errors.New("snapshot cache miss")

// SnapshotCache 快照缓存：一个带 TTL 的 Redis 字符串键，新读数入库或设置变化后删除。
// TTL 保证 sensorAgeInMinutes / updatedDate 不会无限期过时。
type SnapshotCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewSnapshotCache 创建快照缓存；ttl <= 0 时返回 nil，表示不缓存（Provider 每次重新构建）
func NewSnapshotCache(client *redis.Client, key string, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	if ttl <= 0 {
		logger.Info("Snapshot cache disabled", zap.Duration("ttl", ttl))
		return nil
	}
	return &SnapshotCache{
		client: client,
		key:    key,
		ttl:    ttl,
		logger: logger,
	}
}

// Get 读取缓存的快照；不存在或内容无效时返回 ErrCacheMiss
func (c *SnapshotCache) Get(ctx context.Context) (*models.Snapshot, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read snapshot cache: %w", err)
	}

	snap, err := models.DecodeSnapshot(raw)
	if err != nil {
		// 损坏的缓存按未命中处理，随后会被覆盖
		c.logger.Warn("Discarding invalid cached snapshot",
			zap.String("key", c.key),
			zap.Error(err),
		)
		return nil, ErrCacheMiss
	}
	return snap, nil
}

// Set 写入快照，始终带 TTL
func (c *SnapshotCache) Set(ctx context.Context, snap *models.Snapshot) error {
	jsonData, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := c.client.Set(ctx, c.key, jsonData, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot cache: %w", err)
	}

	c.logger.Debug("Updated snapshot cache",
		zap.String("key", c.key),
		zap.Duration("ttl", c.ttl),
		zap.Int("reading_count", len(snap.BgReadingValues)),
	)
	return nil
}

// Invalidate 删除缓存
func (c *SnapshotCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate snapshot cache: %w", err)
	}
	return nil
}
