package companion

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	rediscommon "xdrip-watch/common/redis"
	"xdrip-watch/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// SourceStream 经 Redis Streams 写入的读数来源标记
const SourceStream = "stream"

// ReadingEvent 上传端发布到 stream 的读数
type ReadingEvent struct {
	ValueMgDl float64 `json:"value_mgdl"`
	Timestamp int64   `json:"timestamp"` // 毫秒
	Trend     string  `json:"trend,omitempty"`
}

// Ingester 读数流消费者
type Ingester struct {
	redisClient  *redis.Client
	store        ReadingStore
	provider     *Provider // 可为 nil
	logger       *zap.Logger
	stream       string
	groupName    string
	consumerName string
	batchSize    int64
	block        time.Duration
}

// NewIngester 创建读数流消费者
func NewIngester(
	redisClient *redis.Client,
	store ReadingStore,
	provider *Provider,
	logger *zap.Logger,
	stream string,
	groupName string,
	consumerName string,
	batchSize int64,
) *Ingester {
	return &Ingester{
		redisClient:  redisClient,
		store:        store,
		provider:     provider,
		logger:       logger,
		stream:       stream,
		groupName:    groupName,
		consumerName: consumerName,
		batchSize:    batchSize,
		block:        5 * time.Second,
	}
}

// Start 启动消费循环，阻塞直到 ctx 取消
func (c *Ingester) Start(ctx context.Context) error {
	if err := rediscommon.CreateConsumerGroup(ctx, c.redisClient, c.stream, c.groupName); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	c.logger.Info("Reading ingester started",
		zap.String("stream", c.stream),
		zap.String("consumer_group", c.groupName),
		zap.String("consumer_name", c.consumerName),
	)

	// 消费读数（带指数退避）
	backoffDuration := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if _, err := c.consumeOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to consume readings",
				zap.Error(err),
				zap.Duration("backoff", backoffDuration),
			)

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoffDuration):
				backoffDuration *= 2
				if backoffDuration > maxBackoff {
					backoffDuration = maxBackoff
				}
			}
		} else {
			backoffDuration = time.Second
		}
	}
}

// consumeOnce 读取一批消息，返回新插入的读数数量
func (c *Ingester) consumeOnce(ctx context.Context) (int, error) {
	messages, err := rediscommon.ReadFromStream(
		ctx,
		c.redisClient,
		c.stream,
		c.groupName,
		c.consumerName,
		c.batchSize,
		c.block,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to read from stream: %w", err)
	}

	inserted := 0
	for _, msg := range messages {
		ok, err := c.processMessage(ctx, msg)
		if err != nil {
			// 不确认，留在 pending 列表
			c.logger.Error("Failed to process reading",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			continue
		}
		if ok {
			inserted++
		}
		if err := rediscommon.Ack(ctx, c.redisClient, c.stream, c.groupName, msg.ID); err != nil {
			c.logger.Warn("Failed to ack message",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}

	if inserted > 0 && c.provider != nil {
		c.provider.Invalidate(ctx)
	}
	return inserted, nil
}

func (c *Ingester) processMessage(ctx context.Context, msg rediscommon.StreamMessage) (bool, error) {
	rd, err := ParseReadingEvent(msg.Values)
	if err != nil {
		return false, fmt.Errorf("failed to parse reading: %w", err)
	}

	inserted, err := c.store.Upsert(ctx, rd, SourceStream)
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// ParseReadingEvent 优先解析 data 字段中的 JSON，否则读取平铺字段
func ParseReadingEvent(values map[string]interface{}) (models.Reading, error) {
	var ev ReadingEvent

	if dataStr, ok := values["data"].(string); ok {
		if err := json.Unmarshal([]byte(dataStr), &ev); err != nil {
			return models.Reading{}, fmt.Errorf("invalid data field: %w", err)
		}
	} else {
		if s, ok := values["value_mgdl"].(string); ok {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return models.Reading{}, fmt.Errorf("invalid value_mgdl %q: %w", s, err)
			}
			ev.ValueMgDl = v
		}
		if s, ok := values["timestamp"].(string); ok {
			ts, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return models.Reading{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
			}
			ev.Timestamp = ts
		}
		if s, ok := values["trend"].(string); ok {
			ev.Trend = s
		}
	}

	if ev.ValueMgDl <= 0 || ev.Timestamp <= 0 {
		return models.Reading{}, fmt.Errorf("invalid reading: missing value_mgdl or timestamp")
	}

	return models.Reading{
		Value:     ev.ValueMgDl,
		Timestamp: time.UnixMilli(ev.Timestamp).UTC(),
		Trend:     ev.Trend,
	}, nil
}
