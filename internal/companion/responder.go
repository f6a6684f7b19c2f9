package companion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"xdrip-watch/internal/models"
	"xdrip-watch/internal/session"

	"go.uber.org/zap"
)

// Responder 手机端：响应手表的状态请求，把快照发布到对应设备的状态主题
type Responder struct {
	broker  session.Broker
	source  SnapshotSource
	prefix  string
	qos     byte
	timeout time.Duration
	logger  *zap.Logger
}

// NewResponder 创建响应器
func NewResponder(broker session.Broker, source SnapshotSource, prefix string, qos byte, logger *zap.Logger) *Responder {
	return &Responder{
		broker:  broker,
		source:  source,
		prefix:  prefix,
		qos:     qos,
		timeout: 10 * time.Second,
		logger:  logger,
	}
}

// RequestTopic 所有设备的请求主题（通配）
func (r *Responder) RequestTopic() string {
	return r.prefix + "/+/request"
}

// Start 订阅请求主题；重连后需要再次调用
func (r *Responder) Start() error {
	if err := r.broker.Subscribe(r.RequestTopic(), r.qos, r.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to request topic: %w", err)
	}
	r.logger.Info("Companion responder subscribed", zap.String("topic", r.RequestTopic()))
	return nil
}

// Stop 取消订阅
func (r *Responder) Stop() error {
	return r.broker.Unsubscribe(r.RequestTopic())
}

// Push 主动向指定设备发布快照
func (r *Responder) Push(ctx context.Context, deviceID string) error {
	snap, err := r.source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to get snapshot: %w", err)
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	topic := session.TopicsFor(r.prefix, deviceID).State
	if err := r.broker.Publish(topic, r.qos, false, payload); err != nil {
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}

	r.logger.Debug("Published snapshot",
		zap.String("device_id", deviceID),
		zap.String("topic", topic),
		zap.Int("reading_count", len(snap.BgReadingValues)),
	)
	return nil
}

func (r *Responder) handleMessage(topic string, payload []byte) error {
	deviceID, ok := r.deviceFromTopic(topic)
	if !ok {
		r.logger.Warn("Ignoring message on unexpected topic", zap.String("topic", topic))
		return nil
	}

	var req models.UpdateRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal update request: %w", err)
	}
	if !req.RequestWatchStateUpdate {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	return r.Push(ctx, deviceID)
}

// deviceFromTopic <prefix>/<device>/request -> device
func (r *Responder) deviceFromTopic(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, r.prefix+"/")
	if !ok {
		return "", false
	}
	deviceID, ok := strings.CutSuffix(rest, "/request")
	if !ok || deviceID == "" || strings.Contains(deviceID, "/") {
		return "", false
	}
	return deviceID, true
}
