package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	mqttcommon "xdrip-watch/common/mqtt"
	"xdrip-watch/internal/models"

	"go.uber.org/zap"
)

// Broker MQTT 发布/订阅能力（common/mqtt.Client 实现）
type Broker interface {
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Unsubscribe(topics ...string) error
	IsConnected() bool
}

// MQTTSession 基于 MQTT 的配对通道（手表端）
type MQTTSession struct {
	broker Broker
	topics Topics
	qos    byte
	logger *zap.Logger

	mu      sync.RWMutex
	handler SnapshotHandler
}

var _ Session = (*MQTTSession)(nil)

// NewMQTTSession 创建手表端通道
func NewMQTTSession(broker Broker, topics Topics, qos byte, logger *zap.Logger) *MQTTSession {
	return &MQTTSession{
		broker: broker,
		topics: topics,
		qos:    qos,
		logger: logger,
	}
}

// Start 订阅状态主题；重连后需要再次调用
func (s *MQTTSession) Start() error {
	if err := s.broker.Subscribe(s.topics.State, s.qos, s.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to state topic: %w", err)
	}
	s.logger.Info("Watch session subscribed", zap.String("topic", s.topics.State))
	return nil
}

// Stop 取消订阅
func (s *MQTTSession) Stop() error {
	return s.broker.Unsubscribe(s.topics.State)
}

// OnSnapshot 注册快照回调
func (s *MQTTSession) OnSnapshot(handler SnapshotHandler) {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
}

// RequestUpdate 发送一次状态请求，不等待回复
func (s *MQTTSession) RequestUpdate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.broker.IsConnected() {
		return ErrNotConnected
	}

	payload, err := json.Marshal(models.UpdateRequest{RequestWatchStateUpdate: true})
	if err != nil {
		return fmt.Errorf("failed to marshal update request: %w", err)
	}
	return s.broker.Publish(s.topics.Request, s.qos, false, payload)
}

func (s *MQTTSession) handleMessage(topic string, payload []byte) error {
	s.logger.Debug("Received state message",
		zap.String("topic", topic),
		zap.Int("payload_size", len(payload)),
	)

	s.mu.RLock()
	handler := s.handler
	s.mu.RUnlock()

	if handler != nil {
		handler(payload)
	}
	return nil
}
