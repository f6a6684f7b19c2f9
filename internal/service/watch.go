package service

import (
	"context"
	"fmt"
	"time"

	mqttcommon "xdrip-watch/common/mqtt"
	"xdrip-watch/internal/config"
	"xdrip-watch/internal/httpapi"
	"xdrip-watch/internal/session"
	"xdrip-watch/internal/settings"
	"xdrip-watch/internal/state"

	"go.uber.org/zap"
)

// WatchService 手表端服务：MQTT 通道 + 状态模型 + 显示模型 HTTP 接口
type WatchService struct {
	config     *config.WatchConfig
	logger     *zap.Logger
	mqttClient *mqttcommon.Client
	session    *session.MQTTSession
	model      *state.Model
	settings   *settings.Store
	server     *Server
}

// NewWatchService 创建手表端服务
func NewWatchService(cfg *config.WatchConfig, logger *zap.Logger) (*WatchService, error) {
	store, err := loadSettings(cfg.Watch.SettingsPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	// 初始化MQTT
	mqttClient, err := mqttcommon.NewClient(&cfg.MQTT, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	topics := session.TopicsFor(cfg.Watch.TopicPrefix, cfg.Watch.DeviceID)
	sess := session.NewMQTTSession(mqttClient, topics, cfg.MQTT.QoS, logger)
	model := state.NewModel(sess, logger)

	handler := httpapi.NewWatchHandler(model, store, mqttClient.IsConnected, logger)
	router := httpapi.NewRouter(logger)
	router.RegisterWatchRoutes(handler)

	return &WatchService{
		config:     cfg,
		logger:     logger,
		mqttClient: mqttClient,
		session:    sess,
		model:      model,
		settings:   store,
		server:     NewServer(cfg.Watch.HTTPAddr, router, logger),
	}, nil
}

// Start 启动服务，阻塞直到 ctx 取消或 HTTP 服务器出错
func (s *WatchService) Start(ctx context.Context) error {
	s.logger.Info("Starting watch service",
		zap.String("device_id", s.config.Watch.DeviceID),
		zap.String("topic_prefix", s.config.Watch.TopicPrefix),
	)

	s.model.Subscribe(s.logState)

	// 每次（重新）连接：重新订阅并请求一次状态
	onReachable := func() {
		if err := s.session.Start(); err != nil {
			s.logger.Error("Failed to start watch session", zap.Error(err))
			return
		}
		s.model.HandleReachable(ctx)
	}
	s.mqttClient.OnConnect(onReachable)
	onReachable()

	go watchSettings(ctx, s.config.Watch.SettingsPath, s.settings, nil, s.logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.server.Start()
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	}
}

// logState 每次应用快照后输出一行摘要
func (s *WatchService) logState(w state.WatchState) {
	s.logger.Info("Watch state updated",
		zap.String("value", w.ValueString()),
		zap.String("unit", w.UnitString()),
		zap.String("trend", w.TrendArrow()),
		zap.String("delta", w.DeltaString()),
		zap.String("band", string(w.Band())),
		zap.String("updated", w.UpdatedString),
	)
}

// Stop 停止服务
func (s *WatchService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping watch service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Stop(shutdownCtx); err != nil {
		s.logger.Error("Error stopping HTTP server", zap.Error(err))
	}

	if err := s.session.Stop(); err != nil {
		s.logger.Warn("Error stopping watch session", zap.Error(err))
	}

	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}

	s.logger.Info("Watch service stopped")
	return nil
}
