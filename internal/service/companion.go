package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"xdrip-watch/common/database"
	mqttcommon "xdrip-watch/common/mqtt"
	rediscommon "xdrip-watch/common/redis"
	"xdrip-watch/internal/companion"
	"xdrip-watch/internal/config"
	"xdrip-watch/internal/httpapi"
	"xdrip-watch/internal/nightscout"
	"xdrip-watch/internal/repository"
	"xdrip-watch/internal/settings"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	SourceModeNightscout = "nightscout"
	SourceModeStream     = "stream"
)

// CompanionService 手机端服务：读数采集 + 快照应答 + HTTP 接口
type CompanionService struct {
	config     *config.CompanionConfig
	logger     *zap.Logger
	db         *sql.DB
	redis      *redis.Client
	mqttClient *mqttcommon.Client
	settings   *settings.Store
	provider   *companion.Provider
	responder  *companion.Responder
	follower   *companion.Follower
	ingester   *companion.Ingester
	server     *Server
}

// NewCompanionService 创建手机端服务
func NewCompanionService(cfg *config.CompanionConfig, logger *zap.Logger) (*CompanionService, error) {
	c := &cfg.Companion
	if c.SourceMode != SourceModeNightscout && c.SourceMode != SourceModeStream {
		return nil, fmt.Errorf("unsupported source mode: %s", c.SourceMode)
	}
	if c.SourceMode == SourceModeNightscout && c.Nightscout.URL == "" {
		return nil, fmt.Errorf("NIGHTSCOUT_URL is required when SOURCE_MODE=%s", SourceModeNightscout)
	}

	store, err := loadSettings(c.SettingsPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	ctx := context.Background()

	// 初始化数据库
	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.EnsureSchema(ctx, db); err != nil {
		database.Close(db)
		return nil, err
	}

	// 初始化Redis
	redisClient, err := rediscommon.Connect(ctx, &cfg.Redis)
	if err != nil {
		database.Close(db)
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	// 初始化MQTT
	mqttClient, err := mqttcommon.NewClient(&cfg.MQTT, logger)
	if err != nil {
		rediscommon.Close(redisClient)
		database.Close(db)
		return nil, fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	readingRepo := repository.NewReadingRepository(db, logger)
	sensorRepo := repository.NewSensorRepository(db, logger)

	cache := companion.NewSnapshotCache(
		redisClient,
		c.SnapshotKey,
		time.Duration(c.SnapshotCacheTTL)*time.Second,
		logger,
	)
	provider := companion.NewProvider(readingRepo, sensorRepo, cache, store, logger)
	responder := companion.NewResponder(mqttClient, provider, c.TopicPrefix, cfg.MQTT.QoS, logger)

	svc := &CompanionService{
		config:     cfg,
		logger:     logger,
		db:         db,
		redis:      redisClient,
		mqttClient: mqttClient,
		settings:   store,
		provider:   provider,
		responder:  responder,
	}

	switch c.SourceMode {
	case SourceModeNightscout:
		client := nightscout.NewClient(c.Nightscout.URL, c.Nightscout.APISecret, logger)
		svc.follower = companion.NewFollower(
			client,
			readingRepo,
			provider,
			time.Duration(c.Nightscout.PollInterval)*time.Second,
			c.Nightscout.Count,
			logger,
		)
	case SourceModeStream:
		svc.ingester = companion.NewIngester(
			redisClient,
			readingRepo,
			provider,
			logger,
			c.Stream.Name,
			c.Stream.Group,
			c.Stream.Consumer,
			int64(c.Stream.BatchSize),
		)
	}

	handler := httpapi.NewCompanionHandler(provider, readingRepo, store, logger)
	router := httpapi.NewRouter(logger)
	router.RegisterCompanionRoutes(handler)
	svc.server = NewServer(c.HTTPAddr, router, logger)

	return svc, nil
}

// Start 启动服务，阻塞直到 ctx 取消或某个组件失败
func (s *CompanionService) Start(ctx context.Context) error {
	s.logger.Info("Starting companion service",
		zap.String("source_mode", s.config.Companion.SourceMode),
		zap.String("topic_prefix", s.config.Companion.TopicPrefix),
	)

	// 每次（重新）连接后重新订阅请求主题
	subscribe := func() {
		if err := s.responder.Start(); err != nil {
			s.logger.Error("Failed to start responder", zap.Error(err))
		}
	}
	s.mqttClient.OnConnect(subscribe)
	subscribe()

	// 设置变化后快照内容随之变化
	go watchSettings(ctx, s.config.Companion.SettingsPath, s.settings, func() {
		s.provider.Invalidate(ctx)
	}, s.logger)

	errChan := make(chan error, 2)
	go func() {
		errChan <- s.server.Start()
	}()

	go func() {
		var err error
		switch {
		case s.follower != nil:
			err = s.follower.Start(ctx)
		case s.ingester != nil:
			err = s.ingester.Start(ctx)
		}
		if err != nil {
			errChan <- fmt.Errorf("reading source failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errChan:
		return err
	}
}

// Stop 停止服务
func (s *CompanionService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping companion service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Stop(shutdownCtx); err != nil {
		s.logger.Error("Error stopping HTTP server", zap.Error(err))
	}

	if s.responder != nil {
		if err := s.responder.Stop(); err != nil {
			s.logger.Warn("Error stopping responder", zap.Error(err))
		}
	}

	// 断开MQTT
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}

	// 关闭Redis
	if s.redis != nil {
		rediscommon.Close(s.redis)
	}

	// 关闭数据库
	if s.db != nil {
		database.Close(s.db)
	}

	s.logger.Info("Companion service stopped")
	return nil
}
