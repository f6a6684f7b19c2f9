package companion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"xdrip-watch/internal/models"
	"xdrip-watch/internal/settings"

	"go.uber.org/zap"
)

// ReadingStore 读数存取（repository.ReadingRepository 实现）
type ReadingStore interface {
	ListSince(ctx context.Context, since time.Time) ([]models.Reading, error)
	Upsert(ctx context.Context, rd models.Reading, source string) (bool, error)
}

// SensorStore 传感器查询（repository.SensorRepository 实现）
type SensorStore interface {
	Active(ctx context.Context) (*models.Sensor, error)
}

// SnapshotSource 提供当前快照
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*models.Snapshot, error)
}

// Provider 优先读缓存，未命中时从数据库构建快照并回写缓存
type Provider struct {
	readings ReadingStore
	sensors  SensorStore
	cache    *SnapshotCache // 可为 nil
	settings *settings.Store
	logger   *zap.Logger
	now      func() time.Time
}

var _ SnapshotSource = (*Provider)(nil)

// NewProvider 创建快照提供者
func NewProvider(
	readings ReadingStore,
	sensors SensorStore,
	cache *SnapshotCache,
	store *settings.Store,
	logger *zap.Logger,
) *Provider {
	return &Provider{
		readings: readings,
		sensors:  sensors,
		cache:    cache,
		settings: store,
		logger:   logger,
		now:      time.Now,
	}
}

// Snapshot 当前快照
func (p *Provider) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	if p.cache != nil {
		snap, err := p.cache.Get(ctx)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			p.logger.Warn("Snapshot cache read failed, rebuilding", zap.Error(err))
		}
	}

	snap, err := p.Build(ctx)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, snap); err != nil {
			p.logger.Warn("Failed to cache snapshot", zap.Error(err))
		}
	}
	return snap, nil
}

// Build 跳过缓存直接构建快照
func (p *Provider) Build(ctx context.Context) (*models.Snapshot, error) {
	now := p.now()
	cfg := p.settings.Get()

	since := now.Add(-time.Duration(cfg.HistoryHours * float64(time.Hour)))
	readings, err := p.readings.ListSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load readings: %w", err)
	}

	sensor, err := p.sensors.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active sensor: %w", err)
	}

	return BuildSnapshot(SnapshotInput{
		Readings: readings,
		Sensor:   sensor,
		Settings: cfg,
		Now:      now,
	}), nil
}

// Invalidate 新读数入库或设置变化后调用
func (p *Provider) Invalidate(ctx context.Context) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Invalidate(ctx); err != nil {
		p.logger.Warn("Failed to invalidate snapshot cache", zap.Error(err))
	}
}
