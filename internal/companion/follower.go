package companion

import (
	"context"
	"fmt"
	"time"

	"xdrip-watch/internal/models"

	"go.uber.org/zap"
)

// SourceNightscout 从 Nightscout 拉取的读数来源标记
const SourceNightscout = "nightscout"

// DefaultPollInterval 未配置或配置为非正数时的轮询间隔
const DefaultPollInterval = 60 * time.Second

// EntryFetcher 拉取最近读数（nightscout.Client 实现）
type EntryFetcher interface {
	FetchEntries(ctx context.Context, count int) ([]models.Reading, error)
}

// Follower 定时轮询 Nightscout 并写入本地读数表
type Follower struct {
	fetcher  EntryFetcher
	store    ReadingStore
	provider *Provider // 可为 nil
	interval time.Duration
	count    int
	logger   *zap.Logger
}

// NewFollower 创建 Nightscout 跟随者；interval <= 0 时使用 DefaultPollInterval
func NewFollower(fetcher EntryFetcher, store ReadingStore, provider *Provider, interval time.Duration, count int, logger *zap.Logger) *Follower {
	if interval <= 0 {
		logger.Warn("Non-positive Nightscout poll interval, using default",
			zap.Duration("interval", interval),
			zap.Duration("default", DefaultPollInterval),
		)
		interval = DefaultPollInterval
	}
	return &Follower{
		fetcher:  fetcher,
		store:    store,
		provider: provider,
		interval: interval,
		count:    count,
		logger:   logger,
	}
}

// Start 启动轮询，阻塞直到 ctx 取消
func (f *Follower) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	f.logger.Info("Starting Nightscout follower",
		zap.Duration("interval", f.interval),
		zap.Int("count", f.count),
	)

	// 首次立即拉取
	if _, err := f.pollOnce(ctx); err != nil {
		f.logger.Error("Failed to poll Nightscout on startup", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := f.pollOnce(ctx); err != nil {
				f.logger.Error("Failed to poll Nightscout", zap.Error(err))
			}
		}
	}
}

// pollOnce 拉取一次，返回新插入数量
func (f *Follower) pollOnce(ctx context.Context) (int, error) {
	readings, err := f.fetcher.FetchEntries(ctx, f.count)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch entries: %w", err)
	}

	inserted := 0
	for _, rd := range readings {
		ok, err := f.store.Upsert(ctx, rd, SourceNightscout)
		if err != nil {
			f.logger.Error("Failed to store reading",
				zap.Time("timestamp", rd.Timestamp),
				zap.Error(err),
			)
			continue
		}
		if ok {
			inserted++
		}
	}

	if inserted > 0 {
		f.logger.Info("Stored new readings from Nightscout", zap.Int("inserted", inserted))
		if f.provider != nil {
			f.provider.Invalidate(ctx)
		}
	}
	return inserted, nil
}
