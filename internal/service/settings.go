package service

import (
	"context"

	"xdrip-watch/internal/settings"

	"go.uber.org/zap"
)

// loadSettings 读取设置文件；路径为空时使用默认设置
func loadSettings(path string, logger *zap.Logger) (*settings.Store, error) {
	if path == "" {
		logger.Info("No settings file configured, using defaults")
		return settings.NewStore(nil), nil
	}
	s, err := settings.Load(path)
	if err != nil {
		return nil, err
	}
	return settings.NewStore(s), nil
}

// watchSettings 热更新设置，onChange 可为 nil
func watchSettings(ctx context.Context, path string, store *settings.Store, onChange func(), logger *zap.Logger) {
	if path == "" {
		return
	}
	err := settings.Watch(ctx, path, func(s *settings.Settings) {
		store.Set(s)
		if onChange != nil {
			onChange()
		}
	}, logger)
	if err != nil {
		logger.Error("Settings watcher stopped", zap.String("path", path), zap.Error(err))
	}
}
