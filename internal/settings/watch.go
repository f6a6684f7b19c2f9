package settings

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch 监听设置文件所在目录，设置文件被写入或被替换（临时文件 rename 覆盖）后重新加载，
// 内容确有变化时回调 onChange，直到 ctx 取消。
// 监听目录而非文件本身：原子保存会替换 inode，文件级监听随之失效。
// 重新加载失败时保留旧设置，只记录日志。
func Watch(ctx context.Context, path string, onChange func(*Settings), logger *zap.Logger) error {
	target := filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("settings: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("settings: watch %s: %w", filepath.Dir(target), err)
	}

	// 当前内容作为比较基准；文件暂不可读时第一次成功加载即视为变化
	var last *Settings
	if s, err := Load(target); err == nil {
		last = s
	}

	logger.Info("Watching settings file",
		zap.String("path", target),
		zap.String("unit", unitOf(last)),
	)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			// rename 覆盖在目录上表现为 Create；Remove/Rename 只说明旧文件离开
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			s, err := Load(target)
			if err != nil {
				logger.Warn("Settings reload failed, keeping previous settings",
					zap.String("path", target),
					zap.String("op", event.Op.String()),
					zap.Error(err),
				)
				continue
			}
			if last != nil && *s == *last {
				continue
			}
			last = s

			logger.Info("Settings reloaded",
				zap.String("path", target),
				zap.String("unit", s.Unit),
				zap.String("chart_type", s.ChartType),
				zap.Float64("history_hours", s.HistoryHours),
			)
			onChange(s)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Settings watcher error", zap.Error(err))
		}
	}
}

func unitOf(s *Settings) string {
	if s == nil {
		return ""
	}
	return s.Unit
}
