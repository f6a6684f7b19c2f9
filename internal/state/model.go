package state

import (
	"context"
	"sync"
	"time"

	"xdrip-watch/internal/models"
	"xdrip-watch/internal/session"

	"go.uber.org/zap"
)

// Listener 状态替换后的通知
type Listener func(WatchState)

// Model 手表端状态模型：持有当前 WatchState，收到快照后整体替换
type Model struct {
	session session.Session
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.RWMutex
	state     WatchState
	listeners []Listener
}

// Option 模型可选项
type Option func(*Model)

// WithClock 替换时钟（测试用）
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// NewModel 创建模型并向通道注册快照回调
func NewModel(sess session.Session, logger *zap.Logger, opts ...Option) *Model {
	m := &Model{
		session: sess,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.state = Initial(m.now())
	sess.OnSnapshot(m.handleSnapshot)
	return m
}

// State 当前状态的副本
func (m *Model) State() WatchState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone()
}

// Subscribe 注册状态变化通知；回调在通道的 goroutine 中执行
func (m *Model) Subscribe(l Listener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
}

// HandleReachable 通道变为可达时调用：发送一次状态请求
func (m *Model) HandleReachable(ctx context.Context) {
	m.RequestUpdate(ctx)
}

// RequestUpdate 请求手机端下发完整状态；失败只记录日志
func (m *Model) RequestUpdate(ctx context.Context) {
	m.logger.Info("Requesting watch state update from companion")
	if err := m.session.RequestUpdate(ctx); err != nil {
		m.logger.Warn("Watch state update request failed", zap.Error(err))
	}
}

// Apply 用快照替换当前状态
func (m *Model) Apply(s *models.Snapshot) error {
	next, err := FromSnapshot(s, m.now())
	if err != nil {
		return err
	}
	if err := next.Thresholds.Validate(); err != nil {
		m.logger.Warn("Snapshot thresholds not ascending", zap.Error(err))
	}

	m.mu.Lock()
	m.state = next
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	for _, l := range listeners {
		l(next.Clone())
	}
	return nil
}

// handleSnapshot 解析失败时静默丢弃，状态保持不变
func (m *Model) handleSnapshot(payload []byte) {
	snap, err := models.DecodeSnapshot(payload)
	if err != nil {
		m.logger.Debug("Ignoring undecodable snapshot", zap.Error(err))
		return
	}
	if err := m.Apply(snap); err != nil {
		m.logger.Debug("Ignoring invalid snapshot", zap.Error(err))
		return
	}
	m.logger.Info("Received watch state from companion",
		zap.Int("reading_count", len(snap.BgReadingValues)),
	)
}
