package httpapi

import (
	"net/http"
	"time"

	"xdrip-watch/internal/chart"
	"xdrip-watch/internal/settings"
	"xdrip-watch/internal/state"

	"go.uber.org/zap"
)

// StateSource 当前手表状态（state.Model 实现）
type StateSource interface {
	State() state.WatchState
}

// WatchHandler 手表端显示模型接口
type WatchHandler struct {
	states    StateSource
	settings  *settings.Store
	connected func() bool
	logger    *zap.Logger
	now       func() time.Time
}

// NewWatchHandler 创建手表端 handler；connected 为 nil 时视为已连接
func NewWatchHandler(states StateSource, store *settings.Store, connected func() bool, logger *zap.Logger) *WatchHandler {
	if connected == nil {
		connected = func() bool { return true }
	}
	return &WatchHandler{
		states:    states,
		settings:  store,
		connected: connected,
		logger:    logger,
		now:       time.Now,
	}
}

// GetDisplay 返回当前显示模型；?chart=watch|widget|extended 可覆盖设置中的图表类型
func (h *WatchHandler) GetDisplay(w http.ResponseWriter, r *http.Request) {
	ct := h.settings.Get().Chart()
	if name := r.URL.Query().Get("chart"); name != "" {
		t, ok := chart.TypeByName(name)
		if !ok {
			writeResult(w, Fail(ResultUnknownChart, "unknown chart type: "+name))
			return
		}
		ct = t
	}

	writeResult(w, Ok(h.states.State().Display(ct, h.now())))
}

// GetHealth 健康检查；未连接 broker 时返回 ResultDisconnected（503）
func (h *WatchHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	connected := h.connected()
	health := map[string]any{
		"connected": connected,
		"updated":   h.states.State().UpdatedString,
	}
	if !connected {
		writeResult(w, FailWith(ResultDisconnected, "not connected to broker", health))
		return
	}
	writeResult(w, Ok(health))
}
