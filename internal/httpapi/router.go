// Package httpapi 手表端与手机端的只读 HTTP 接口。
package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// get 仅允许 GET
func get(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// RegisterWatchRoutes 手表端路由
func (r *Router) RegisterWatchRoutes(h *WatchHandler) {
	r.Handle("/watch/api/v1/display", get(h.GetDisplay))
	r.Handle("/watch/api/v1/health", get(h.GetHealth))
}

// RegisterCompanionRoutes 手机端路由
func (r *Router) RegisterCompanionRoutes(h *CompanionHandler) {
	r.Handle("/companion/api/v1/snapshot", get(h.GetSnapshot))
	r.Handle("/companion/api/v1/readings/export", get(h.ExportReadings))
}
