package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"xdrip-watch/internal/export"
	"xdrip-watch/internal/models"
	"xdrip-watch/internal/settings"

	"go.uber.org/zap"
)

// SnapshotSource 当前快照（companion.Provider 实现）
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*models.Snapshot, error)
}

// ReadingLister 按时间查询读数（repository.ReadingRepository 实现）
type ReadingLister interface {
	ListSince(ctx context.Context, since time.Time) ([]models.Reading, error)
}

// CompanionHandler 手机端快照与导出接口
type CompanionHandler struct {
	snapshots SnapshotSource
	readings  ReadingLister
	settings  *settings.Store
	logger    *zap.Logger
	now       func() time.Time
}

func NewCompanionHandler(snapshots SnapshotSource, readings ReadingLister, store *settings.Store, logger *zap.Logger) *CompanionHandler {
	return &CompanionHandler{
		snapshots: snapshots,
		readings:  readings,
		settings:  store,
		logger:    logger,
		now:       time.Now,
	}
}

// GetSnapshot 返回与 MQTT 下发内容相同的快照
func (h *CompanionHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("Snapshot failed", zap.Error(err))
		writeResult(w, Fail(ResultSnapshotFailed, fmt.Sprintf("failed to build snapshot: %v", err)))
		return
	}
	writeResult(w, Ok(snap))
}

// ExportReadings 导出最近 ?hours= 小时（默认取设置中的历史时长）的读数
func (h *CompanionHandler) ExportReadings(w http.ResponseWriter, r *http.Request) {
	cfg := h.settings.Get()
	hours := parseFloat(r.URL.Query().Get("hours"), cfg.HistoryHours)
	since := h.now().Add(-time.Duration(hours * float64(time.Hour)))

	readings, err := h.readings.ListSince(r.Context(), since)
	if err != nil {
		h.logger.Error("ListSince failed for export", zap.Error(err))
		writeResult(w, Fail(ResultReadingsFailed, fmt.Sprintf("failed to list readings: %v", err)))
		return
	}

	excelData, err := export.Readings(readings, export.Options{
		IsMgDl:     cfg.IsMgDl(),
		Thresholds: cfg.Thresholds,
	})
	if err != nil {
		h.logger.Error("Readings export failed", zap.Error(err))
		writeResult(w, Fail(ResultExportFailed, fmt.Sprintf("failed to generate export: %v", err)))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=glucose-readings.xlsx")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(excelData)
}
