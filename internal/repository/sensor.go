package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"xdrip-watch/internal/models"

	"go.uber.org/zap"
)

// SensorRepository 传感器仓库（sensors 表）
type SensorRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSensorRepository 创建传感器仓库
func NewSensorRepository(db *sql.DB, logger *zap.Logger) *SensorRepository {
	return &SensorRepository{
		db:     db,
		logger: logger,
	}
}

// Active 返回最近启动且未停止的传感器；没有时返回 nil, nil
func (r *SensorRepository) Active(ctx context.Context) (*models.Sensor, error) {
	query := `
		SELECT sensor_id, COALESCE(description, ''), started_at, max_age_minutes
		FROM sensors
		WHERE stopped_at IS NULL
		ORDER BY started_at DESC
		LIMIT 1
	`

	var s models.Sensor
	err := r.db.QueryRowContext(ctx, query).Scan(&s.SensorID, &s.Description, &s.StartedAt, &s.MaxAgeMinutes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query active sensor: %w", err)
	}

	return &s, nil
}
