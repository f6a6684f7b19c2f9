package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"xdrip-watch/internal/models"

	"go.uber.org/zap"
)

// ReadingRepository 血糖读数仓库（glucose_readings 表）
type ReadingRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReadingRepository 创建读数仓库
func NewReadingRepository(db *sql.DB, logger *zap.Logger) *ReadingRepository {
	return &ReadingRepository{
		db:     db,
		logger: logger,
	}
}

// ListSince 返回 timestamp > since 的读数，最新在前
func (r *ReadingRepository) ListSince(ctx context.Context, since time.Time) ([]models.Reading, error) {
	query := `
		SELECT value_mgdl, timestamp, COALESCE(trend, '')
		FROM glucose_readings
		WHERE timestamp > $1
		ORDER BY timestamp DESC
	`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query glucose readings: %w", err)
	}
	defer rows.Close()

	readings := []models.Reading{}
	for rows.Next() {
		var rd models.Reading
		if err := rows.Scan(&rd.Value, &rd.Timestamp, &rd.Trend); err != nil {
			return nil, fmt.Errorf("failed to scan glucose reading: %w", err)
		}
		readings = append(readings, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate glucose readings: %w", err)
	}

	return readings, nil
}

// Upsert 写入一条读数；同一时间戳已存在时忽略。返回是否实际插入。
func (r *ReadingRepository) Upsert(ctx context.Context, rd models.Reading, source string) (bool, error) {
	query := `
		INSERT INTO glucose_readings (timestamp, value_mgdl, trend, source)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		ON CONFLICT (timestamp) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query, rd.Timestamp, rd.Value, rd.Trend, source)
	if err != nil {
		return false, fmt.Errorf("failed to insert glucose reading: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	r.logger.Debug("Upserted glucose reading",
		zap.Time("timestamp", rd.Timestamp),
		zap.Float64("value_mgdl", rd.Value),
		zap.Bool("inserted", n > 0),
	)

	return n > 0, nil
}
