package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMissingReadings 快照缺少读数数组
var ErrMissingReadings = errors.New("snapshot: bgReadingValues and bgReadingDates are required")

// Snapshot 手机端一次性下发的完整状态；除读数外字段均可缺省
type Snapshot struct {
	BgReadingValues         []float64   `json:"bgReadingValues"`
	BgReadingDates          []time.Time `json:"bgReadingDates"`
	IsMgDl                  *bool       `json:"isMgDl,omitempty"`
	SlopeOrdinal            *int        `json:"slopeOrdinal,omitempty"`
	DeltaChangeInMgDl       *float64    `json:"deltaChangeInMgDl,omitempty"`
	UrgentLowLimitInMgDl    *float64    `json:"urgentLowLimitInMgDl,omitempty"`
	LowLimitInMgDl          *float64    `json:"lowLimitInMgDl,omitempty"`
	HighLimitInMgDl         *float64    `json:"highLimitInMgDl,omitempty"`
	UrgentHighLimitInMgDl   *float64    `json:"urgentHighLimitInMgDl,omitempty"`
	UpdatedDate             *time.Time  `json:"updatedDate,omitempty"`
	ActiveSensorDescription *string     `json:"activeSensorDescription,omitempty"`
	SensorAgeInMinutes      *float64    `json:"sensorAgeInMinutes,omitempty"`
	SensorMaxAgeInMinutes   *float64    `json:"sensorMaxAgeInMinutes,omitempty"`
}

// DecodeSnapshot 解析快照；读数数组缺失或长度不一致均视为失败
func DecodeSnapshot(payload []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if s.BgReadingValues == nil || s.BgReadingDates == nil {
		return nil, ErrMissingReadings
	}
	if err := (Series{Values: s.BgReadingValues, Dates: s.BgReadingDates}).Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateRequest 手表端发出的状态请求，无其它负载
type UpdateRequest struct {
	RequestWatchStateUpdate bool `json:"requestWatchStateUpdate"`
}
