package state

import (
	"fmt"
	"time"

	"xdrip-watch/internal/chart"
	"xdrip-watch/internal/display"
	"xdrip-watch/internal/models"
)

// 收到快照但字段缺省时使用的默认值
const (
	defaultIsMgDl         = true
	defaultSlopeOrdinal   = 5
	defaultDeltaInMgDl    = 2
	defaultUrgentLowMgDl  = 60
	defaultLowMgDl        = 80
	defaultHighMgDl       = 180
	defaultUrgentHighMgDl = 240
)

// WatchState 手表端当前显示的全部状态，不可变：每次收到快照整体替换
type WatchState struct {
	Readings                models.Series
	IsMgDl                  bool
	SlopeOrdinal            int
	DeltaChangeInMgDl       float64
	Thresholds              models.ThresholdSet
	UpdatedDate             time.Time
	ActiveSensorDescription string
	SensorAgeInMinutes      float64
	SensorMaxAgeInMinutes   float64
	UpdatedString           string
}

// Initial 尚未收到任何快照时的占位状态
func Initial(now time.Time) WatchState {
	return WatchState{
		Readings: models.Series{
			Values: []float64{123},
			Dates:  []time.Time{now.Add(-200 * time.Second)},
		},
		IsMgDl:            true,
		SlopeOrdinal:      5,
		DeltaChangeInMgDl: 3,
		Thresholds: models.ThresholdSet{
			UrgentLow:  60,
			Low:        80,
			High:       170,
			UrgentHigh: 250,
		},
		UpdatedDate:           now,
		SensorAgeInMinutes:    2880,
		SensorMaxAgeInMinutes: 14400,
		UpdatedString:         "Updated: 12:34",
	}
}

// FromSnapshot 用快照整体构造新状态，缺省字段取默认值
func FromSnapshot(s *models.Snapshot, now time.Time) (WatchState, error) {
	readings := models.Series{Values: s.BgReadingValues, Dates: s.BgReadingDates}
	if err := readings.Validate(); err != nil {
		return WatchState{}, err
	}

	w := WatchState{
		Readings:          readings.Clone(),
		IsMgDl:            valueOr(s.IsMgDl, defaultIsMgDl),
		SlopeOrdinal:      valueOr(s.SlopeOrdinal, defaultSlopeOrdinal),
		DeltaChangeInMgDl: valueOr(s.DeltaChangeInMgDl, defaultDeltaInMgDl),
		Thresholds: models.ThresholdSet{
			UrgentLow:  valueOr(s.UrgentLowLimitInMgDl, defaultUrgentLowMgDl),
			Low:        valueOr(s.LowLimitInMgDl, defaultLowMgDl),
			High:       valueOr(s.HighLimitInMgDl, defaultHighMgDl),
			UrgentHigh: valueOr(s.UrgentHighLimitInMgDl, defaultUrgentHighMgDl),
		},
		UpdatedDate:             valueOr(s.UpdatedDate, now),
		ActiveSensorDescription: valueOr(s.ActiveSensorDescription, ""),
		SensorAgeInMinutes:      valueOr(s.SensorAgeInMinutes, 0),
		SensorMaxAgeInMinutes:   valueOr(s.SensorMaxAgeInMinutes, 0),
	}
	w.UpdatedString = w.updatedString(now)
	return w, nil
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

func (w WatchState) updatedString(now time.Time) string {
	bg := "--:--"
	if d, ok := w.CurrentDate(); ok {
		bg = d.Format("15:04")
	}
	return fmt.Sprintf("BG: %s / State: %s", bg, now.Format("15:04"))
}

// Clone 深拷贝，避免调用方修改内部切片
func (w WatchState) Clone() WatchState {
	w.Readings = w.Readings.Clone()
	return w
}

// CurrentValue 最新读数（索引 0）
func (w WatchState) CurrentValue() (float64, bool) {
	if w.Readings.Len() == 0 {
		return 0, false
	}
	return w.Readings.Values[0], true
}

// CurrentDate 最新读数时间
func (w WatchState) CurrentDate() (time.Time, bool) {
	if w.Readings.Len() == 0 {
		return time.Time{}, false
	}
	return w.Readings.Dates[0], true
}

// UnitString 单位名
func (w WatchState) UnitString() string {
	return display.UnitString(w.IsMgDl)
}

// ValueString 最新读数的显示字符串，无读数时为 "---"
func (w WatchState) ValueString() string {
	v, ok := w.CurrentValue()
	if !ok {
		return "---"
	}
	return display.FormatValue(v, w.IsMgDl)
}

// Band 最新读数的分类
func (w WatchState) Band() models.Band {
	v, ok := w.CurrentValue()
	if !ok {
		return models.BandNormal
	}
	return w.Thresholds.Classify(v)
}

// TrendArrow 趋势箭头
func (w WatchState) TrendArrow() string {
	return display.TrendArrow(w.SlopeOrdinal)
}

// DeltaString 变化量显示字符串
func (w WatchState) DeltaString() string {
	return display.FormatDelta(w.DeltaChangeInMgDl, w.IsMgDl)
}

// SensorProgress 传感器进度
func (w WatchState) SensorProgress() display.Progress {
	return display.SensorProgress(w.SensorAgeInMinutes, w.SensorMaxAgeInMinutes)
}

// Display 对外输出的显示模型
type Display struct {
	Value                   string           `json:"value"`
	Unit                    string           `json:"unit"`
	Band                    models.Band      `json:"band"`
	TrendArrow              string           `json:"trend_arrow"`
	Delta                   string           `json:"delta"`
	ReadingDate             *time.Time       `json:"reading_date,omitempty"`
	UpdatedString           string           `json:"updated_string"`
	ActiveSensorDescription string           `json:"active_sensor_description"`
	SensorProgress          display.Progress `json:"sensor_progress"`
	Chart                   chart.Model      `json:"chart"`
}

// Display 计算当前显示模型，每次调用都重新计算
func (w WatchState) Display(ct chart.Type, now time.Time) Display {
	d := Display{
		Value:                   w.ValueString(),
		Unit:                    w.UnitString(),
		Band:                    w.Band(),
		TrendArrow:              w.TrendArrow(),
		Delta:                   w.DeltaString(),
		UpdatedString:           w.UpdatedString,
		ActiveSensorDescription: w.ActiveSensorDescription,
		SensorProgress:          w.SensorProgress(),
		Chart:                   chart.Build(w.Readings, w.Thresholds, ct, now),
	}
	if date, ok := w.CurrentDate(); ok {
		d.ReadingDate = &date
	}
	return d
}
