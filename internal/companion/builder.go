package companion

import (
	"time"

	"xdrip-watch/internal/display"
	"xdrip-watch/internal/models"
	"xdrip-watch/internal/settings"
)

// SnapshotInput 构建快照所需的数据
type SnapshotInput struct {
	Readings []models.Reading
	Sensor   *models.Sensor // 可为 nil
	Settings *settings.Settings
	Now      time.Time
}

// BuildSnapshot 由读数、传感器和用户设置生成下发给手表的快照
func BuildSnapshot(in SnapshotInput) *models.Snapshot {
	cfg := in.Settings
	if cfg == nil {
		cfg = settings.Default()
	}

	since := in.Now.Add(-time.Duration(cfg.HistoryHours * float64(time.Hour)))
	readings := make([]models.Reading, 0, len(in.Readings))
	for _, r := range in.Readings {
		if r.Timestamp.After(since) {
			readings = append(readings, r)
		}
	}
	models.SortNewestFirst(readings)

	series := models.NewSeries(readings)
	isMgDl := cfg.IsMgDl()
	updated := in.Now
	t := cfg.Thresholds

	snap := &models.Snapshot{
		BgReadingValues:       series.Values,
		BgReadingDates:        series.Dates,
		IsMgDl:                &isMgDl,
		UrgentLowLimitInMgDl:  &t.UrgentLow,
		LowLimitInMgDl:        &t.Low,
		HighLimitInMgDl:       &t.High,
		UrgentHighLimitInMgDl: &t.UrgentHigh,
		UpdatedDate:           &updated,
	}

	if len(readings) >= 2 {
		delta := readings[0].Value - readings[1].Value
		snap.DeltaChangeInMgDl = &delta
	}
	if len(readings) > 0 {
		if ordinal := display.SlopeOrdinal(readings[0].Trend); ordinal > 0 {
			snap.SlopeOrdinal = &ordinal
		}
	}

	if s := in.Sensor; s != nil {
		description := s.Description
		age := max(s.AgeInMinutes(in.Now), 0)
		maxAge := s.MaxAgeMinutes
		snap.ActiveSensorDescription = &description
		snap.SensorAgeInMinutes = &age
		snap.SensorMaxAgeInMinutes = &maxAge
	}

	return snap
}
