package models

import "time"

// Sensor 当前使用中的传感器
type Sensor struct {
	SensorID      string     `json:"sensor_id"`
	Description   string     `json:"description"`
	StartedAt     time.Time  `json:"started_at"`
	MaxAgeMinutes float64    `json:"max_age_minutes"`
	StoppedAt     *time.Time `json:"stopped_at,omitempty"`
}

// AgeInMinutes 截至 now 的使用时长（分钟）
func (s *Sensor) AgeInMinutes(now time.Time) float64 {
	return now.Sub(s.StartedAt).Minutes()
}
