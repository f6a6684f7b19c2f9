package display

// Tier 传感器剩余寿命等级
type Tier string

const (
	TierExpired Tier = "expired"
	TierUrgent  Tier = "urgent"
	TierWarning Tier = "warning"
	TierNormal  Tier = "normal"
)

const (
	// SensorUrgentMinutes 剩余不足 12 小时
	SensorUrgentMinutes = 60 * 12
	// SensorWarningMinutes 剩余不足 24 小时
	SensorWarningMinutes = 60 * 24
)

// Progress 传感器使用进度
type Progress struct {
	Fraction float64 `json:"fraction"`
	Tier     Tier    `json:"tier"`
}

// SensorProgress 根据已用时长与最大寿命（分钟）计算进度。
// 剩余时间 < 0 时一律为 expired（进度 1）；剩余恰好为 0 不算过期。
// maxAgeMinutes <= 0 表示寿命未知：进度记为 0（避免除零），等级仍按剩余时间判断。
func SensorProgress(ageMinutes, maxAgeMinutes float64) Progress {
	remaining := maxAgeMinutes - ageMinutes

	if remaining < 0 {
		return Progress{Fraction: 1, Tier: TierExpired}
	}

	var fraction float64
	if maxAgeMinutes > 0 {
		fraction = min(max(1-remaining/maxAgeMinutes, 0), 1)
	}

	switch {
	case remaining <= SensorUrgentMinutes:
		return Progress{Fraction: fraction, Tier: TierUrgent}
	case remaining <= SensorWarningMinutes:
		return Progress{Fraction: fraction, Tier: TierWarning}
	default:
		return Progress{Fraction: fraction, Tier: TierNormal}
	}
}
