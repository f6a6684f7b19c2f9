package models

import "fmt"

// Band 阈值分类结果
type Band string

const (
	BandUrgent  Band = "urgent"
	BandWarning Band = "warning"
	BandNormal  Band = "normal"
)

// ThresholdSet 四个升序边界（mg/dL），仅用于分类
type ThresholdSet struct {
	UrgentLow  float64 `json:"urgent_low" yaml:"urgent_low"`
	Low        float64 `json:"low" yaml:"low"`
	High       float64 `json:"high" yaml:"high"`
	UrgentHigh float64 `json:"urgent_high" yaml:"urgent_high"`
}

// Classify 将读数映射到分类；urgent 优先于 warning，边界值包含在内
func (t ThresholdSet) Classify(value float64) Band {
	switch {
	case value >= t.UrgentHigh || value <= t.UrgentLow:
		return BandUrgent
	case value >= t.High || value <= t.Low:
		return BandWarning
	default:
		return BandNormal
	}
}

// Validate 检查 urgentLow < low < high < urgentHigh。Classify 不依赖此检查。
func (t ThresholdSet) Validate() error {
	if !(t.UrgentLow < t.Low && t.Low < t.High && t.High < t.UrgentHigh) {
		return fmt.Errorf("thresholds not ascending: urgent_low=%v low=%v high=%v urgent_high=%v",
			t.UrgentLow, t.Low, t.High, t.UrgentHigh)
	}
	return nil
}
