package chart

import (
	"time"

	"xdrip-watch/internal/models"
)

// FilterWindow 返回 date > now-lookback 的 (value, date) 对，保持原顺序。
// 只检查下界，未来时间的读数原样保留。
func FilterWindow(s models.Series, lookback time.Duration, now time.Time) models.Series {
	cutoff := now.Add(-lookback)
	out := models.Series{
		Values: []float64{},
		Dates:  []time.Time{},
	}
	for i := 0; i < s.Len(); i++ {
		if s.Dates[i].After(cutoff) {
			out.Values = append(out.Values, s.Values[i])
			out.Dates = append(out.Dates, s.Dates[i])
		}
	}
	return out
}
