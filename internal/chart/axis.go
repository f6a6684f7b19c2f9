package chart

import (
	"math"
	"time"
)

// AxisTicks 生成 x 轴刻度：从起点所在整点之后的第一个整点开始，每 interval 小时一个，直到 now。
// 起点取 dates 中最早的时间；dates 为空时取 now-lookback。
// 整小时数 <= 0（例如只有未来时间的读数）时返回空切片。
func AxisTicks(dates []time.Time, lookback time.Duration, interval int, now time.Time) []time.Time {
	start := now.Add(-lookback)
	if len(dates) > 0 {
		start = earliest(dates)
	}

	hours := int(math.Ceil(now.Sub(start).Hours()))
	if hours <= 0 {
		return []time.Time{}
	}
	if interval < 1 {
		interval = 1
	}

	startHour := start.Truncate(time.Hour)
	ticks := make([]time.Time, 0, hours/interval+1)
	for k := 1; k <= hours; k += interval {
		ticks = append(ticks, startHour.Add(time.Duration(k)*time.Hour))
	}
	return ticks
}

func earliest(dates []time.Time) time.Time {
	first := dates[0]
	for _, d := range dates[1:] {
		if d.Before(first) {
			first = d
		}
	}
	return first
}
