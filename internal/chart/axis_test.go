package chart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(h, m int) time.Time {
	return time.Date(2026, 10, 15, h, m, 0, 0, time.UTC)
}

func TestAxisTicks_EmptyUsesWindowStart(t *testing.T) {
	ticks := AxisTicks(nil, 4*time.Hour, 1, now)
	assert.Equal(t, []time.Time{at(7, 0), at(8, 0), at(9, 0), at(10, 0)}, ticks)
}

func TestAxisTicks_StartsFromEarliestReading(t *testing.T) {
	// 最新在前的顺序，最早的读数在末尾
	dates := []time.Time{at(10, 15), at(9, 0), at(8, 30)}
	ticks := AxisTicks(dates, 4*time.Hour, 1, now)
	assert.Equal(t, []time.Time{at(9, 0), at(10, 0)}, ticks)

	// 顺序无关
	reversed := []time.Time{at(8, 30), at(9, 0), at(10, 15)}
	assert.Equal(t, ticks, AxisTicks(reversed, 4*time.Hour, 1, now))
}

func TestAxisTicks_Interval(t *testing.T) {
	ticks := AxisTicks(nil, 12*time.Hour, 2, now)
	// start 前一天 22:20，12 个整小时 -> k = 1,3,...,11
	assert.Len(t, ticks, 6)
	assert.Equal(t, time.Date(2026, 10, 14, 23, 0, 0, 0, time.UTC), ticks[0])
	assert.Equal(t, at(9, 0), ticks[len(ticks)-1])
}

func TestAxisTicks_NonPositiveHoursIsEmpty(t *testing.T) {
	assert.Empty(t, AxisTicks([]time.Time{now.Add(time.Hour)}, 4*time.Hour, 1, now))
	assert.Empty(t, AxisTicks([]time.Time{now}, 4*time.Hour, 1, now))
}

func TestAxisTicks_IntervalClamped(t *testing.T) {
	assert.Equal(t, AxisTicks(nil, 4*time.Hour, 1, now), AxisTicks(nil, 4*time.Hour, 0, now))
	assert.Equal(t, AxisTicks(nil, 4*time.Hour, 1, now), AxisTicks(nil, 4*time.Hour, -3, now))
}
