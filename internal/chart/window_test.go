package chart

import (
	"testing"
	"time"

	"xdrip-watch/internal/models"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 10, 15, 10, 20, 0, 0, time.UTC)

func TestFilterWindow_LowerBoundStrict(t *testing.T) {
	s := models.Series{
		Values: []float64{150, 140, 130, 120},
		Dates: []time.Time{
			now.Add(-10 * time.Minute),
			now.Add(-3*time.Hour + time.Second),
			now.Add(-3 * time.Hour), // 恰好在下界，排除
			now.Add(-5 * time.Hour),
		},
	}

	got := FilterWindow(s, 3*time.Hour, now)

	assert.Equal(t, []float64{150, 140}, got.Values)
	for _, d := range got.Dates {
		assert.True(t, d.After(now.Add(-3*time.Hour)))
	}
}

func TestFilterWindow_FutureDatesPassThrough(t *testing.T) {
	s := models.Series{
		Values: []float64{99},
		Dates:  []time.Time{now.Add(2 * time.Hour)},
	}
	got := FilterWindow(s, time.Hour, now)
	assert.Equal(t, []float64{99}, got.Values)
}

func TestFilterWindow_Empty(t *testing.T) {
	got := FilterWindow(models.Series{}, time.Hour, now)
	assert.NoError(t, got.Validate())
	assert.Equal(t, 0, got.Len())
}

func TestFilterWindow_MismatchedLengthsDoNotPanic(t *testing.T) {
	s := models.Series{
		Values: []float64{100, 110, 120},
		Dates:  []time.Time{now.Add(-time.Minute)},
	}
	got := FilterWindow(s, time.Hour, now)
	assert.Equal(t, []float64{100}, got.Values)
	assert.NoError(t, got.Validate())
}
