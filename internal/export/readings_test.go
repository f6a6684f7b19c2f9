package export

import (
	"bytes"
	"testing"
	"time"

	"xdrip-watch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var thresholds = models.ThresholdSet{UrgentLow: 55, Low: 70, High: 180, UrgentHigh: 260}

func readRows(t *testing.T, data []byte) [][]string {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	return rows
}

func TestReadings_MgDl(t *testing.T) {
	ts := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	data, err := Readings([]models.Reading{
		{Value: 190, Timestamp: ts, Trend: "SingleUp"},
		{Value: 120, Timestamp: ts.Add(-5 * time.Minute)},
		{Value: 50, Timestamp: ts.Add(-10 * time.Minute), Trend: "DoubleDown"},
	}, Options{IsMgDl: true, Thresholds: thresholds})
	require.NoError(t, err)

	rows := readRows(t, data)
	require.Len(t, rows, 4)
	assert.Equal(t, ReadingsHeader, rows[0])
	assert.Equal(t, []string{"2026-10-15 09:30", "190", "mg/dL", "warning", "SingleUp"}, rows[1])
	assert.Equal(t, []string{"2026-10-15 09:25", "120", "mg/dL", "normal"}, rows[2][:4])
	assert.Equal(t, "urgent", rows[3][3])
}

func TestReadings_MmolAndEmpty(t *testing.T) {
	data, err := Readings([]models.Reading{
		{Value: 180, Timestamp: time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)},
	}, Options{IsMgDl: false, Thresholds: thresholds, TimeFormat: time.RFC3339})
	require.NoError(t, err)

	rows := readRows(t, data)
	require.Len(t, rows, 2)
	assert.Equal(t, "2026-10-15T09:30:00Z", rows[1][0])
	assert.Equal(t, "10.0", rows[1][1])
	assert.Equal(t, "mmol/L", rows[1][2])

	data, err = Readings(nil, Options{IsMgDl: true, Thresholds: thresholds})
	require.NoError(t, err)
	assert.Len(t, readRows(t, data), 1)
}
