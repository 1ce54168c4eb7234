package predictor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekdayIndex(t *testing.T) {
	tests := []struct {
		wd   time.Weekday
		want int
	}{
		{time.Monday, 0},
		{time.Tuesday, 1},
		{time.Wednesday, 2},
		{time.Thursday, 3},
		{time.Friday, 4},
		{time.Saturday, 5},
		{time.Sunday, 6},
	}
	for _, tt := range tests {
		t.Run(tt.wd.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, WeekdayIndex(tt.wd))
		})
	}
}

func TestEncodingRow(t *testing.T) {
	var enc Encoding

	sat := enc.Row(time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC), 4)
	assert.Equal(t, 5, sat.DayOfWeek)
	assert.Equal(t, 15, sat.HourOfDay)
	assert.Equal(t, 1, sat.IsWeekend)
	assert.Equal(t, 4.0, sat.ClientCount)

	fri := enc.Row(time.Date(2024, 3, 8, 23, 0, 0, 0, time.UTC), 0)
	assert.Equal(t, 4, fri.DayOfWeek)
	assert.Equal(t, 0, fri.IsWeekend)
}

func TestEncodingNormalizesToUTC(t *testing.T) {
	var enc Encoding
	amsterdam := time.FixedZone("CET", 3600)

	// 00:30 Monday local is 23:30 Sunday UTC.
	row := enc.Row(time.Date(2024, 3, 4, 0, 30, 0, 0, amsterdam), 1)
	assert.Equal(t, 6, row.DayOfWeek)
	assert.Equal(t, 23, row.HourOfDay)
	assert.Equal(t, time.UTC, row.Timestamp.Location())
}
