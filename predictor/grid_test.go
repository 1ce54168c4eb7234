package predictor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextOccurrence(t *testing.T) {
	wed := time.Date(2024, 3, 6, 17, 45, 0, 0, time.UTC)

	tests := []struct {
		name   string
		anchor time.Weekday
		want   time.Time
	}{
		{"same day is not skipped", time.Wednesday, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)},
		{"later this week", time.Friday, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)},
		{"sunday", time.Sunday, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"monday wraps to next week", time.Monday, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)},
		{"tuesday wraps to next week", time.Tuesday, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextOccurrence(tt.anchor, wed))
		})
	}
}

func TestBuildFutureGrid(t *testing.T) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		t.Run(wd.String(), func(t *testing.T) {
			from := time.Date(2024, 2, 27, 9, 0, 0, 0, time.UTC)
			rows, err := BuildFutureGrid(wd, from, DefaultHorizonHours, Encoding{})
			require.NoError(t, err)
			require.Len(t, rows, 168)

			assert.Equal(t, WeekdayIndex(wd), rows[0].DayOfWeek)
			assert.Equal(t, 0, rows[0].HourOfDay)
			assert.False(t, rows[0].Timestamp.Before(time.Date(2024, 2, 27, 0, 0, 0, 0, time.UTC)))
			for i := 1; i < len(rows); i++ {
				assert.Equal(t, time.Hour, rows[i].Timestamp.Sub(rows[i-1].Timestamp))
			}
			assert.Equal(t, 23, rows[167].HourOfDay)
		})
	}
}

func TestBuildFutureGridMatchesTrainingEncoding(t *testing.T) {
	from := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	grid, err := BuildFutureGrid(time.Monday, from, DefaultHorizonHours, Encoding{})
	require.NoError(t, err)

	// Samples at the same instants must produce identical feature codes.
	var enc Encoding
	for _, g := range grid {
		r := enc.Row(g.Timestamp, 0)
		assert.Equal(t, r.DayOfWeek, g.DayOfWeek)
		assert.Equal(t, r.HourOfDay, g.HourOfDay)
		assert.Equal(t, r.IsWeekend, g.IsWeekend)
	}
	assert.Equal(t, 1, grid[5*24].IsWeekend)
	assert.Equal(t, 0, grid[4*24+23].IsWeekend)
}

func TestBuildFutureGridRejectsNonPositiveHorizon(t *testing.T) {
	_, err := BuildFutureGrid(time.Monday, time.Now(), 0, Encoding{})
	assert.Error(t, err)
}
