package predictor

import (
	"fmt"
	"time"
)

const DefaultHorizonHours = 168

// NextOccurrence returns midnight UTC of the first day on or after from whose
// weekday is anchor.
func NextOccurrence(anchor time.Weekday, from time.Time) time.Time {
	from = from.UTC()
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	offset := (WeekdayIndex(anchor) - WeekdayIndex(day.Weekday()) + 7) % 7
	return day.AddDate(0, 0, offset)
}

// BuildFutureGrid returns horizonHours hourly rows starting at
// NextOccurrence(anchor, from).
func BuildFutureGrid(anchor time.Weekday, from time.Time, horizonHours int, enc Encoding) ([]FeatureRow, error) {
	if horizonHours <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizonHours)
	}
	start := NextOccurrence(anchor, from)

	rows := make([]FeatureRow, horizonHours)
	for i := range rows {
		rows[i] = enc.Row(start.Add(time.Duration(i)*time.Hour), 0)
	}
	return rows, nil
}
