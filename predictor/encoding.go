package predictor

import "time"

// Encoding maps calendar values to the integer codes the model is trained on.
// It holds no state, so training rows and future rows always agree.
type Encoding struct{}

// DayOfWeek returns 0 for Monday through 6 for Sunday.
func (Encoding) DayOfWeek(t time.Time) int {
	return WeekdayIndex(t.Weekday())
}

func (Encoding) IsWeekend(dayOfWeek int) int {
	if dayOfWeek == 5 || dayOfWeek == 6 {
		return 1
	}
	return 0
}

// Row derives the feature columns for a bucket start.
func (e Encoding) Row(ts time.Time, clientCount float64) FeatureRow {
	ts = ts.UTC()
	dow := e.DayOfWeek(ts)
	return FeatureRow{
		Timestamp:   ts,
		ClientCount: clientCount,
		DayOfWeek:   dow,
		HourOfDay:   ts.Hour(),
		IsWeekend:   e.IsWeekend(dow),
	}
}

// WeekdayIndex converts a time.Weekday (Sunday=0) to Monday=0 numbering.
func WeekdayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}
