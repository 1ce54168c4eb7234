package services

import (
	"time"

	"crowdflow/predictor"
)

// PastWeeks returns the history window ending at ref. With alignToWeekStart
// both ends move back to the Monday of their week.
func PastWeeks(ref time.Time, weeks int, alignToWeekStart bool) (start, end time.Time) {
	end = truncateDay(ref)
	if alignToWeekStart {
		end = end.AddDate(0, 0, -predictor.WeekdayIndex(end.Weekday()))
	}
	start = end.AddDate(0, 0, -7*weeks)
	return start, end
}

func DateRangeUsed(start, end time.Time) string {
	return start.Format(DateLayout) + "_" + end.Format(DateLayout)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
