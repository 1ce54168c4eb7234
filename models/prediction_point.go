package models

import (
	"encoding/json"
	"time"
)

// PredictionPoint is one hourly row of a stored forecast. On the wire the
// timestamp is milliseconds since the Unix epoch.
type PredictionPoint struct {
	Timestamp            time.Time
	DayOfWeek            int
	HourOfDay            int
	IsWeekend            int
	PredictedClientCount float64
}

type predictionPointJSON struct {
	Timestamp            int64   `json:"timestamp"`
	DayOfWeek            int     `json:"day_of_week"`
	HourOfDay            int     `json:"hour_of_day"`
	IsWeekend            int     `json:"is_weekend"`
	PredictedClientCount float64 `json:"predicted_client_count"`
}

func (p PredictionPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(predictionPointJSON{
		Timestamp:            p.Timestamp.UnixMilli(),
		DayOfWeek:            p.DayOfWeek,
		HourOfDay:            p.HourOfDay,
		IsWeekend:            p.IsWeekend,
		PredictedClientCount: p.PredictedClientCount,
	})
}

func (p *PredictionPoint) UnmarshalJSON(data []byte) error {
	var raw predictionPointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = PredictionPoint{
		Timestamp:            time.UnixMilli(raw.Timestamp).UTC(),
		DayOfWeek:            raw.DayOfWeek,
		HourOfDay:            raw.HourOfDay,
		IsWeekend:            raw.IsWeekend,
		PredictedClientCount: raw.PredictedClientCount,
	}
	return nil
}
