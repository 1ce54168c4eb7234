package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ForecastWindow identifies a forecast. DateRangeUsed, PredictionStartDate and
// PredictionEndDate together are unique across all stored forecasts.
type ForecastWindow struct {
	DateRangeUsed       string `gorm:"column:date_range_used;type:varchar(32);not null;uniqueIndex:idx_crowd_forecast_window,priority:1" json:"date_range_used"`
	NumberOfWeeksUsed   int    `gorm:"column:number_of_weeks_used;not null" json:"number_of_weeks_used"`
	PredictionForWeekNr int    `gorm:"column:prediction_for_week_nr;not null" json:"prediction_for_week_nr"`
	PredictionStartDate string `gorm:"column:prediction_start_date;type:varchar(10);not null;uniqueIndex:idx_crowd_forecast_window,priority:2" json:"prediction_start_date"`
	PredictionEndDate   string `gorm:"column:prediction_end_date;type:varchar(10);not null;uniqueIndex:idx_crowd_forecast_window,priority:3" json:"prediction_end_date"`
}

type CrowdForecast struct {
	ID             int64           `gorm:"column:id;primaryKey" json:"id"`
	CreatedDate    time.Time       `gorm:"column:created_date;not null" json:"created_date"`
	ForecastWindow `gorm:"embedded"`
	PredictionData json.RawMessage `gorm:"column:prediction_data;type:jsonb;not null" json:"prediction_data"`
}

func (CrowdForecast) TableName() string { return "crowd_forecast" }

// Points decodes PredictionData.
func (f *CrowdForecast) Points() ([]PredictionPoint, error) {
	if len(f.PredictionData) == 0 {
		return nil, nil
	}
	var points []PredictionPoint
	if err := json.Unmarshal(f.PredictionData, &points); err != nil {
		return nil, fmt.Errorf("decode prediction_data of forecast %d: %w", f.ID, err)
	}
	return points, nil
}
