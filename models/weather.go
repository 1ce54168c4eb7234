package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type WeatherForecastType string

const (
	WeatherHourly            WeatherForecastType = "HOURLY"
	WeatherFiveDaysThreeHour WeatherForecastType = "FIVE_DAYS_THREE_HOUR"
)

func ParseWeatherForecastType(s string) (WeatherForecastType, error) {
	switch t := WeatherForecastType(s); t {
	case WeatherHourly, WeatherFiveDaysThreeHour:
		return t, nil
	}
	return "", fmt.Errorf("unknown weather forecast type %q", s)
}

// WeatherObservation keeps the provider document as-is; nothing in the
// prediction path interprets it.
type WeatherObservation struct {
	ID                  int64               `gorm:"column:id;primaryKey" json:"id"`
	CreatedDate         time.Time           `gorm:"column:created_date;not null;index" json:"created_date"`
	Data                json.RawMessage     `gorm:"column:data;type:jsonb;not null" json:"data"`
	DataSourceID        int                 `gorm:"column:data_source_id;not null" json:"data_source_id"`
	WeatherForecastType WeatherForecastType `gorm:"column:weather_forecast_type;type:varchar(32);not null" json:"weather_forecast_type"`
}

func (WeatherObservation) TableName() string { return "weather" }
