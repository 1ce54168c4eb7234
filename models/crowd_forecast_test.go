package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictionDataRoundTrip(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	points := []PredictionPoint{
		{Timestamp: start, DayOfWeek: 0, HourOfDay: 0, IsWeekend: 0, PredictedClientCount: 3.25},
		{Timestamp: start.Add(time.Hour), DayOfWeek: 0, HourOfDay: 1, IsWeekend: 0, PredictedClientCount: -0.5},
	}
	data, err := json.Marshal(points)
	require.NoError(t, err)

	f := &CrowdForecast{ID: 7, PredictionData: data}
	decoded, err := f.Points()
	require.NoError(t, err)
	assert.Equal(t, points, decoded)
}

func TestPredictionPointWireFormat(t *testing.T) {
	p := PredictionPoint{
		Timestamp:            time.Date(2024, 3, 9, 13, 0, 0, 0, time.UTC),
		DayOfWeek:            5,
		HourOfDay:            13,
		IsWeekend:            1,
		PredictedClientCount: 21,
	}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":1709989200000,"day_of_week":5,"hour_of_day":13,"is_weekend":1,"predicted_client_count":21}`, string(data))
}

func TestPointsRejectsMalformedData(t *testing.T) {
	f := &CrowdForecast{ID: 3, PredictionData: json.RawMessage(`{"timestamp":`)}
	_, err := f.Points()
	assert.Error(t, err)

	empty := &CrowdForecast{}
	points, err := empty.Points()
	require.NoError(t, err)
	assert.Nil(t, points)
}

func TestParseWeatherForecastType(t *testing.T) {
	got, err := ParseWeatherForecastType("HOURLY")
	require.NoError(t, err)
	assert.Equal(t, WeatherHourly, got)

	got, err = ParseWeatherForecastType("FIVE_DAYS_THREE_HOUR")
	require.NoError(t, err)
	assert.Equal(t, WeatherFiveDaysThreeHour, got)

	_, err = ParseWeatherForecastType("daily")
	assert.Error(t, err)
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "data_source_data", ClientSample{}.TableName())
	assert.Equal(t, "weather", WeatherObservation{}.TableName())
	assert.Equal(t, "crowd_forecast", CrowdForecast{}.TableName())
}
