package repository

import (
	"context"
	"fmt"
	"slices"
	"time"

	"crowdflow/models"
)

const DefaultSampleLimit = 10000

type SampleRepository struct {
	db    DB
	limit int
}

func NewSampleRepository(db DB, limit int) *SampleRepository {
	if limit <= 0 {
		limit = DefaultSampleLimit
	}
	return &SampleRepository{db: db, limit: limit}
}

// GetSamples returns readings of one data source with start <= ts <= end,
// oldest first. When the window holds more than the limit, the newest
// readings are kept.
func (r *SampleRepository) GetSamples(ctx context.Context, dataSourceID int, start, end time.Time) ([]models.ClientSample, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, ts, data_source_id, no_of_clients
		FROM data_source_data
		WHERE data_source_id = $1 AND ts >= $2 AND ts <= $3
		ORDER BY ts DESC
		LIMIT $4
	`, dataSourceID, start.UTC(), end.UTC(), r.limit)
	if err != nil {
		return nil, fmt.Errorf("query data_source_data: %w", err)
	}
	defer rows.Close()

	var samples []models.ClientSample
	for rows.Next() {
		var s models.ClientSample
		if err := rows.Scan(&s.ID, &s.TS, &s.DataSourceID, &s.NoOfClients); err != nil {
			return nil, fmt.Errorf("scan data_source_data: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate data_source_data: %w", err)
	}
	slices.Reverse(samples)
	return samples, nil
}

// GetWeather returns stored provider documents of one forecast type with
// start <= created_date <= end, oldest first.
func (r *SampleRepository) GetWeather(ctx context.Context, forecastType models.WeatherForecastType, start, end time.Time) ([]models.WeatherObservation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, created_date, data, data_source_id, weather_forecast_type
		FROM weather
		WHERE weather_forecast_type = $1 AND created_date >= $2 AND created_date <= $3
		ORDER BY created_date ASC
		LIMIT $4
	`, string(forecastType), start.UTC(), end.UTC(), r.limit)
	if err != nil {
		return nil, fmt.Errorf("query weather: %w", err)
	}
	defer rows.Close()

	var observations []models.WeatherObservation
	for rows.Next() {
		var (
			o    models.WeatherObservation
			kind string
		)
		if err := rows.Scan(&o.ID, &o.CreatedDate, &o.Data, &o.DataSourceID, &kind); err != nil {
			return nil, fmt.Errorf("scan weather: %w", err)
		}
		o.WeatherForecastType = models.WeatherForecastType(kind)
		observations = append(observations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weather: %w", err)
	}
	return observations, nil
}

// InsertSample stores one reading. Duplicate (ts, data_source_id) pairs are
// ignored and reported as not inserted.
func (r *SampleRepository) InsertSample(ctx context.Context, s models.ClientSample) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO data_source_data (ts, data_source_id, no_of_clients)
		VALUES ($1, $2, $3)
		ON CONFLICT (ts, data_source_id) DO NOTHING
	`, s.TS.UTC(), s.DataSourceID, s.NoOfClients)
	if err != nil {
		return false, fmt.Errorf("insert data_source_data: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
