package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"

	"crowdflow/models"
)

type ForecastRepository struct {
	db    DB
	clock clockwork.Clock
}

func NewForecastRepository(db DB, clock clockwork.Clock) *ForecastRepository {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ForecastRepository{db: db, clock: clock}
}

// Create inserts a forecast. The unique index on the window makes the insert
// itself the check, so two concurrent creates for one window cannot both
// succeed; the loser gets ErrDuplicateWindow.
func (r *ForecastRepository) Create(ctx context.Context, window models.ForecastWindow, predictionData json.RawMessage) (*models.CrowdForecast, error) {
	f := &models.CrowdForecast{
		CreatedDate:    r.clock.Now().UTC(),
		ForecastWindow: window,
		PredictionData: predictionData,
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO crowd_forecast (created_date, date_range_used, number_of_weeks_used, prediction_for_week_nr,
			prediction_start_date, prediction_end_date, prediction_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (date_range_used, prediction_start_date, prediction_end_date) DO NOTHING
		RETURNING id
	`, f.CreatedDate, window.DateRangeUsed, window.NumberOfWeeksUsed, window.PredictionForWeekNr,
		window.PredictionStartDate, window.PredictionEndDate, predictionData).Scan(&f.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDuplicateWindow
	}
	if err != nil {
		return nil, fmt.Errorf("insert crowd_forecast: %w", err)
	}
	return f, nil
}

// Find returns the most recently inserted forecast covering exactly
// startDate..endDate.
func (r *ForecastRepository) Find(ctx context.Context, startDate, endDate string) (*models.CrowdForecast, error) {
	var f models.CrowdForecast
	err := r.db.QueryRow(ctx, `
		SELECT id, created_date, date_range_used, number_of_weeks_used, prediction_for_week_nr,
			prediction_start_date, prediction_end_date, prediction_data
		FROM crowd_forecast
		WHERE prediction_start_date = $1 AND prediction_end_date = $2
		ORDER BY id DESC
		LIMIT 1
	`, startDate, endDate).Scan(&f.ID, &f.CreatedDate, &f.DateRangeUsed, &f.NumberOfWeeksUsed,
		&f.PredictionForWeekNr, &f.PredictionStartDate, &f.PredictionEndDate, &f.PredictionData)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrForecastNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query crowd_forecast: %w", err)
	}
	return &f, nil
}
