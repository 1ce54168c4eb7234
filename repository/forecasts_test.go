package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowdflow/models"
)

var testWindow = models.ForecastWindow{
	DateRangeUsed:       "2024-02-05_2024-03-04",
	NumberOfWeeksUsed:   4,
	PredictionForWeekNr: 10,
	PredictionStartDate: "2024-03-04",
	PredictionEndDate:   "2024-03-10",
}

func TestCreateForecast(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2024, 3, 2, 6, 0, 0, 0, time.UTC)
	repo := NewForecastRepository(mock, clockwork.NewFakeClockAt(now))
	data := json.RawMessage(`[{"timestamp":1709510400000}]`)

	mock.ExpectQuery("INSERT INTO crowd_forecast").
		WithArgs(now, testWindow.DateRangeUsed, 4, 10, "2024-03-04", "2024-03-10", data).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(12)))

	f, err := repo.Create(context.Background(), testWindow, data)
	require.NoError(t, err)
	assert.Equal(t, int64(12), f.ID)
	assert.Equal(t, now, f.CreatedDate)
	assert.Equal(t, testWindow, f.ForecastWindow)
	assert.Equal(t, data, f.PredictionData)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateForecastDuplicateWindow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewForecastRepository(mock, clockwork.NewFakeClock())

	// ON CONFLICT DO NOTHING returns no row.
	mock.ExpectQuery("ON CONFLICT").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err = repo.Create(context.Background(), testWindow, json.RawMessage(`[]`))
	assert.ErrorIs(t, err, ErrDuplicateWindow)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateForecastDatabaseError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewForecastRepository(mock, clockwork.NewFakeClock())
	boom := errors.New("disk full")

	mock.ExpectQuery("INSERT INTO crowd_forecast").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(boom)

	_, err = repo.Create(context.Background(), testWindow, json.RawMessage(`[]`))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrDuplicateWindow)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindForecast(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewForecastRepository(mock, nil)
	created := time.Date(2024, 3, 2, 6, 0, 0, 0, time.UTC)
	data := []byte(`[{"timestamp":1709510400000,"predicted_client_count":3.5}]`)

	mock.ExpectQuery("ORDER BY id DESC").
		WithArgs("2024-03-04", "2024-03-10").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "created_date", "date_range_used", "number_of_weeks_used", "prediction_for_week_nr",
			"prediction_start_date", "prediction_end_date", "prediction_data",
		}).AddRow(int64(31), created, testWindow.DateRangeUsed, 4, 10, "2024-03-04", "2024-03-10", data))

	f, err := repo.Find(context.Background(), "2024-03-04", "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, int64(31), f.ID)
	assert.Equal(t, created, f.CreatedDate)
	assert.Equal(t, testWindow, f.ForecastWindow)
	assert.JSONEq(t, string(data), string(f.PredictionData))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindForecastNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewForecastRepository(mock, nil)

	mock.ExpectQuery("FROM crowd_forecast").
		WithArgs("2024-03-11", "2024-03-17").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "created_date", "date_range_used", "number_of_weeks_used", "prediction_for_week_nr",
			"prediction_start_date", "prediction_end_date", "prediction_data",
		}))

	_, err = repo.Find(context.Background(), "2024-03-11", "2024-03-17")
	assert.ErrorIs(t, err, ErrForecastNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
