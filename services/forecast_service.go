package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"crowdflow/models"
	"crowdflow/observability"
	"crowdflow/predictor"
	"crowdflow/repository"
)

type SampleSource interface {
	GetSamples(ctx context.Context, dataSourceID int, start, end time.Time) ([]models.ClientSample, error)
}

type ForecastStore interface {
	Create(ctx context.Context, window models.ForecastWindow, predictionData json.RawMessage) (*models.CrowdForecast, error)
	Find(ctx context.Context, startDate, endDate string) (*models.CrowdForecast, error)
}

type Forecaster interface {
	FitPredict(train, future []predictor.FeatureRow) ([]float64, error)
	Backtest(rows []predictor.FeatureRow, holdout float64) (predictor.Evaluation, error)
}

// ForecastCache holds stored forecasts by prediction start and end date.
// Stored forecasts never change, so entries only need to expire.
type ForecastCache interface {
	GetForecast(ctx context.Context, startDate, endDate string) (*models.CrowdForecast, bool)
	SetForecast(ctx context.Context, f *models.CrowdForecast)
}

type EventPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

type ForecastOptions struct {
	DataSourceID    int
	// SampleLimit is the most readings the sample source returns for one
	// window. Reaching it means the oldest readings were left out.
	SampleLimit     int
	BaselineClients int
	Resample        time.Duration
	HorizonHours    int
	DefaultWeeks    int
	// HoldoutFraction of the training table is scored after each fit. Zero
	// disables the backtest.
	HoldoutFraction float64
}

func DefaultForecastOptions() ForecastOptions {
	return ForecastOptions{
		DataSourceID:    2,
		SampleLimit:     repository.DefaultSampleLimit,
		BaselineClients: predictor.DefaultBaselineClients,
		Resample:        time.Hour,
		HorizonHours:    predictor.DefaultHorizonHours,
		DefaultWeeks:    4,
		HoldoutFraction: 0.25,
	}
}

type PredictionRequest struct {
	// StartDate is YYYY-MM-DD. Empty means today.
	StartDate string
	// NumberOfWeeks of history to train on. Zero means the configured default.
	NumberOfWeeks int
	// AnchorOnToday keeps the history window ending at the reference date and
	// starts the forecast on today's weekday. The zero value aligns both to
	// Monday.
	AnchorOnToday bool
}

// ForecastEvent is published after a forecast is stored.
type ForecastEvent struct {
	ID                  int64     `json:"id"`
	CreatedDate         time.Time `json:"created_date"`
	DateRangeUsed       string    `json:"date_range_used"`
	PredictionForWeekNr int       `json:"prediction_for_week_nr"`
	PredictionStartDate string    `json:"prediction_start_date"`
	PredictionEndDate   string    `json:"prediction_end_date"`
}

type ForecastService struct {
	samples SampleSource
	store   ForecastStore
	model   Forecaster
	opts    ForecastOptions

	cache     ForecastCache
	publisher EventPublisher
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	tracer    trace.Tracer
}

type Option func(*ForecastService)

func WithCache(c ForecastCache) Option { return func(s *ForecastService) { s.cache = c } }

func WithPublisher(p EventPublisher) Option { return func(s *ForecastService) { s.publisher = p } }

func WithClock(c clockwork.Clock) Option { return func(s *ForecastService) { s.clock = c } }

func WithLogger(l *slog.Logger) Option { return func(s *ForecastService) { s.logger = l } }

func WithMetrics(m *observability.Metrics) Option { return func(s *ForecastService) { s.metrics = m } }

func WithTracer(t trace.Tracer) Option { return func(s *ForecastService) { s.tracer = t } }

func NewForecastService(samples SampleSource, store ForecastStore, model Forecaster, opts ForecastOptions, options ...Option) *ForecastService {
	s := &ForecastService{
		samples: samples,
		store:   store,
		model:   model,
		opts:    opts,
		clock:   clockwork.NewRealClock(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:  otel.Tracer("crowdflow/services"),
	}
	for _, o := range options {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetrics(prometheus.NewRegistry())
	}
	return s
}

// CreateNextWeekPrediction trains on the weeks before the requested start date
// and stores one forecast for the following horizon. Creating the same window
// twice fails with KindConflict and leaves the stored forecast untouched.
func (s *ForecastService) CreateNextWeekPrediction(ctx context.Context, req PredictionRequest) (*models.CrowdForecast, error) {
	started := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, "ForecastService.CreateNextWeekPrediction")
	defer span.End()

	f, err := s.createNextWeekPrediction(ctx, req)
	s.metrics.PipelineDuration.Observe(s.clock.Since(started).Seconds())
	if err != nil {
		kind := KindOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, kind.String())
		if kind == KindConflict {
			s.metrics.ForecastConflicts.Inc()
			s.logger.WarnContext(ctx, "forecast already exists", "error", err)
		} else {
			s.metrics.ForecastsFailed.WithLabelValues(kind.String()).Inc()
			s.logger.ErrorContext(ctx, "forecast creation failed", "kind", kind.String(), "error", err)
		}
		return nil, err
	}

	s.metrics.ForecastsCreated.Inc()
	if s.cache != nil {
		s.cache.SetForecast(ctx, f)
	}
	s.publish(ctx, f)

	s.logger.InfoContext(ctx, "forecast created",
		"id", f.ID,
		"date_range_used", f.DateRangeUsed,
		"prediction_start_date", f.PredictionStartDate,
		"prediction_end_date", f.PredictionEndDate,
		"week", f.PredictionForWeekNr,
	)
	return f, nil
}

func (s *ForecastService) createNextWeekPrediction(ctx context.Context, req PredictionRequest) (*models.CrowdForecast, error) {
	today := truncateDay(s.clock.Now())
	ref := today
	if req.StartDate != "" {
		d, err := ValidateDate("start_date", req.StartDate)
		if err != nil {
			return nil, err
		}
		ref = d
	}

	weeks := req.NumberOfWeeks
	if weeks == 0 {
		weeks = s.opts.DefaultWeeks
	}
	if err := validateWeeks(weeks); err != nil {
		return nil, err
	}

	histStart, histEnd := PastWeeks(ref, weeks, !req.AnchorOnToday)
	dateRange := DateRangeUsed(histStart, histEnd)

	train, err := s.trainingTable(ctx, histStart, histEnd)
	if err != nil {
		return nil, internalError(err)
	}
	if len(train) == 0 {
		return nil, &Error{
			Kind:    KindComputation,
			Message: fmt.Sprintf("Not enough data to create a forecast, no client counts found for %s", dateRange),
			Err:     predictor.ErrEmptyTrainingSet,
		}
	}

	anchor := time.Monday
	if req.AnchorOnToday {
		anchor = today.Weekday()
	}
	future, err := predictor.BuildFutureGrid(anchor, ref, s.opts.HorizonHours, predictor.Encoding{})
	if err != nil {
		return nil, internalError(err)
	}

	predicted, err := s.fitPredict(ctx, train, future)
	if err != nil {
		if errors.Is(err, predictor.ErrEmptyTrainingSet) || errors.Is(err, predictor.ErrDegenerateTrainingSet) {
			return nil, &Error{Kind: KindComputation, Message: "Unable to fit a model on the available data", Err: err}
		}
		return nil, internalError(err)
	}
	s.backtest(ctx, train)

	points := make([]models.PredictionPoint, len(future))
	for i, row := range future {
		points[i] = models.PredictionPoint{
			Timestamp:            row.Timestamp,
			DayOfWeek:            row.DayOfWeek,
			HourOfDay:            row.HourOfDay,
			IsWeekend:            row.IsWeekend,
			PredictedClientCount: predicted[i],
		}
	}
	data, err := json.Marshal(points)
	if err != nil {
		return nil, internalError(err)
	}

	first, last := future[0].Timestamp, future[len(future)-1].Timestamp
	_, week := first.ISOWeek()
	window := models.ForecastWindow{
		DateRangeUsed:       dateRange,
		NumberOfWeeksUsed:   weeks,
		PredictionForWeekNr: week,
		PredictionStartDate: first.Format(DateLayout),
		PredictionEndDate:   last.Format(DateLayout),
	}

	ctx, span := s.tracer.Start(ctx, "persist")
	defer span.End()
	f, err := s.store.Create(ctx, window, data)
	if errors.Is(err, repository.ErrDuplicateWindow) {
		return nil, &Error{
			Kind: KindConflict,
			Message: fmt.Sprintf("A forecast already exists with parameters: date_range_used: from %s - %s prediction_for_date: from %s - %s",
				histStart.Format(DateLayout), histEnd.Format(DateLayout), window.PredictionStartDate, window.PredictionEndDate),
			Err: err,
		}
	}
	if err != nil {
		return nil, internalError(err)
	}
	return f, nil
}

func (s *ForecastService) trainingTable(ctx context.Context, start, end time.Time) ([]predictor.FeatureRow, error) {
	fetchCtx, span := s.tracer.Start(ctx, "fetch_samples")
	samples, err := s.samples.GetSamples(fetchCtx, s.opts.DataSourceID, start, end)
	span.SetAttributes(attribute.Int("samples", len(samples)))
	if err != nil {
		span.End()
		return nil, err
	}
	if limit := s.opts.SampleLimit; limit > 0 && len(samples) >= limit {
		span.SetAttributes(attribute.Bool("truncated", true))
		s.logger.WarnContext(fetchCtx, "sample limit reached, oldest readings of the window not used",
			"limit", limit,
			"window_start", start,
			"oldest_used", samples[0].TS,
		)
	}
	span.End()

	_, span = s.tracer.Start(ctx, "build_training_table")
	defer span.End()
	train := predictor.BuildTrainingTable(samples, predictor.FeatureOptions{
		BaselineClients: s.opts.BaselineClients,
		Resample:        s.opts.Resample,
	})
	span.SetAttributes(attribute.Int("rows", len(train)))
	s.metrics.TrainingRows.Set(float64(len(train)))
	return train, nil
}

func (s *ForecastService) fitPredict(ctx context.Context, train, future []predictor.FeatureRow) ([]float64, error) {
	_, span := s.tracer.Start(ctx, "fit_predict")
	defer span.End()
	return s.model.FitPredict(train, future)
}

// backtest scores the model on the trailing holdout of the training table.
// The result is informational and never blocks the forecast.
func (s *ForecastService) backtest(ctx context.Context, train []predictor.FeatureRow) {
	if s.opts.HoldoutFraction <= 0 {
		return
	}
	_, span := s.tracer.Start(ctx, "backtest")
	defer span.End()

	eval, err := s.model.Backtest(train, s.opts.HoldoutFraction)
	if err != nil {
		s.logger.DebugContext(ctx, "backtest skipped", "error", err)
		return
	}
	s.metrics.BacktestMAE.Set(eval.MAE)
	s.metrics.BacktestRMSE.Set(eval.RMSE)
	s.logger.InfoContext(ctx, "backtest finished",
		"train_rows", eval.TrainRows,
		"test_rows", eval.TestRows,
		"mae", eval.MAE,
		"rmse", eval.RMSE,
	)
}

func (s *ForecastService) publish(ctx context.Context, f *models.CrowdForecast) {
	if s.publisher == nil {
		return
	}
	event := ForecastEvent{
		ID:                  f.ID,
		CreatedDate:         f.CreatedDate,
		DateRangeUsed:       f.DateRangeUsed,
		PredictionForWeekNr: f.PredictionForWeekNr,
		PredictionStartDate: f.PredictionStartDate,
		PredictionEndDate:   f.PredictionEndDate,
	}
	if err := s.publisher.Publish(ctx, ForecastChannel, event); err != nil {
		s.logger.WarnContext(ctx, "forecast publish failed", "id", f.ID, "error", err)
		return
	}
	s.metrics.ForecastsPublished.Inc()
}

// GetCrowdForecast returns the most recent forecast predicted for exactly
// startDate..endDate.
func (s *ForecastService) GetCrowdForecast(ctx context.Context, startDate, endDate string) (*models.CrowdForecast, error) {
	ctx, span := s.tracer.Start(ctx, "ForecastService.GetCrowdForecast")
	defer span.End()

	f, err := s.getCrowdForecast(ctx, startDate, endDate)
	if err != nil {
		kind := KindOf(err)
		span.SetStatus(codes.Error, kind.String())
		if kind == KindInternal {
			s.metrics.ForecastsFailed.WithLabelValues(kind.String()).Inc()
			s.logger.ErrorContext(ctx, "forecast lookup failed", "error", err)
		}
		return nil, err
	}
	return f, nil
}

func (s *ForecastService) getCrowdForecast(ctx context.Context, startDate, endDate string) (*models.CrowdForecast, error) {
	if _, err := ValidateDate("start_date", startDate); err != nil {
		return nil, err
	}
	if _, err := ValidateDate("end_date", endDate); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if f, ok := s.cache.GetForecast(ctx, startDate, endDate); ok {
			s.metrics.CacheLookups.WithLabelValues("hit").Inc()
			return f, nil
		}
		s.metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	f, err := s.store.Find(ctx, startDate, endDate)
	if errors.Is(err, repository.ErrForecastNotFound) {
		return nil, &Error{Kind: KindNotFound, Message: "Unable to find forecast for given dates.", Err: err}
	}
	if err != nil {
		return nil, internalError(err)
	}

	if s.cache != nil {
		s.cache.SetForecast(ctx, f)
	}
	return f, nil
}

// GetCrowdForecastTable returns the hourly rows of the forecast found by
// GetCrowdForecast.
func (s *ForecastService) GetCrowdForecastTable(ctx context.Context, startDate, endDate string) ([]models.PredictionPoint, error) {
	f, err := s.GetCrowdForecast(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}
	points, err := f.Points()
	if err != nil {
		s.logger.ErrorContext(ctx, "stored prediction_data is unreadable", "id", f.ID, "error", err)
		return nil, internalError(err)
	}
	return points, nil
}
