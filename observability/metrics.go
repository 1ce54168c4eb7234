package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the forecast pipeline and the
// sample collector.
type Metrics struct {
	ForecastsCreated   prometheus.Counter
	ForecastConflicts  prometheus.Counter
	ForecastsFailed    *prometheus.CounterVec // labels: kind
	PipelineDuration   prometheus.Histogram
	TrainingRows       prometheus.Gauge
	BacktestMAE        prometheus.Gauge
	BacktestRMSE       prometheus.Gauge
	ForecastsPublished prometheus.Counter
	CacheLookups       *prometheus.CounterVec // labels: result={hit,miss}

	SamplesReceived prometheus.Counter
	SamplesStored   prometheus.Counter
	SamplesFailed   prometheus.Counter
}

// NewMetrics registers every collector on reg. Tests pass a fresh
// prometheus.NewRegistry().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ForecastsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "crowdflow_forecasts_created_total",
			Help: "Total number of crowd forecasts persisted.",
		}),
		ForecastConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "crowdflow_forecast_conflicts_total",
			Help: "Total number of forecast creations rejected because the window already exists.",
		}),
		ForecastsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crowdflow_forecasts_failed_total",
			Help: "Total number of failed forecast operations by error kind.",
		}, []string{"kind"}),
		PipelineDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "crowdflow_forecast_pipeline_duration_seconds",
			Help:    "Duration of a full forecast creation.",
			Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		}),
		TrainingRows: f.NewGauge(prometheus.GaugeOpts{
			Name: "crowdflow_forecast_training_rows",
			Help: "Number of resampled rows used by the last fit.",
		}),
		BacktestMAE: f.NewGauge(prometheus.GaugeOpts{
			Name: "crowdflow_forecast_backtest_mae",
			Help: "Mean absolute error of the last holdout backtest.",
		}),
		BacktestRMSE: f.NewGauge(prometheus.GaugeOpts{
			Name: "crowdflow_forecast_backtest_rmse",
			Help: "Root mean squared error of the last holdout backtest.",
		}),
		ForecastsPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "crowdflow_forecasts_published_total",
			Help: "Total number of forecast events published to Redis.",
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crowdflow_forecast_cache_lookups_total",
			Help: "Forecast cache lookups by result.",
		}, []string{"result"}),
		SamplesReceived: f.NewCounter(prometheus.CounterOpts{
			Name: "crowdflow_collector_messages_received_total",
			Help: "Total number of MQTT messages received by collector.",
		}),
		SamplesStored: f.NewCounter(prometheus.CounterOpts{
			Name: "crowdflow_collector_samples_stored_total",
			Help: "Total number of client samples inserted into Postgres.",
		}),
		SamplesFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "crowdflow_collector_messages_failed_total",
			Help: "Total number of messages rejected or failed to store.",
		}),
	}
}
