package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/spf13/cobra"

	"crowdflow/config"
	"crowdflow/observability"
	"crowdflow/predictor"
	"crowdflow/repository"
	"crowdflow/services"
)

type cli struct {
	stdout io.Writer
	stderr io.Writer

	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics
	closers  []func(context.Context)
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "crowdflow",
		Short: "Crowd forecasts from Wi-Fi client counts",
		Long: `crowdflow trains a regression model on historical Wi-Fi client counts and
stores an hourly occupancy forecast for the coming week.

Example usage:
  crowdflow create                          # forecast next week from the last 4 weeks
  crowdflow create --weeks 6 --start-date 2024-03-06
  crowdflow get --start-date 2024-03-11 --end-date 2024-03-17 --raw
  crowdflow migrate                         # create or update the schema`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.AddCommand(
		newCreateCmd(c),
		newGetCmd(c),
		newWeatherCmd(c),
		newMigrateCmd(c),
		newVersionCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	c.cfg = cfg
	c.logger = observability.NewLogger(c.stderr, cfg.Log.Level, cfg.Log.Format).With("command", cmd.Name())
	c.registry = prometheus.NewRegistry()
	c.metrics = observability.NewMetrics(c.registry)

	shutdown, err := observability.InitTracer(cmd.Context(), observability.TracingConfig{
		ServiceName: "crowdflow",
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		return err
	}
	c.closers = append(c.closers, func(ctx context.Context) {
		if err := shutdown(ctx); err != nil {
			c.logger.Warn("tracer shutdown failed", "error", err)
		}
	})

	if cfg.Metrics.PushgatewayURL != "" {
		c.closers = append(c.closers, c.pushMetrics)
	}
	return nil
}

// pushMetrics hands the run's metrics to the Pushgateway; a one-shot command
// does not live long enough to be scraped.
func (c *cli) pushMetrics(ctx context.Context) {
	err := push.New(c.cfg.Metrics.PushgatewayURL, "crowdflow").
		Gatherer(c.registry).
		PushContext(ctx)
	if err != nil {
		c.logger.Warn("metrics push failed", "url", c.cfg.Metrics.PushgatewayURL, "error", err)
	}
}

func (c *cli) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i](ctx)
	}
}

func (c *cli) connect(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, c.cfg.Database.GetURL())
	if err != nil {
		return nil, fmt.Errorf("db pool init failed: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	c.closers = append(c.closers, func(context.Context) { pool.Close() })
	c.logger.Debug("db connected", "host", c.cfg.Database.Host, "db", c.cfg.Database.Name)
	return pool, nil
}

func (c *cli) forecastService(ctx context.Context) (*services.ForecastService, error) {
	pool, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	fc := c.cfg.Forecast
	model, err := predictor.NewModel(predictor.Params{
		C:         fc.C,
		Epsilon:   fc.Epsilon,
		Gamma:     fc.Gamma,
		Tolerance: predictor.DefaultParams().Tolerance,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid model parameters: %w", err)
	}

	var cache services.ForecastCache
	opts := []services.Option{
		services.WithLogger(c.logger),
		services.WithMetrics(c.metrics),
	}
	if c.cfg.Redis.URL != "" {
		shared, err := services.NewCacheService(ctx, c.cfg.Redis.URL, fc.CacheTTL, c.logger)
		if err != nil {
			c.logger.Warn("redis unavailable, forecasts will not be shared or published", "error", err)
		} else {
			c.closers = append(c.closers, func(context.Context) { _ = shared.Close() })
			cache = shared
			opts = append(opts, services.WithPublisher(shared))
		}
	}
	if cache == nil {
		local, err := services.NewLocalCache(fc.CacheSize, fc.CacheTTL, nil)
		if err != nil {
			return nil, err
		}
		cache = local
	}
	opts = append(opts, services.WithCache(cache))

	return services.NewForecastService(
		repository.NewSampleRepository(pool, fc.SampleLimit),
		repository.NewForecastRepository(pool, nil),
		model,
		services.ForecastOptions{
			DataSourceID:    fc.DataSourceID,
			SampleLimit:     fc.SampleLimit,
			BaselineClients: fc.BaselineClients,
			Resample:        fc.ResampleUnit,
			HorizonHours:    fc.HorizonHours,
			DefaultWeeks:    fc.DefaultWeeks,
			HoldoutFraction: fc.HoldoutFraction,
		},
		opts...,
	), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		// No config is needed to print the version.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "crowdflow", version)
		},
	}
}
