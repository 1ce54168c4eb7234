package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"crowdflow/config"
	"crowdflow/models"
	"crowdflow/observability"
	"crowdflow/repository"
	"crowdflow/services"
)

// LiveChannel receives every newly stored sample.
const LiveChannel = "crowdflow:live"

// ClientPayload is one client-count reading as published by an access point.
type ClientPayload struct {
	TS           string `json:"ts"`
	DataSourceID int    `json:"data_source_id"`
	NoOfClients  int    `json:"no_of_clients"`
}

type sampleInserter interface {
	InsertSample(ctx context.Context, s models.ClientSample) (bool, error)
}

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

type collector struct {
	samples sampleInserter
	live    publisher
	metrics *observability.Metrics
	logger  *slog.Logger
	clock   clockwork.Clock
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("loading .env failed", "error", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("loading config failed", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format).With("service", "collector")

	if err := run(cfg, logger); err != nil {
		logger.Error("collector stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: "crowdflow-collector",
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(shutdownCtx)
	}()

	dbPool, err := pgxpool.New(ctx, cfg.Database.GetURL())
	if err != nil {
		return fmt.Errorf("db pool init failed: %w", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		return fmt.Errorf("db ping failed: %w", err)
	}

	registry := prometheus.NewRegistry()
	c := &collector{
		samples: repository.NewSampleRepository(dbPool, repository.DefaultSampleLimit),
		metrics: observability.NewMetrics(registry),
		logger:  logger,
		clock:   clockwork.NewRealClock(),
	}

	if cfg.Redis.URL != "" {
		live, err := services.NewCacheService(ctx, cfg.Redis.URL, cfg.Forecast.CacheTTL, logger)
		if err != nil {
			logger.Warn("redis unavailable, live samples will not be published", "error", err)
		} else {
			defer live.Close()
			c.live = live
			logger.Info("redis connected")
		}
	}

	go func() {
		if err := observability.Serve(ctx, cfg.Metrics.Addr, registry, logger); err != nil {
			logger.Error("metrics server failed", "error", err)
			stop()
		}
	}()

	clientID := cfg.MQTT.ClientID
	if clientID == "" {
		clientID = "collector-" + time.Now().Format("20060102150405")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTT.URL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetDefaultPublishHandler(func(_ mqtt.Client, message mqtt.Message) {
		if err := c.processMessage(ctx, message.Payload()); err != nil {
			logger.Warn("message dropped", "topic", message.Topic(), "error", err)
		}
	})
	opts.OnConnect = func(client mqtt.Client) {
		token := client.Subscribe(cfg.MQTT.Topic, 0, nil)
		token.Wait()
		if token.Error() != nil {
			logger.Error("mqtt subscribe failed", "topic", cfg.MQTT.Topic, "error", token.Error())
			return
		}
		logger.Info("collector subscribed", "topic", cfg.MQTT.Topic)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("mqtt connection failed: %w", token.Error())
	}

	logger.Info("collector running", "mqtt", cfg.MQTT.URL, "metrics", cfg.Metrics.Addr)

	<-ctx.Done()
	logger.Info("collector shutting down")
	client.Disconnect(250)
	return nil
}

// parsePayload turns a raw message into a sample. A missing ts means the
// sample was taken now.
func parsePayload(raw []byte, now time.Time) (models.ClientSample, error) {
	var payload ClientPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.ClientSample{}, fmt.Errorf("invalid payload: %w", err)
	}

	ts := now.UTC()
	if payload.TS != "" {
		parsed, err := time.Parse(time.RFC3339, payload.TS)
		if err != nil {
			return models.ClientSample{}, fmt.Errorf("invalid ts %q: %w", payload.TS, err)
		}
		ts = parsed.UTC()
	}

	if payload.DataSourceID <= 0 {
		return models.ClientSample{}, errors.New("missing data_source_id")
	}
	if payload.NoOfClients < 0 {
		return models.ClientSample{}, fmt.Errorf("negative no_of_clients %d", payload.NoOfClients)
	}

	return models.ClientSample{
		TS:           ts,
		DataSourceID: payload.DataSourceID,
		NoOfClients:  payload.NoOfClients,
	}, nil
}

func (c *collector) processMessage(ctx context.Context, raw []byte) error {
	c.metrics.SamplesReceived.Inc()

	sample, err := parsePayload(raw, c.clock.Now())
	if err != nil {
		c.metrics.SamplesFailed.Inc()
		return err
	}

	inserted, err := c.samples.InsertSample(ctx, sample)
	if err != nil {
		c.metrics.SamplesFailed.Inc()
		return err
	}
	if !inserted {
		c.logger.Debug("duplicate sample ignored", "ts", sample.TS, "data_source_id", sample.DataSourceID)
		return nil
	}
	c.metrics.SamplesStored.Inc()

	if c.live != nil {
		if err := c.live.Publish(ctx, LiveChannel, sample); err != nil {
			c.logger.Warn("live publish failed", "error", err)
		}
	}
	return nil
}
