package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig
	Forecast ForecastConfig
	Metrics  MetricsConfig
	Tracing  TracingConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// GetDSN returns the key/value form used by gorm.
func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// GetURL returns the postgres:// form used by pgxpool.
func (d DatabaseConfig) GetURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.Name,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}

type RedisConfig struct {
	// URL is optional. Empty disables the shared cache and event publishing.
	URL string
}

type MQTTConfig struct {
	URL      string
	Topic    string
	ClientID string
}

type ForecastConfig struct {
	DataSourceID    int
	SampleLimit     int
	BaselineClients int
	ResampleUnit    time.Duration
	HorizonHours    int
	DefaultWeeks    int
	HoldoutFraction float64
	C               float64
	Epsilon         float64
	Gamma           float64
	CacheTTL        time.Duration
	CacheSize       int
}

type MetricsConfig struct {
	Addr           string
	PushgatewayURL string
}

type TracingConfig struct {
	Endpoint   string
	SampleRate float64
}

type LogConfig struct {
	Level  string
	Format string
}

func LoadConfig() (*Config, error) {
	dbPort, err := getIntEnv("DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	fc, err := loadForecastConfig()
	if err != nil {
		return nil, err
	}

	sampleRate, err := getFloatEnv("OTEL_TRACES_SAMPLE_RATE", 1.0)
	if err != nil {
		return nil, fmt.Errorf("invalid OTEL_TRACES_SAMPLE_RATE: %w", err)
	}
	if sampleRate < 0 || sampleRate > 1 {
		return nil, fmt.Errorf("invalid OTEL_TRACES_SAMPLE_RATE: %v is outside [0, 1]", sampleRate)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "crowdflow"),
			Password: getEnv("DB_PASSWORD", "crowdflow_dev_password"),
			Name:     getEnv("DB_NAME", "crowdflow"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		MQTT: MQTTConfig{
			URL:      getEnv("MQTT_URL", "tcp://localhost:1883"),
			Topic:    getEnv("MQTT_TOPIC", "crowdflow/clients/+"),
			ClientID: getEnv("MQTT_CLIENT_ID", ""),
		},
		Forecast: fc,
		Metrics: MetricsConfig{
			Addr:           getEnv("METRICS_ADDR", ":8080"),
			PushgatewayURL: getEnv("METRICS_PUSHGATEWAY_URL", ""),
		},
		Tracing: TracingConfig{
			Endpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			SampleRate: sampleRate,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func loadForecastConfig() (ForecastConfig, error) {
	var fc ForecastConfig
	var err error

	ints := []struct {
		key      string
		fallback int
		min      int
		dst      *int
	}{
		{"FORECAST_DATA_SOURCE_ID", 2, 1, &fc.DataSourceID},
		{"FORECAST_SAMPLE_LIMIT", 10000, 1, &fc.SampleLimit},
		{"FORECAST_BASELINE_CLIENTS", 8, 0, &fc.BaselineClients},
		{"FORECAST_HORIZON_HOURS", 168, 1, &fc.HorizonHours},
		{"FORECAST_DEFAULT_WEEKS", 4, 1, &fc.DefaultWeeks},
		{"FORECAST_CACHE_SIZE", 128, 1, &fc.CacheSize},
	}
	for _, v := range ints {
		if *v.dst, err = getIntEnv(v.key, v.fallback); err != nil {
			return fc, fmt.Errorf("invalid %s: %w", v.key, err)
		}
		if *v.dst < v.min {
			return fc, fmt.Errorf("invalid %s: must be at least %d, got %d", v.key, v.min, *v.dst)
		}
	}

	floats := []struct {
		key      string
		fallback float64
		dst      *float64
	}{
		{"FORECAST_HOLDOUT_FRACTION", 0.25, &fc.HoldoutFraction},
		{"FORECAST_SVR_C", 100, &fc.C},
		{"FORECAST_SVR_EPSILON", 0.1, &fc.Epsilon},
		{"FORECAST_SVR_GAMMA", 1.0, &fc.Gamma},
	}
	for _, v := range floats {
		if *v.dst, err = getFloatEnv(v.key, v.fallback); err != nil {
			return fc, fmt.Errorf("invalid %s: %w", v.key, err)
		}
	}
	if fc.HoldoutFraction < 0 || fc.HoldoutFraction >= 1 {
		return fc, fmt.Errorf("invalid FORECAST_HOLDOUT_FRACTION: %v is outside [0, 1)", fc.HoldoutFraction)
	}

	if fc.ResampleUnit, err = getDurationEnv("FORECAST_RESAMPLE_UNIT", time.Hour); err != nil {
		return fc, fmt.Errorf("invalid FORECAST_RESAMPLE_UNIT: %w", err)
	}
	if fc.ResampleUnit < time.Minute {
		return fc, fmt.Errorf("invalid FORECAST_RESAMPLE_UNIT: must be at least 1m, got %s", fc.ResampleUnit)
	}
	if fc.CacheTTL, err = getDurationEnv("FORECAST_CACHE_TTL", time.Hour); err != nil {
		return fc, fmt.Errorf("invalid FORECAST_CACHE_TTL: %w", err)
	}

	return fc, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func getFloatEnv(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(value, 64)
}

func getDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
