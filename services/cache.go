package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"crowdflow/models"
)

const ForecastChannel = "crowdflow:forecasts"

// CacheService is the shared Redis cache for stored forecasts and the
// publisher of forecast events. A CacheService without a client is a no-op.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCacheService(ctx context.Context, redisURL string, ttl time.Duration, logger *slog.Logger) (*CacheService, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return &CacheService{logger: logger}, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return &CacheService{logger: logger}, fmt.Errorf("redis ping failed: %w", err)
	}
	return &CacheService{client: client, ttl: ttl, logger: logger}, nil
}

func (s *CacheService) Available() bool {
	return s.client != nil
}

// Get decodes the value at key into dest. found is false on a miss.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if s.client == nil {
		return false, nil
	}
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(val, dest)
}

func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.client == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Publish(ctx context.Context, channel string, message interface{}) error {
	if s.client == nil {
		return nil
	}
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, channel, data).Err()
}

func (s *CacheService) GetForecast(ctx context.Context, startDate, endDate string) (*models.CrowdForecast, bool) {
	var f models.CrowdForecast
	found, err := s.Get(ctx, forecastKey(startDate, endDate), &f)
	if err != nil {
		s.logger.WarnContext(ctx, "forecast cache read failed", "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &f, true
}

func (s *CacheService) SetForecast(ctx context.Context, f *models.CrowdForecast) {
	key := forecastKey(f.PredictionStartDate, f.PredictionEndDate)
	if err := s.Set(ctx, key, f, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "forecast cache write failed", "key", key, "error", err)
	}
}

func (s *CacheService) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func forecastKey(startDate, endDate string) string {
	return "crowdflow:forecast:" + startDate + ":" + endDate
}
