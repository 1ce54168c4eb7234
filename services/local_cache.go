package services

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"

	"crowdflow/models"
)

// LocalCache is an in-process forecast cache bounded by size and entry age.
type LocalCache struct {
	mu    sync.Mutex
	cache *lru.Cache[string, localEntry]
	ttl   time.Duration
	clock clockwork.Clock
}

type localEntry struct {
	forecast  *models.CrowdForecast
	expiresAt time.Time
}

func NewLocalCache(size int, ttl time.Duration, clock clockwork.Clock) (*LocalCache, error) {
	cache, err := lru.New[string, localEntry](size)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &LocalCache{cache: cache, ttl: ttl, clock: clock}, nil
}

func (c *LocalCache) GetForecast(_ context.Context, startDate, endDate string) (*models.CrowdForecast, bool) {
	key := forecastKey(startDate, endDate)

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && !c.clock.Now().Before(e.expiresAt) {
		c.cache.Remove(key)
		return nil, false
	}
	return e.forecast, true
}

func (c *LocalCache) SetForecast(_ context.Context, f *models.CrowdForecast) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Add(forecastKey(f.PredictionStartDate, f.PredictionEndDate), localEntry{
		forecast:  f,
		expiresAt: c.clock.Now().Add(c.ttl),
	})
}

func (c *LocalCache) Len() int {
	return c.cache.Len()
}
