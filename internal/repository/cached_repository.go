package repository

import (
	"context"
	"strings"
	"time"

	"github.com/fakhrymubarak/weather-forecast-widget/internal/config"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/model"
	"github.com/goccy/go-json"
	redisv9 "github.com/redis/go-redis/v9"
)

// redisClient is the part of *redisv9.Client the cache needs.
type redisClient interface {
	Get(ctx context.Context, key string) *redisv9.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redisv9.StatusCmd
}

// cachedForecastRepository puts a Redis read-through cache in front of another repository
type cachedForecastRepository struct {
	next        ForecastRepository
	redisClient redisClient
	ttl         time.Duration
}

// NewCachedForecastRepository wraps next with a Redis cache holding whole
// forecasts for ttl.
func NewCachedForecastRepository(next ForecastRepository, client redisClient, ttl time.Duration) ForecastRepository {
	return &cachedForecastRepository{
		next:        next,
		redisClient: client,
		ttl:         ttl,
	}
}

// GetForecast checks the cache first, then the wrapped repository
func (r *cachedForecastRepository) GetForecast(ctx context.Context, location string) (*model.Forecast, error) {
	if cached, err := r.getFromCache(ctx, location); err == nil {
		return cached, nil
	}

	forecast, err := r.next.GetForecast(ctx, location)
	if err != nil {
		return nil, err
	}

	r.cacheForecast(ctx, location, forecast)

	return forecast, nil
}

func cacheKey(location string) string {
	return "forecast:" + strings.ToLower(strings.TrimSpace(location))
}

func (r *cachedForecastRepository) getFromCache(ctx context.Context, location string) (*model.Forecast, error) {
	val, err := r.redisClient.Get(ctx, cacheKey(location)).Result()
	if err != nil {
		return nil, err
	}

	var forecast model.Forecast
	if err := json.Unmarshal([]byte(val), &forecast); err != nil {
		return nil, err
	}

	forecast.Cached = true
	return &forecast, nil
}

func (r *cachedForecastRepository) cacheForecast(ctx context.Context, location string, forecast *model.Forecast) {
	b, err := json.Marshal(forecast)
	if err != nil {
		return
	}
	if err := r.redisClient.Set(ctx, cacheKey(location), b, r.ttl).Err(); err != nil {
		config.GetLogger().Debugw("Forecast cache write failed", "location", location, "error", err)
	}
}
