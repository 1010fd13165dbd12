package redis

import (
	"context"
	"sync"

	"github.com/fakhrymubarak/weather-forecast-widget/internal/config"
	redisv9 "github.com/redis/go-redis/v9"
)

var (
	client *redisv9.Client
	once   sync.Once
)

// GetClient returns the process-wide Redis client backing the forecast cache.
func GetClient() *redisv9.Client {
	once.Do(func() {
		client = NewClient(config.GetRedisAddr())
	})
	return client
}

// NewClient builds a standalone client, e.g. against a miniredis address.
func NewClient(addr string) *redisv9.Client {
	return redisv9.NewClient(&redisv9.Options{
		Addr: addr,
	})
}

// Ping reports whether the cache backend is reachable.
func Ping(ctx context.Context) error {
	return GetClient().Ping(ctx).Err()
}

func GetContext() context.Context {
	return context.Background()
}

// ResetClientForTest resets the Redis client singleton. Use only in tests.
func ResetClientForTest() {
	once = sync.Once{}
	client = nil
}
