package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RedisRateLimiterStore is a fixed-window limiter shared by every instance
// that talks to the same Redis.
type RedisRateLimiterStore struct {
	client *redis.Client
	limit  int64
	window time.Duration
	prefix string
	logger *zap.Logger
}

func NewRedisRateLimiterStore(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) *RedisRateLimiterStore {
	return &RedisRateLimiterStore{
		client: client,
		limit:  int64(limit),
		window: window,
		prefix: "ratelimit",
		logger: logger,
	}
}

// Allow implements echo's RateLimiterStore. Redis failures let the request through.
func (s *RedisRateLimiterStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	bucket := time.Now().UnixNano() / int64(s.window)
	key := fmt.Sprintf("%s:%s:%d", s.prefix, identifier, bucket)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("rate limiter unavailable", zap.Error(err))
		return true, nil
	}
	return incr.Val() <= s.limit, nil
}

// NewRateLimiterStore uses Redis when a client is given and an in-process
// token bucket otherwise.
func NewRateLimiterStore(client *redis.Client, perMinute, burst int, logger *zap.Logger) eMiddleware.RateLimiterStore {
	if client != nil {
		return NewRedisRateLimiterStore(client, perMinute, time.Minute, logger)
	}
	return eMiddleware.NewRateLimiterMemoryStoreWithConfig(eMiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perMinute) / 60),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
}

// RateLimitMiddleware limits requests per client IP
func RateLimitMiddleware(store eMiddleware.RateLimiterStore) echo.MiddlewareFunc {
	return eMiddleware.RateLimiterWithConfig(eMiddleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health"
		},
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}
