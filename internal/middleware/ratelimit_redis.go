// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimitStore implements RateLimitStore using Redis.
// It uses a fixed window counter keyed per client, which makes limits
// consistent across multiple API instances.
//
// The store fails open: if Redis is unreachable the request is allowed,
// and the error is reported through the optional metrics instance.
type RedisRateLimitStore struct {
	client  *redis.Client
	metrics *Metrics
}

// NewRedisRateLimitStore creates a new Redis-backed rate limit store.
func NewRedisRateLimitStore(client *redis.Client) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client}
}

// WithMetrics attaches a metrics instance used to count fail-open events.
func (s *RedisRateLimitStore) WithMetrics(m *Metrics) *RedisRateLimitStore {
	s.metrics = m
	return s
}

// Allow checks if a request from the given key should be allowed.
// Implements the RateLimitStore interface.
func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, int, int) {
	redisKey := "ratelimit:" + key

	// INCR and EXPIRE in one round trip. The expiry is only set when the
	// key is created, so the window end stays fixed.
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, config.WindowDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		if s.metrics != nil {
			s.metrics.IncRateLimitRedisErrors()
		}
		// Fail open so a Redis outage does not take down the API
		return true, config.RequestsPerWindow, 0
	}

	count := int(incr.Val())
	if count <= config.RequestsPerWindow {
		return true, config.RequestsPerWindow - count, 0
	}

	// Rate limited; derive Retry-After from the key TTL
	retryAfter := int(config.WindowDuration / time.Second)
	if ttl, err := s.client.TTL(ctx, redisKey).Result(); err == nil && ttl > 0 {
		retryAfter = int(ttl / time.Second)
	}
	if retryAfter <= 0 {
		retryAfter = 1
	}
	return false, 0, retryAfter
}
