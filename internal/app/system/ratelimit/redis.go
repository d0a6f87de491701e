// internal/app/system/ratelimit/redis.go
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window limiter shared by every instance through
// Redis. The first hit in a window creates the counter and sets its TTL.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewRedis creates a limiter allowing limit hits per window for each key.
// prefix namespaces the counters (e.g. "coachhub:verify").
func NewRedis(rdb *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix, limit: int64(limit), window: window}
}

func (l *RedisLimiter) key(k string) string {
	return l.prefix + ":" + k
}

// Allow counts one hit for key and reports whether it is within the limit.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.key(key)
	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit incr: %w", err)
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("ratelimit expire: %w", err)
		}
	} else if ttl, err := l.rdb.TTL(ctx, k).Result(); err == nil && ttl < 0 {
		// Counter lost its TTL (an earlier Expire failed); restart the window.
		_ = l.rdb.Expire(ctx, k, l.window).Err()
	}
	return n <= l.limit, nil
}

// Reset clears the counter for key.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, l.key(key)).Err()
}
