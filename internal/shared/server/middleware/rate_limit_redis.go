package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window limiter shared by every process using the same Redis.
// A window allows floor(rate*window)+burst requests per key.
type RedisLimiter struct {
	client *redis.Client
	window time.Duration
	now    func() time.Time
}

// NewRedisLimiter constructs a RedisLimiter. Windows shorter than a second are rounded up.
func NewRedisLimiter(client *redis.Client, window time.Duration, now func() time.Time) *RedisLimiter {
	if window < time.Second {
		window = time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &RedisLimiter{client: client, window: window, now: now}
}

// Name identifies the limiter in metrics.
func (l *RedisLimiter) Name() string { return "redis" }

// Allow increments the per-window counter for key.
func (l *RedisLimiter) Allow(ctx context.Context, key string, rule RateLimitRule) (bool, time.Duration, error) {
	if rule.Rate <= 0 && rule.Burst <= 0 {
		return true, 0, nil
	}
	windowSeconds := int64(l.window / time.Second)
	allowed := int64(rule.Rate*float64(windowSeconds)) + int64(rule.Burst)

	now := l.now()
	bucket := now.Unix() / windowSeconds
	redisKey := fmt.Sprintf("rl:%s:%d", key, bucket)

	cnt, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis incr: %w", err)
	}
	if cnt == 1 {
		_ = l.client.Expire(ctx, redisKey, l.window+time.Second).Err()
	}
	if cnt > allowed {
		windowEnd := time.Unix((bucket+1)*windowSeconds, 0)
		return false, windowEnd.Sub(now), nil
	}
	return true, 0, nil
}
