package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLimiterFixedWindow(t *testing.T) {
	_, client := newTestRedis(t)
	now := time.Unix(1_700_000_000, 0)
	limiter := NewRedisLimiter(client, time.Second, func() time.Time { return now })
	rule := RateLimitRule{Rate: 1, Burst: 1}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _, err := limiter.Allow(ctx, "1.2.3.4|DEFAULT", rule)
		require.NoError(t, err)
		require.True(t, ok, "request %d should pass", i+1)
	}

	ok, retry, err := limiter.Allow(ctx, "1.2.3.4|DEFAULT", rule)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, time.Second, retry)

	now = now.Add(time.Second)
	ok, _, err = limiter.Allow(ctx, "1.2.3.4|DEFAULT", rule)
	require.NoError(t, err)
	require.True(t, ok, "new window should reset the counter")
}

func TestRedisLimiterSetsExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	now := time.Unix(1_700_000_000, 0)
	limiter := NewRedisLimiter(client, 2*time.Second, func() time.Time { return now })

	_, _, err := limiter.Allow(context.Background(), "k", RateLimitRule{Rate: 1, Burst: 1})
	require.NoError(t, err)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	require.True(t, mr.TTL(keys[0]) > 0)
}

func TestRateLimitFailsOpenWhenRedisDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr, client := newTestRedis(t)
	mr.Close()

	r := gin.New()
	r.Use(RateLimit(RateLimitConfig{
		Limiter: NewRedisLimiter(client, time.Second, nil),
		Rules:   map[string]RateLimitRule{"DEFAULT": {Rate: 1, Burst: 0}},
	}))
	r.POST("/answer", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/answer", nil))
	require.Equal(t, http.StatusOK, resp.Code)
}
