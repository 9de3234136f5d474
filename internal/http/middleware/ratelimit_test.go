package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterRefills(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	rl := NewMemoryLimiter(1, 2)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := rl.Allow(ctx, "1.2.3.4")
	assert.False(t, ok, "burst exhausted")

	ok, _ = rl.Allow(ctx, "5.6.7.8")
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Second)
	ok, _ = rl.Allow(ctx, "1.2.3.4")
	assert.True(t, ok, "one token refilled")
}

func TestMemoryLimiterEvict(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	rl := NewMemoryLimiter(1, 1)
	rl.now = func() time.Time { return now }
	_, _ = rl.Allow(context.Background(), "old")

	assert.Equal(t, 1, rl.evict(now.Add(time.Minute)))
	assert.Equal(t, 0, rl.evict(now.Add(time.Minute)))
}

func TestRedisLimiterSharedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	rl := NewRedisLimiter(client, 2, time.Hour)
	ctx := context.Background()

	ok, err := rl.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = rl.Allow(ctx, "1.2.3.4")
	assert.True(t, ok)
	ok, _ = rl.Allow(ctx, "1.2.3.4")
	assert.False(t, ok)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Positive(t, mr.TTL(keys[0]))
}

func TestRedisLimiterError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err := NewRedisLimiter(client, 1, time.Second).Allow(context.Background(), "k")
	assert.Error(t, err)
}

type limiterFunc func(ctx context.Context, key string) (bool, error)

func (f limiterFunc) Allow(ctx context.Context, key string) (bool, error) { return f(ctx, key) }

func TestRateLimitMiddleware(t *testing.T) {
	var seen string
	deny := limiterFunc(func(_ context.Context, key string) (bool, error) {
		seen = key
		return false, nil
	})

	req := httptest.NewRequest(http.MethodPost, "/api/send-booking-notification", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	rec := httptest.NewRecorder()
	RateLimit(deny, nil)(okHandler(nil)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "10.0.0.7", seen)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	req.Header.Set("X-Real-Ip", "203.0.113.9")
	RateLimit(deny, nil)(okHandler(nil)).ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "203.0.113.9", seen)
}

func TestRateLimitFailsOpen(t *testing.T) {
	broken := limiterFunc(func(context.Context, string) (bool, error) {
		return false, errors.New("redis down")
	})
	called := false
	rec := httptest.NewRecorder()
	RateLimit(broken, nil)(okHandler(&called)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}
