package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryRateLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("allows requests under limit", func(t *testing.T) {
		limiter := NewMemoryRateLimiter()

		for i := 0; i < 5; i++ {
			allowed, _ := limiter.CheckLimit(ctx, "ip-1", 5, time.Minute)
			assert.True(t, allowed)
		}
		allowed, resetAt := limiter.CheckLimit(ctx, "ip-1", 5, time.Minute)
		assert.False(t, allowed)
		assert.True(t, resetAt.After(time.Now()))
	})

	t.Run("tracks keys separately", func(t *testing.T) {
		limiter := NewMemoryRateLimiter()

		for i := 0; i < 5; i++ {
			limiter.CheckLimit(ctx, "ip-a", 5, time.Minute)
		}

		allowed, _ := limiter.CheckLimit(ctx, "ip-b", 5, time.Minute)
		assert.True(t, allowed)
	})

	t.Run("window slides", func(t *testing.T) {
		now := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
		limiter := NewMemoryRateLimiter()
		limiter.now = func() time.Time { return now }

		allowed, _ := limiter.CheckLimit(ctx, "ip-c", 1, time.Minute)
		assert.True(t, allowed)
		allowed, _ = limiter.CheckLimit(ctx, "ip-c", 1, time.Minute)
		assert.False(t, allowed)

		now = now.Add(61 * time.Second)
		allowed, _ = limiter.CheckLimit(ctx, "ip-c", 1, time.Minute)
		assert.True(t, allowed)
	})

	t.Run("idle entries are dropped", func(t *testing.T) {
		now := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
		limiter := NewMemoryRateLimiter()
		limiter.now = func() time.Time { return now }
		limiter.lastCleanup = now

		limiter.CheckLimit(ctx, "ip-d", 1, time.Minute)
		now = now.Add(10 * time.Minute)
		limiter.CheckLimit(ctx, "ip-e", 1, time.Minute)

		assert.NotContains(t, limiter.store, "ip-d")
		assert.Contains(t, limiter.store, "ip-e")
	})
}
