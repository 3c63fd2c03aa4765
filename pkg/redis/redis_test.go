package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/tenancy/pkg/redis"
)

func TestConfig_Enabled(t *testing.T) {
	t.Parallel()
	assert.False(t, redis.Config{}.Enabled())
	assert.True(t, redis.Config{ConnectionURL: "redis://localhost:6379/0"}.Enabled())
}

func TestConnect(t *testing.T) {
	t.Parallel()

	t.Run("invalid url", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Connect(context.Background(), redis.Config{ConnectionURL: "://nope"})
		assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
	})

	t.Run("unreachable server gives up", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Connect(context.Background(), redis.Config{
			ConnectionURL:  "redis://127.0.0.1:1/0",
			RetryAttempts:  2,
			RetryInterval:  10 * time.Millisecond,
			ConnectTimeout: time.Second,
		})
		assert.ErrorIs(t, err, redis.ErrRedisNotReady)
	})

	t.Run("last failed attempt returns without waiting", func(t *testing.T) {
		t.Parallel()

		start := time.Now()
		_, err := redis.Connect(context.Background(), redis.Config{
			ConnectionURL:  "redis://127.0.0.1:1/0",
			RetryAttempts:  1,
			RetryInterval:  time.Minute,
			ConnectTimeout: 10 * time.Second,
		})
		require.ErrorIs(t, err, redis.ErrRedisNotReady)
		assert.NotErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 5*time.Second)
	})
}
