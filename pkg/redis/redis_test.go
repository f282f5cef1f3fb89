package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sensiq/coldmail/pkg/redis"
)

func TestOpen_InvalidConfig(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := redis.Open(ctx, redis.Config{})
	assert.ErrorIs(t, err, redis.ErrEmptyURL)

	_, err = redis.Open(ctx, redis.Config{URL: "http://localhost:6379"})
	assert.ErrorIs(t, err, redis.ErrInvalidURL)
}

func TestOpen_UnreachableServer(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := redis.Open(ctx, redis.Config{
		URL:           "redis://127.0.0.1:1/0",
		RetryAttempts: 1,
		RetryInterval: time.Millisecond,
		DialTimeout:   100 * time.Millisecond,
	})
	assert.ErrorIs(t, err, redis.ErrConnectionFailed)
}

func TestHealthcheck_NilClient(t *testing.T) {
	t.Parallel()

	err := redis.Healthcheck(nil)(context.Background())
	assert.ErrorIs(t, err, redis.ErrHealthcheckFailed)
}

func TestConfig_Enabled(t *testing.T) {
	t.Parallel()

	assert.False(t, redis.Config{}.Enabled())
	assert.True(t, redis.Config{URL: "redis://localhost:6379"}.Enabled())
}
