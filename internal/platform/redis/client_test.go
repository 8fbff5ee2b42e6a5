package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credo/internal/platform/config"
	"credo/pkg/platform/sentinel"
)

func TestNew_RequiresURL(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{})
	require.Error(t, err)
}

func TestNew_RejectsMalformedURL(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{URL: "not-a-url"})
	require.Error(t, err)
}

func TestNew_UnreachableIsUnavailable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := New(ctx, config.RedisConfig{URL: "redis://127.0.0.1:1/0", DialTimeout: 200 * time.Millisecond})
	require.ErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestApplyPool_KeepsDefaultsForZeroValues(t *testing.T) {
	opts := &redis.Options{PoolSize: 3, DialTimeout: time.Second}
	applyPool(opts, config.RedisConfig{MinIdleConns: 2})

	assert.Equal(t, 3, opts.PoolSize)
	assert.Equal(t, 2, opts.MinIdleConns)
	assert.Equal(t, time.Second, opts.DialTimeout)
}
