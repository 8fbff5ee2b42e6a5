package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"credo/pkg/domain"
)

func TestCaller(t *testing.T) {
	ctx := context.Background()

	_, ok := Caller(ctx)
	assert.False(t, ok, "no caller on a bare context")

	addr := domain.MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	got, ok := Caller(WithCaller(ctx, addr))
	assert.True(t, ok)
	assert.Equal(t, addr, got)
}

func TestNowFallsBackToWallClock(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, fixed, Now(WithTime(context.Background(), fixed)))
	assert.WithinDuration(t, time.Now(), Now(context.Background()), time.Second)
}

func TestRequestMetadata(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithClientIP(ctx, "10.0.0.1")
	ctx = WithClientDevice(ctx, "Chrome on Linux x86_64")
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "10.0.0.1", ClientIP(ctx))
	assert.Equal(t, "Chrome on Linux x86_64", ClientDevice(ctx))
	assert.Empty(t, RequestID(context.Background()))
	assert.Empty(t, ClientDevice(context.Background()))
}
