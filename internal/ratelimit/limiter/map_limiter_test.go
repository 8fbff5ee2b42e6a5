package limiter

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidArgs(t *testing.T) {
	assert.Nil(t, New(0, 1, time.Minute))
	assert.Nil(t, New(1, 0, time.Minute))

	var l *MapLimiter
	ok, wait := l.Allow("k", time.Now())
	assert.True(t, ok)
	assert.Zero(t, wait)
}

func TestAllow_BurstThenRefill(t *testing.T) {
	l := New(1, 2, time.Minute)
	require.NotNil(t, l)
	now := time.Unix(1_700_000_000, 0)

	ok, _ := l.Allow("a", now)
	assert.True(t, ok)
	ok, _ = l.Allow("a", now)
	assert.True(t, ok)

	ok, wait := l.Allow("a", now)
	assert.False(t, ok)
	assert.InDelta(t, time.Second, wait, float64(10*time.Millisecond))

	ok, _ = l.Allow("b", now)
	assert.True(t, ok, "keys have independent buckets")

	ok, _ = l.Allow("a", now.Add(time.Second))
	assert.True(t, ok)
}

func TestAllow_BlankKeyIsNotLimited(t *testing.T) {
	l := New(1, 1, time.Minute)
	now := time.Now()
	for i := 0; i < 5; i++ {
		ok, _ := l.Allow("  ", now)
		assert.True(t, ok)
	}
	assert.Zero(t, l.Len())
}

func TestAllow_EvictsIdleKeys(t *testing.T) {
	l := New(100, 100, time.Minute)
	start := time.Unix(1_700_000_000, 0)
	for i := 0; i < evictEvery-1; i++ {
		l.Allow(fmt.Sprintf("k%d", i), start)
	}
	require.Equal(t, evictEvery-1, l.Len())

	l.Allow("fresh", start.Add(2*time.Minute))
	assert.Equal(t, 1, l.Len())
}
