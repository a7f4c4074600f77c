package backpressure

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
)

func TestTokenBucketBurstAndRefill(t *testing.T) {
	clock := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	tb := NewTokenBucketLimiter(2, 3)
	tb.now = func() time.Time { return clock }
	tb.lastUpdate = clock

	for i := 0; i < 3; i++ {
		require.True(t, tb.Allow(), "burst token %d", i)
	}
	assert.False(t, tb.Allow())

	clock = clock.Add(500 * time.Millisecond)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	// refill never exceeds the burst
	clock = clock.Add(time.Hour)
	assert.Equal(t, 3, tb.TokensRemaining())
	assert.False(t, tb.AllowN(4))
	assert.True(t, tb.AllowN(3))
}

func TestTokenBucketDefaults(t *testing.T) {
	tb := NewTokenBucketLimiter(0, 0)
	assert.Equal(t, 1.0, tb.Limit())
	assert.Equal(t, 1, tb.Burst())
}

func TestTokenBucketWaitHonoursContext(t *testing.T) {
	tb := NewTokenBucketLimiter(0.001, 1)
	require.NoError(t, tb.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := tb.Wait(ctx)
	assert.True(t, errors.IsType(err, errors.ErrorTypeResourceExhausted))
}
