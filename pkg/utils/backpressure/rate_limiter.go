// Package backpressure throttles callers of expensive operations.
package backpressure

import (
	"context"
	"sync"
	"time"

	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
	"github.com/rzzdr/quant-analytics/pkg/utils/logger"
)

// TokenBucketLimiter admits rate operations per second with bursts of up
// to burst operations
type TokenBucketLimiter struct {
	rate       float64
	burst      int
	tokens     float64
	lastUpdate time.Time
	now        func() time.Time
	mutex      sync.Mutex
	log        *logger.Logger
}

func NewTokenBucketLimiter(rate float64, burst int) *TokenBucketLimiter {
	if rate <= 0 {
		rate = 1.0
	}
	if burst <= 0 {
		burst = 1
	}

	limiter := &TokenBucketLimiter{
		rate:   rate,
		burst:  burst,
		tokens: float64(burst),
		now:    time.Now,
		log:    logger.GetLogger("backpressure.token_bucket"),
	}
	limiter.lastUpdate = limiter.now()

	limiter.log.Infof("Token bucket rate limiter created with rate=%.2f, burst=%d", rate, burst)

	return limiter
}

// Allow checks if a single operation is allowed
func (tb *TokenBucketLimiter) Allow() bool {
	return tb.AllowN(1)
}

// AllowN takes n tokens if they are available
func (tb *TokenBucketLimiter) AllowN(n int) bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()
	if tb.tokens >= float64(n) {
		tb.tokens -= float64(n)
		return true
	}
	return false
}

// Wait blocks until a token is available or ctx is done
func (tb *TokenBucketLimiter) Wait(ctx context.Context) error {
	for {
		if tb.Allow() {
			return nil
		}

		select {
		case <-time.After(tb.waitTime()):
		case <-ctx.Done():
			return errors.WithType(ctx.Err(), errors.ErrorTypeResourceExhausted)
		}
	}
}

// refill adds tokens for the time elapsed since the last call
func (tb *TokenBucketLimiter) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastUpdate)
	if elapsed <= 0 {
		return
	}

	tb.tokens += elapsed.Seconds() * tb.rate
	if tb.tokens > float64(tb.burst) {
		tb.tokens = float64(tb.burst)
	}
	tb.lastUpdate = now
}

func (tb *TokenBucketLimiter) waitTime() time.Duration {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	missing := 1 - tb.tokens
	if missing <= 0 {
		return 0
	}
	wait := time.Duration(missing / tb.rate * float64(time.Second))
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	return wait
}

// Limit returns the refill rate per second
func (tb *TokenBucketLimiter) Limit() float64 {
	return tb.rate
}

// Burst returns the bucket capacity
func (tb *TokenBucketLimiter) Burst() int {
	return tb.burst
}

// TokensRemaining returns the whole tokens currently available
func (tb *TokenBucketLimiter) TokensRemaining() int {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()
	return int(tb.tokens)
}
