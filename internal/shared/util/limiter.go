package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter with the one call pattern the enricher needs:
// wait for a single token, honoring cancellation.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter creates a token bucket limiter.
// r: tokens per second. b: burst size.
func NewLimiter(r float64, b int) *Limiter {
	if b < 1 {
		b = 1
	}
	return &Limiter{
		inner: rate.NewLimiter(rate.Limit(r), b),
	}
}

// Allow reports whether one event may happen now.
func (l *Limiter) Allow() bool {
	return l.inner.AllowN(time.Now(), 1)
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.inner.Wait(ctx)
}
