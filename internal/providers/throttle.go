package providers

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle enforces the fixed pause between outbound provider calls. One
// Throttle is shared by the whole chain so the delay applies across
// providers, not per provider.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle creates a Throttle allowing one call every delay. A zero or
// negative delay disables throttling.
func NewThrottle(delay time.Duration) *Throttle {
	if delay <= 0 {
		return &Throttle{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

// Wait blocks until the next call is allowed or the context is done.
func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}
