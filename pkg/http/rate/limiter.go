package rate

import (
	"context"

	"golang.org/x/time/rate"
)

type Limiter interface {
	Wait(context.Context) error
}

// NewLimiter returns a fixed-rate limiter. The dashboard publishes no rate
// limit headers to adjust from, so the rate is purely a client-side
// politeness cap.
func NewLimiter(limit rate.Limit, b int) Limiter {
	return rate.NewLimiter(limit, b)
}
