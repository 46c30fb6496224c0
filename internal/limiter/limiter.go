package limiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter blocks until the next event may proceed or ctx is done.
type RateLimiter interface {
	Wait(context.Context) error
}

func per(eventCount int, duration time.Duration) rate.Limit {
	return rate.Every(duration / time.Duration(eventCount))
}

// Interval enforces a minimum gap between consecutive events. The first
// event passes immediately. A non-positive interval disables the limit.
func Interval(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(per(1, d), 1)
}
