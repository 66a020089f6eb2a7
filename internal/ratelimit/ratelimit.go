// Package ratelimit paces repeated polls of the cloud API.
package ratelimit

import (
	"context"
	"math"
	"time"

	"golang.org/x/time/rate"
)

// Limiter lets one poll through per interval. The first poll is never
// delayed.
type Limiter struct {
	limiter *rate.Limiter
}

// New uses 0 or a negative interval for no pacing.
func New(interval time.Duration) *Limiter {
	return &Limiter{limiter: rate.NewLimiter(limitFor(interval), 1)}
}

func limitFor(interval time.Duration) rate.Limit {
	if interval <= 0 {
		return rate.Inf
	}
	return rate.Every(interval)
}

// Wait blocks until the next poll is due or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow is non-blocking and reports whether a poll is due now.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// SetInterval changes the pacing at runtime, for example after the API
// answers 429.
func (l *Limiter) SetInterval(interval time.Duration) {
	l.limiter.SetLimit(limitFor(interval))
}

// Interval returns the current pacing, 0 meaning none.
func (l *Limiter) Interval() time.Duration {
	limit := l.limiter.Limit()
	if limit == rate.Inf || limit <= 0 {
		return 0
	}
	return time.Duration(math.Round(float64(time.Second) / float64(limit)))
}
