// Package ratelimit configures token buckets in requests per minute, the
// unit API and upstream quotas are expressed in.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket sized from a per-minute quota.
type Limiter struct {
	limiter *rate.Limiter
}

// New allows requestsPerMinute with a burst of a tenth of the quota, at
// least one. Zero or less means unlimited.
func New(requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	return NewWithBurst(float64(requestsPerMinute)/60, max(requestsPerMinute/10, 1))
}

// NewWithBurst takes the rate per second directly.
func NewWithBurst(perSecond float64, burst int) *Limiter {
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks for a token, bounded by ctx. Upstream clients use it to pace
// themselves.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow takes a token if one is available.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Take takes a token if one is available now. Otherwise it reports how long
// until the next token and consumes nothing.
func (l *Limiter) Take() (bool, time.Duration) {
	r := l.limiter.Reserve()
	if !r.OK() {
		return false, time.Second
	}
	delay := r.Delay()
	if delay == 0 {
		return true, 0
	}
	r.Cancel()
	return false, delay
}
