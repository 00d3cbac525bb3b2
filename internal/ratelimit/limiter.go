// Package ratelimit provides a client-side request budget so one invocation
// cannot burst past the exchange's documented limits.
package ratelimit

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps a token bucket sized as requests per period.
type Limiter struct {
	bucket   *rate.Limiter
	requests int
	period   time.Duration
	metrics  metrics
}

type metrics struct {
	total   atomic.Int64
	allowed atomic.Int64
	denied  atomic.Int64
}

// New creates a Limiter allowing the given number of requests per period,
// with a burst of the full budget.
func New(requests int, period time.Duration) *Limiter {
	rps := float64(requests) / period.Seconds()
	return &Limiter{
		bucket:   rate.NewLimiter(rate.Limit(rps), requests),
		requests: requests,
		period:   period,
	}
}

// Wait blocks until a token is available or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	l.metrics.total.Add(1)
	if err := l.bucket.Wait(ctx); err != nil {
		l.metrics.denied.Add(1)
		return err
	}
	l.metrics.allowed.Add(1)
	return nil
}

// Allow reports whether a request may proceed immediately.
func (l *Limiter) Allow() bool {
	l.metrics.total.Add(1)
	allowed := l.bucket.Allow()
	if allowed {
		l.metrics.allowed.Add(1)
	} else {
		l.metrics.denied.Add(1)
	}
	return allowed
}

// SetLimit replaces the budget with the given requests per period.
func (l *Limiter) SetLimit(requests int, period time.Duration) {
	l.requests = requests
	l.period = period
	l.bucket.SetLimit(rate.Limit(float64(requests) / period.Seconds()))
}

// MetricsSnapshot is a point-in-time capture of limiter statistics.
type MetricsSnapshot struct {
	// Total is the number of checks performed.
	Total int64
	// Allowed is the number of requests that proceeded.
	Allowed int64
	// Denied is the number of requests refused or cancelled while waiting.
	Denied int64
}

// Metrics returns a snapshot of the current statistics.
func (l *Limiter) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		Total:   l.metrics.total.Load(),
		Allowed: l.metrics.allowed.Load(),
		Denied:  l.metrics.denied.Load(),
	}
}
