// Package ratelimit implements per-identity, per-operation-class admission
// control with a shared Redis backend and an in-process fallback.
package ratelimit

import (
	"context"
	"time"
)

// Policy decides what happens when every backend fails during a check.
type Policy string

const (
	// FailOpen admits the request when no backend can answer.
	FailOpen Policy = "open"
	// FailClosed denies the request when no backend can answer.
	FailClosed Policy = "closed"
)

// Config is the immutable per-operation-class quota definition.
type Config struct {
	Window      time.Duration
	MaxRequests int
	KeyPrefix   string
	FailPolicy  Policy
}

// Result is the outcome of a single admission check. It is never persisted.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime time.Time
	// RetryAfter is the whole-second delay to advertise on denial, zero otherwise.
	RetryAfter int
}

// Store is the strategy interface behind the limiter: one implementation per
// backend, identical external contract. Take checks and consumes one request
// slot for key as a single atomic unit.
type Store interface {
	Take(ctx context.Context, key string, cfg Config, now time.Time) (Result, error)
}

// retryAfterSeconds converts the time until reset into the whole-second delay
// advertised to callers, never less than 1 for a denial.
func retryAfterSeconds(resetTime, now time.Time) int {
	remaining := resetTime.Sub(now)
	if remaining <= 0 {
		return 1
	}
	secs := int((remaining + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
