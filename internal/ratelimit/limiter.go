package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// checkTimeout bounds a single shared-backend round trip. A dead Redis must
// never make the admission check itself the bottleneck.
const checkTimeout = 2 * time.Second

// Limiter is the admission-control front. It owns its backends explicitly:
// a primary Store selected at construction time and an optional in-process
// fallback consulted when the primary errors mid-flight.
type Limiter struct {
	store    Store
	fallback *MemoryStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewLimiter builds a limiter over the given primary store. fallback may be
// nil, in which case a primary failure is resolved by the class FailPolicy
// instead of a local counter.
func NewLimiter(store Store, fallback *MemoryStore, logger *slog.Logger) *Limiter {
	return &Limiter{
		store:    store,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock replaces the time source, for tests.
func (l *Limiter) SetClock(now func() time.Time) {
	l.now = now
}

// Check decides whether one more request from identifier may proceed under
// the class config. It never returns an error: backend trouble is resolved
// internally (fallback, then policy) and only ever logged.
func (l *Limiter) Check(ctx context.Context, identifier string, cfg Config) Result {
	if identifier == "" {
		// Malformed identities share one bucket rather than bypassing the limit.
		identifier = "unknown"
	}
	key := cfg.KeyPrefix + ":" + identifier
	now := l.now()

	callCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	result, err := l.store.Take(callCtx, key, cfg, now)
	if err == nil {
		return result
	}
	l.logger.Warn("shared rate limit backend failed, using fallback",
		"key_prefix", cfg.KeyPrefix, "error", err)

	if l.fallback != nil {
		result, ferr := l.fallback.Take(ctx, key, cfg, now)
		if ferr == nil {
			return result
		}
	}

	if cfg.FailPolicy == FailClosed {
		reset := now.Add(cfg.Window)
		return Result{
			Allowed:    false,
			Limit:      cfg.MaxRequests,
			Remaining:  0,
			ResetTime:  reset,
			RetryAfter: retryAfterSeconds(reset, now),
		}
	}
	return Result{
		Allowed:   true,
		Limit:     cfg.MaxRequests,
		Remaining: cfg.MaxRequests - 1,
		ResetTime: now.Add(cfg.Window),
	}
}
