package ratelimit

import (
	"context"
	_ "embed" // needed for go:embed
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

//go:embed sliding_window.lua
var slidingWindowScript string

var slidingWindow = redis.NewScript(slidingWindowScript)

// RedisStore implements Store on a shared Redis, using a sorted-set sliding
// window: one member per request, scored by its timestamp. More precise than
// fixed buckets, since a request at a window boundary is never double-counted.
type RedisStore struct {
	client redis.Cmdable // Cmdable keeps ClusterClient and SentinelClient usable too.
}

// NewRedisStore wraps a pre-configured redis client. Connection health is the
// caller's concern; per-call failures surface as errors for the Limiter to
// handle.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

// Take runs the whole check-and-increment as one Lua script so that
// concurrent requests across instances cannot interleave between the count
// and the insert.
func (s *RedisStore) Take(ctx context.Context, key string, cfg Config, now time.Time) (Result, error) {
	nowMs := now.UnixMilli()
	windowMs := cfg.Window.Milliseconds()
	windowStart := nowMs - windowMs

	// The member must be unique per request; two requests landing on the same
	// millisecond must both count.
	member := fmt.Sprintf("%d:%s", nowMs, uuid.NewString())

	values, err := slidingWindow.Run(ctx, s.client,
		[]string{"ratelimit:" + key},
		windowStart, nowMs, cfg.MaxRequests, windowMs, member,
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit script failed for key %s: %w", key, err)
	}
	if len(values) != 4 {
		return Result{}, fmt.Errorf("rate limit script returned %d values for key %s", len(values), key)
	}

	result := Result{
		Allowed:   values[0] == 1,
		Limit:     int(values[1]),
		Remaining: int(values[2]),
		ResetTime: time.UnixMilli(values[3]),
	}
	if !result.Allowed {
		result.RetryAfter = retryAfterSeconds(result.ResetTime, now)
	}
	return result, nil
}
