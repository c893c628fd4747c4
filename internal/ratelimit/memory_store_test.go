package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Window:      time.Minute,
		MaxRequests: 3,
		KeyPrefix:   "api",
		FailPolicy:  FailOpen,
	}
}

func TestMemoryStore_WindowFillAndDeny(t *testing.T) {
	store := NewMemoryStore(0)
	cfg := testConfig()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := store.Take(ctx, "api:ip:1.2.3.4", cfg, now)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 2-i, result.Remaining)
	}

	result, err := store.Take(ctx, "api:ip:1.2.3.4", cfg, now)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	assert.Greater(t, result.RetryAfter, 0)
	assert.LessOrEqual(t, result.RetryAfter, 60)
}

func TestMemoryStore_WindowReset(t *testing.T) {
	store := NewMemoryStore(0)
	cfg := testConfig()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Take(ctx, "api:ip:1.2.3.4", cfg, now)
		require.NoError(t, err)
	}

	// Past the reset time a new window starts with this request counted.
	later := now.Add(61 * time.Second)
	result, err := store.Take(ctx, "api:ip:1.2.3.4", cfg, later)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 2, result.Remaining)
	assert.Equal(t, later.Add(time.Minute), result.ResetTime)
}

func TestMemoryStore_KeyIsolation(t *testing.T) {
	store := NewMemoryStore(0)
	cfg := testConfig()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Take(ctx, "api:ip:1.2.3.4", cfg, now)
		require.NoError(t, err)
	}

	result, err := store.Take(ctx, "api:ip:5.6.7.8", cfg, now)
	require.NoError(t, err)
	assert.True(t, result.Allowed, "a different identifier must not be affected")
	assert.Equal(t, 2, result.Remaining)
}

func TestMemoryStore_EvictsWhenOverCap(t *testing.T) {
	store := NewMemoryStore(10)
	cfg := testConfig()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("api:ip:10.0.0.%d", i)
		// Stagger the windows so eviction has a meaningful order.
		_, err := store.Take(ctx, key, cfg, now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	assert.LessOrEqual(t, store.Len(), 10)
}
