package ratelimit

import (
	"context"
	"sync"
	"time"
)

const defaultMaxEntries = 10000

type memoryEntry struct {
	count     int
	resetTime time.Time
}

// MemoryStore implements Store as a process-local fixed-window counter. It is
// only locally consistent: across instances each process counts on its own,
// which is exactly the tradeoff accepted when the shared backend is down.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	maxEntries int
}

// NewMemoryStore creates an in-process store bounded to maxEntries tracked
// keys; zero or negative selects the default cap.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &MemoryStore{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
	}
}

// Take checks and consumes one slot under the fixed window for key.
// It never returns an error; the error slot exists to satisfy Store.
func (s *MemoryStore) Take(_ context.Context, key string, cfg Config, now time.Time) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]

	if !ok || !now.Before(entry.resetTime) {
		// First request for this key, or the window has elapsed: start a
		// fresh window with this request already counted.
		if !ok && len(s.entries) >= s.maxEntries {
			s.evict(now)
		}
		reset := now.Add(cfg.Window)
		s.entries[key] = memoryEntry{count: 1, resetTime: reset}
		return Result{
			Allowed:   true,
			Limit:     cfg.MaxRequests,
			Remaining: cfg.MaxRequests - 1,
			ResetTime: reset,
		}, nil
	}

	if entry.count >= cfg.MaxRequests {
		return Result{
			Allowed:    false,
			Limit:      cfg.MaxRequests,
			Remaining:  0,
			ResetTime:  entry.resetTime,
			RetryAfter: retryAfterSeconds(entry.resetTime, now),
		}, nil
	}

	entry.count++
	s.entries[key] = entry
	return Result{
		Allowed:   true,
		Limit:     cfg.MaxRequests,
		Remaining: cfg.MaxRequests - entry.count,
		ResetTime: entry.resetTime,
	}, nil
}

// Len reports the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// evict keeps the map bounded: expired entries go first, then the
// soonest-expiring live ones until we are back under the cap. Caller holds mu.
func (s *MemoryStore) evict(now time.Time) {
	for key, entry := range s.entries {
		if !now.Before(entry.resetTime) {
			delete(s.entries, key)
		}
	}

	for len(s.entries) >= s.maxEntries {
		var oldestKey string
		var oldestReset time.Time
		for key, entry := range s.entries {
			if oldestKey == "" || entry.resetTime.Before(oldestReset) {
				oldestKey = key
				oldestReset = entry.resetTime
			}
		}
		delete(s.entries, oldestKey)
	}
}
