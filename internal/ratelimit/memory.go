package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// windowEntry is the fixed-window counter for one (routeID, clientKey) pair.
type windowEntry struct {
	mu          sync.Mutex
	windowStart time.Time
	count       int
	lastAccess  time.Time
	evicted     bool
}

// MemoryLimiter is an in-process fixed-window limiter.
//
// A window starts with the first request for a key and lasts for the policy
// window. Requests inside the window increment the counter; once it exceeds the
// limit, requests are throttled until the window expires. Across a window boundary
// a client may get up to twice the limit through.
type MemoryLimiter struct {
	entries         sync.Map // map[string]*windowEntry
	idleTTL         time.Duration
	cleanupInterval time.Duration
	logger          *slog.Logger
	now             func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Admit applies the fixed-window algorithm to the key.
func (m *MemoryLimiter) Admit(
	_ context.Context,
	routeID, clientKey string,
	limit int,
	window time.Duration,
) (Decision, error) {
	if err := validateLimit(limit, window); err != nil {
		return Decision{}, err
	}

	key := entryKey(routeID, clientKey)
	now := m.now()

	for {
		val, ok := m.entries.Load(key)
		if !ok {
			val, _ = m.entries.LoadOrStore(key, &windowEntry{})
		}
		entry := val.(*windowEntry)

		entry.mu.Lock()
		if entry.evicted {
			// Lost a race with cleanup; the next iteration stores a fresh entry.
			entry.mu.Unlock()
			continue
		}
		decision := entry.admit(now, limit, window)
		entry.mu.Unlock()

		return decision, nil
	}
}

// admit must be called with e.mu held.
func (e *windowEntry) admit(now time.Time, limit int, window time.Duration) Decision {
	e.lastAccess = now

	if e.count == 0 || now.Sub(e.windowStart) >= window {
		e.windowStart = now
		e.count = 1
		return Decision{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit - 1,
			ResetAt:   now.Add(window),
		}
	}

	e.count++
	resetAt := e.windowStart.Add(window)

	if e.count > limit {
		return Decision{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: window - now.Sub(e.windowStart),
		}
	}

	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - e.count,
		ResetAt:   resetAt,
	}
}

// Start launches the background goroutine that evicts idle counters.
func (m *MemoryLimiter) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		runCleanup(ctx, m.cleanupInterval, m.now, m.evictIdle)
	}()
}

// Close stops the cleanup goroutine and waits for it to exit.
func (m *MemoryLimiter) Close() error {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	return nil
}

// evictIdle removes counters not touched within the idle TTL.
func (m *MemoryLimiter) evictIdle(now time.Time) {
	threshold := now.Add(-m.idleTTL)
	evicted := 0

	m.entries.Range(func(key, value any) bool {
		entry := value.(*windowEntry)

		entry.mu.Lock()
		if entry.lastAccess.Before(threshold) {
			entry.evicted = true
			m.entries.Delete(key)
			evicted++
		}
		entry.mu.Unlock()

		return true
	})

	if evicted > 0 {
		m.logger.Debug("evicted idle rate limit windows", slog.Int("count", evicted))
	}
}

// NewMemoryLimiter creates a MemoryLimiter. Call Start to enable idle eviction.
// Non-positive durations fall back to DefaultIdleTTL and DefaultCleanupInterval.
func NewMemoryLimiter(idleTTL, cleanupInterval time.Duration, logger *slog.Logger) *MemoryLimiter {
	return &MemoryLimiter{
		idleTTL:         positiveOr(idleTTL, DefaultIdleTTL),
		cleanupInterval: positiveOr(cleanupInterval, DefaultCleanupInterval),
		logger:          logger,
		now:             time.Now,
	}
}
