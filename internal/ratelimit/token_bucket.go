package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// bucketEntry holds a token bucket and last access time for cleanup.
type bucketEntry struct {
	mu         sync.Mutex
	limiter    *rate.Limiter
	limit      int
	window     time.Duration
	lastAccess time.Time
}

// TokenBucketLimiter refills limit tokens evenly over each window with a burst
// of limit. It smooths traffic instead of resetting at window boundaries and is
// only used when explicitly configured.
type TokenBucketLimiter struct {
	buckets         sync.Map // map[string]*bucketEntry
	idleTTL         time.Duration
	cleanupInterval time.Duration
	logger          *slog.Logger
	now             func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Admit takes one token from the key's bucket if available.
func (t *TokenBucketLimiter) Admit(
	_ context.Context,
	routeID, clientKey string,
	limit int,
	window time.Duration,
) (Decision, error) {
	if err := validateLimit(limit, window); err != nil {
		return Decision{}, err
	}

	now := t.now()
	entry := t.getBucket(entryKey(routeID, clientKey), limit, window, now)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.lastAccess = now
	perToken := window / time.Duration(limit)

	reservation := entry.limiter.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return Decision{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    now.Add(delay),
			RetryAfter: delay,
		}, nil
	}

	tokens := entry.limiter.TokensAt(now)
	remaining := int(tokens)
	if remaining < 0 {
		remaining = 0
	}
	missing := time.Duration((float64(limit) - tokens) * float64(perToken))

	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   now.Add(missing),
	}, nil
}

// getBucket retrieves or creates the bucket for a key. A bucket whose policy
// changed is replaced.
func (t *TokenBucketLimiter) getBucket(key string, limit int, window time.Duration, now time.Time) *bucketEntry {
	if val, ok := t.buckets.Load(key); ok {
		entry := val.(*bucketEntry)
		if entry.limit == limit && entry.window == window {
			return entry
		}
	}

	every := rate.Every(window / time.Duration(limit))
	entry := &bucketEntry{
		limiter:    rate.NewLimiter(every, limit),
		limit:      limit,
		window:     window,
		lastAccess: now,
	}
	actual, loaded := t.buckets.LoadOrStore(key, entry)
	if loaded {
		existing := actual.(*bucketEntry)
		if existing.limit == limit && existing.window == window {
			return existing
		}
		t.buckets.Store(key, entry)
	}
	return entry
}

// Start launches the background goroutine that removes idle buckets.
func (t *TokenBucketLimiter) Start(ctx context.Context) {
	ctx, t.cancel = context.WithCancel(ctx)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		runCleanup(ctx, t.cleanupInterval, t.now, t.evictIdle)
	}()
}

// Close stops the cleanup goroutine and waits for it to exit.
func (t *TokenBucketLimiter) Close() error {
	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
	return nil
}

func (t *TokenBucketLimiter) evictIdle(now time.Time) {
	threshold := now.Add(-t.idleTTL)

	t.buckets.Range(func(key, value any) bool {
		entry := value.(*bucketEntry)
		entry.mu.Lock()
		shouldDelete := entry.lastAccess.Before(threshold)
		entry.mu.Unlock()

		if shouldDelete {
			t.buckets.Delete(key)
		}
		return true
	})
}

// NewTokenBucketLimiter creates a TokenBucketLimiter. Call Start to enable idle eviction.
// Non-positive durations fall back to DefaultIdleTTL and DefaultCleanupInterval.
func NewTokenBucketLimiter(idleTTL, cleanupInterval time.Duration, logger *slog.Logger) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		idleTTL:         positiveOr(idleTTL, DefaultIdleTTL),
		cleanupInterval: positiveOr(cleanupInterval, DefaultCleanupInterval),
		logger:          logger,
		now:             time.Now,
	}
}
