// Package ratelimit provides per-route, per-client request throttling.
//
// The default MemoryLimiter is a fixed-window counter kept in process memory.
// RedisLimiter applies the same fixed-window semantic against a shared Redis
// instance for multi-instance deployments. TokenBucketLimiter is an opt-in
// alternative algorithm backed by golang.org/x/time/rate.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// Fallbacks for non-positive idle TTL and cleanup interval settings.
const (
	DefaultIdleTTL         = 30 * time.Minute
	DefaultCleanupInterval = 5 * time.Minute
)

// ErrInvalidLimit is returned when a limit or window is not positive.
var ErrInvalidLimit = apperrors.New("rate limit and window must be positive")

// Decision is the outcome of a single admission check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration // zero when Allowed
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds, at least 1
// for a throttled decision.
func (d Decision) RetryAfterSeconds() int {
	if d.Allowed {
		return 0
	}
	seconds := int(math.Ceil(d.RetryAfter.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}

// Limiter admits or throttles a request for the (routeID, clientKey) pair.
type Limiter interface {
	Admit(ctx context.Context, routeID, clientKey string, limit int, window time.Duration) (Decision, error)
}

func validateLimit(limit int, window time.Duration) error {
	if limit <= 0 || window <= 0 {
		return ErrInvalidLimit
	}
	return nil
}

// entryKey builds the counter key. The NUL separator cannot appear in route names
// or client keys derived from identities and IPs.
func entryKey(routeID, clientKey string) string {
	return routeID + "\x00" + clientKey
}

// positiveOr returns d, or fallback when d is not positive.
func positiveOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// runCleanup calls sweep every interval until ctx is done. interval must be positive.
func runCleanup(ctx context.Context, interval time.Duration, now func() time.Time, sweep func(now time.Time)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep(now())
		}
	}
}

// ThrottledError reports a throttled request together with its decision.
type ThrottledError struct {
	Decision
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("rate limited: retry after %ds", e.RetryAfterSeconds())
}

// Unwrap makes the error match errors.ErrRateLimited.
func (e *ThrottledError) Unwrap() error {
	return apperrors.ErrRateLimited
}
