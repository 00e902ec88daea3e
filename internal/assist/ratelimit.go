package assist

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Defaults for the provider admission window. The free-tier quota this
// protects allows 5-6 requests per minute; 5/60s stays under it.
const (
	DefaultMaxRequests = 5
	DefaultRateWindow  = 60 * time.Second
	admitSafetyMargin  = 100 * time.Millisecond
)

// RateLimitStatus is a non-blocking snapshot of the admission window.
type RateLimitStatus struct {
	RequestsInWindow  int `json:"requests_in_window"`
	MaxRequests       int `json:"max_requests"`
	WindowSeconds     int `json:"window_seconds"`
	AvailableRequests int `json:"available_requests"`
}

// RateLimiter is a sliding-window admission gate for outbound provider calls.
// Acquire blocks the caller until a slot is free; it never rejects. The window
// is entirely in-memory and resets on process restart, which is fine because
// the provider-side quota it protects resets on its own schedule.
type RateLimiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	grants []time.Time // oldest first

	now func() time.Time // overridable in tests
}

// NewRateLimiter creates a limiter admitting max requests per window.
// Non-positive arguments fall back to the defaults.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	if max <= 0 {
		max = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	return &RateLimiter{max: max, window: window, now: time.Now}
}

// Acquire blocks until the request is admitted, then records the grant.
// The only error path is ctx cancellation while waiting; an admitted caller
// always gets nil. Concurrent acquisitions serialize through the internal
// lock, so no more than max grants land in any rolling window.
func (l *RateLimiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	for {
		now := l.now()
		l.evictLocked(now)

		if len(l.grants) < l.max {
			l.grants = append(l.grants, now)
			l.mu.Unlock()
			return nil
		}

		// Window full: wait until the oldest grant slides out, plus a
		// small margin to avoid boundary races, then re-check. Another
		// caller may have taken the freed slot in the meantime.
		wait := l.grants[0].Add(l.window).Sub(now) + admitSafetyMargin
		l.mu.Unlock()

		slog.Debug("rate limit reached, waiting", "wait", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		l.mu.Lock()
	}
}

// Usage returns the current window occupancy without blocking or granting.
func (l *RateLimiter) Usage() RateLimitStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.evictLocked(l.now())
	return RateLimitStatus{
		RequestsInWindow:  len(l.grants),
		MaxRequests:       l.max,
		WindowSeconds:     int(l.window / time.Second),
		AvailableRequests: max(0, l.max-len(l.grants)),
	}
}

// Reset clears all tracked grants. Administrative operation.
func (l *RateLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.grants = l.grants[:0]
}

// evictLocked drops grants older than the window. Caller holds l.mu.
func (l *RateLimiter) evictLocked(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.grants) && !l.grants[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.grants = append(l.grants[:0], l.grants[i:]...)
	}
}
