package apiauth

import (
	"sync"
	"time"
)

const (
	// DefaultRateLimitMax is the request budget per window
	DefaultRateLimitMax = 100

	// DefaultRateLimitWindow is the fixed window length
	DefaultRateLimitWindow = 60 * time.Second
)

/* RateLimiter is an approximate fixed-window limiter: a counter per
 * client identifier that resets when its window expires. Bursts around
 * a window boundary can briefly exceed the budget; that imprecision is
 * accepted in exchange for simplicity over token buckets.
 *
 * Records are never swept. The identifier space is tiny (one shared
 * portal caller plus the dev sentinel), so the map stays bounded for
 * the process lifetime.
 */
type RateLimiter struct {
	mu      sync.Mutex
	records map[string]*rateRecord
	max     int
	window  time.Duration
	now     func() time.Time
}

type rateRecord struct {
	count   int
	resetAt time.Time
}

// Decision is the outcome of a rate limit check
type Decision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// NewRateLimiter creates a limiter with the given budget. A nil clock
// means the wall clock; tests inject their own.
func NewRateLimiter(max int, window time.Duration, now func() time.Time) *RateLimiter {
	if max <= 0 {
		max = DefaultRateLimitMax
	}
	if window <= 0 {
		window = DefaultRateLimitWindow
	}
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		records: make(map[string]*rateRecord),
		max:     max,
		window:  window,
		now:     now,
	}
}

// Max returns the per-window request budget
func (l *RateLimiter) Max() int {
	return l.max
}

// Check counts a request for the identifier and decides whether it is
// within the current window's budget.
func (l *RateLimiter) Check(identifier string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	rec, ok := l.records[identifier]
	if !ok || now.After(rec.resetAt) {
		// Fresh window
		l.records[identifier] = &rateRecord{
			count:   1,
			resetAt: now.Add(l.window),
		}
		return Decision{Allowed: true, Remaining: l.max - 1, ResetIn: l.window}
	}

	if rec.count >= l.max {
		return Decision{Allowed: false, Remaining: 0, ResetIn: rec.resetAt.Sub(now)}
	}

	rec.count++
	return Decision{Allowed: true, Remaining: l.max - rec.count, ResetIn: rec.resetAt.Sub(now)}
}
