// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gateway

import (
	"context"
	"sync"
	"time"
)

// Limiter admits requests under two sliding windows: per-minute and
// per-hour. One Limiter instance is shared by every session using the same
// gateway, so all window mutations are mutex-serialized.
type Limiter struct {
	mu        sync.Mutex
	perMinute int
	perHour   int

	// Window periods. Tests shrink these to avoid real minute-long waits.
	minutePeriod time.Duration
	hourPeriod   time.Duration

	minute []time.Time
	hour   []time.Time

	now func() time.Time
}

// NewLimiter creates a limiter with the given window ceilings. Ceilings
// of zero or less disable the corresponding window.
func NewLimiter(perMinute, perHour int) *Limiter {
	return &Limiter{
		perMinute:    perMinute,
		perHour:      perHour,
		minutePeriod: time.Minute,
		hourPeriod:   time.Hour,
		now:          time.Now,
	}
}

// Acquire blocks until admitting a request keeps both windows under their
// ceilings, then records the admission in both. Admission never fails; the
// only error is context cancellation during a wait.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.minute = prune(l.minute, now.Add(-l.minutePeriod))
		l.hour = prune(l.hour, now.Add(-l.hourPeriod))

		wait := l.nextAdmission(now)
		if wait <= 0 {
			l.minute = append(l.minute, now)
			l.hour = append(l.hour, now)
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// nextAdmission returns how long until the oldest blocking timestamp
// leaves its window, or zero when both windows have room. Caller holds mu.
func (l *Limiter) nextAdmission(now time.Time) time.Duration {
	var wait time.Duration
	if l.perMinute > 0 && len(l.minute) >= l.perMinute {
		w := l.minute[0].Add(l.minutePeriod).Sub(now)
		if w > wait {
			wait = w
		}
	}
	if l.perHour > 0 && len(l.hour) >= l.perHour {
		w := l.hour[0].Add(l.hourPeriod).Sub(now)
		if w > wait {
			wait = w
		}
	}
	return wait
}

// prune drops timestamps at or before cutoff. Timestamps are appended in
// order, so the suffix after the first survivor is the surviving window.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}
