package jwks

import (
	"sync"
	"time"
)

// cooldownTracker records the time of the last failed background refresh
// and suppresses new background attempts for a configured interval. It is
// purely advisory: two attempts racing past it are still serialized by the
// refresh coordinator, and it never blocks a caller's read of a
// stale-but-unexpired cache.
type cooldownTracker struct {
	mu          sync.RWMutex
	interval    time.Duration
	lastFailure time.Time
}

func newCooldownTracker(interval time.Duration) *cooldownTracker {
	return &cooldownTracker{interval: interval}
}

// shouldSuppress reports whether a new background attempt should be skipped
// because the last failure is still within the cooldown interval.
func (t *cooldownTracker) shouldSuppress(now time.Time) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.lastFailure.IsZero() {
		return false
	}
	return now.Sub(t.lastFailure) < t.interval
}

// recordFailure arms the cooldown. Called only by failed background
// attempts; blocking refresh failures are paced by their own retry budget.
func (t *cooldownTracker) recordFailure(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastFailure = now
}

// recordSuccess clears any previous failure.
func (t *cooldownTracker) recordSuccess() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastFailure = time.Time{}
}
