package jwks

import (
	"sync"
	"time"
)

// refreshCoordinator is the single-flight gate for key refreshes. At most
// one holder exists at a time; every release wakes all waiters by closing
// the current broadcast channel.
type refreshCoordinator struct {
	mu       sync.Mutex
	inFlight bool
	done     chan struct{}
}

func newRefreshCoordinator() *refreshCoordinator {
	// Start with a closed channel so a waiter that races a release (or
	// waits when nothing is in flight) wakes immediately and re-reads the
	// store instead of blocking until its timeout.
	done := make(chan struct{})
	close(done)

	return &refreshCoordinator{done: done}
}

// tryAcquire attempts to take the refresh lock without blocking. The holder
// must pair every acquire with releaseAndNotify on every exit path.
func (c *refreshCoordinator) tryAcquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight {
		return false
	}
	c.inFlight = true
	c.done = make(chan struct{})

	return true
}

// releaseAndNotify clears the in-flight flag and wakes every waiter. It is
// safe to call when the lock is not held, so holders can defer it
// unconditionally.
func (c *refreshCoordinator) releaseAndNotify() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.inFlight {
		return
	}
	c.inFlight = false
	close(c.done)
}

// waitForCompletion blocks until the in-flight refresh releases or the
// timeout elapses. It reports true when notified; the caller must re-read
// the store either way, since a notification only means the refresh ended,
// not that it succeeded.
func (c *refreshCoordinator) waitForCompletion(timeout time.Duration) bool {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
