package jwks

import (
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// keyStore holds the cached key set together with the time it was fetched.
// The set is replaced wholesale on every successful refresh and never
// mutated in place, so readers holding a snapshot are unaffected by later
// writes.
type keyStore struct {
	mu        sync.RWMutex
	set       jwk.Set
	fetchedAt time.Time
}

// snapshot returns the cached set and its fetch time. The third return
// value is false when the store has never been populated or was cleared.
func (s *keyStore) snapshot() (jwk.Set, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.set == nil {
		return nil, time.Time{}, false
	}
	return s.set, s.fetchedAt, true
}

// replace atomically publishes a freshly fetched set. fetchedAt is taken at
// write completion so the entry's age never includes the fetch itself.
func (s *keyStore) replace(set jwk.Set, fetchedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.set = set
	s.fetchedAt = fetchedAt
}

// clear empties the store, forcing the next read onto the refresh path.
func (s *keyStore) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.set = nil
	s.fetchedAt = time.Time{}
}
