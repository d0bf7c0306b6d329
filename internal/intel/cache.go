package intel

import (
	"sync"
	"time"

	"github.com/jonesrussell/scamintel/internal/domain"
)

// recordCache is a TTL cache over DomainRecords that also tracks in-flight
// lookups so concurrent Gather calls for one hostname issue a single
// external lookup.
type recordCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
	flights map[string]*flight
}

type cacheEntry struct {
	rec     *domain.DomainRecord
	expires time.Time
}

type flight struct {
	done chan struct{}
	rec  *domain.DomainRecord
	err  error
}

func newRecordCache(ttl time.Duration, now func() time.Time) *recordCache {
	return &recordCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
		flights: make(map[string]*flight),
	}
}

// get returns a fresh cached record, if any.
func (c *recordCache) get(hostname string) (*domain.DomainRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[hostname]
	if !ok || c.now().After(entry.expires) {
		return nil, false
	}

	return entry.rec, true
}

// beginFlight either registers the caller as the lookup leader
// (leader=true) or blocks until the current leader finishes and returns its
// result (leader=false).
func (c *recordCache) beginFlight(hostname string) (*domain.DomainRecord, error, bool) {
	c.mu.Lock()

	if fl, inFlight := c.flights[hostname]; inFlight {
		c.mu.Unlock()
		<-fl.done

		return fl.rec, fl.err, false
	}

	c.flights[hostname] = &flight{done: make(chan struct{})}
	c.mu.Unlock()

	return nil, nil, true
}

// endFlight publishes the leader's result to waiters and caches successes.
func (c *recordCache) endFlight(hostname string, rec *domain.DomainRecord, err error) {
	c.mu.Lock()

	fl := c.flights[hostname]
	delete(c.flights, hostname)

	if err == nil && rec != nil {
		c.entries[hostname] = cacheEntry{rec: rec, expires: c.now().Add(c.ttl)}
	}

	c.mu.Unlock()

	if fl != nil {
		fl.rec = rec
		fl.err = err
		close(fl.done)
	}
}
