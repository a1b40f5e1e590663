// Package rolecache caches role lookups so every authorized request
// does not re-read the profile row. Entries expire after a TTL and the
// whole cache is cleared on sign-out.
package rolecache

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL matches the 24-hour persistence window of the dashboard's
// stored role cache.
const DefaultTTL = 24 * time.Hour

// Clock abstracts time.Now so TTL expiry is testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the production clock.
var SystemClock Clock = systemClock{}

type entry struct {
	role      string
	expiresAt time.Time
}

// Cache is an explicit object passed to whatever needs role lookups;
// it is not a package-level singleton.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   Clock
	entries map[uuid.UUID]entry
}

// New creates a Cache. A zero ttl falls back to DefaultTTL and a nil
// clock to SystemClock.
func New(ttl time.Duration, clock Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = SystemClock
	}
	return &Cache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[uuid.UUID]entry),
	}
}

// Get returns the cached role, or ok=false on a miss or expired entry.
func (c *Cache) Get(userID uuid.UUID) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok || !c.clock.Now().Before(e.expiresAt) {
		return "", false
	}
	return e.role, true
}

// Set stores the role with a fresh TTL.
func (c *Cache) Set(userID uuid.UUID, role string) {
	c.mu.Lock()
	c.entries[userID] = entry{role: role, expiresAt: c.clock.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Clear drops every entry. Called wholesale on sign-out.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[uuid.UUID]entry)
	c.mu.Unlock()
}
