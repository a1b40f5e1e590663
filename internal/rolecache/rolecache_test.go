package rolecache_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nueats/api/internal/rolecache"
	"github.com/stretchr/testify/assert"
)

// fakeClock lets tests move time forward deterministically.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestSetGet(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}
	cache := rolecache.New(24*time.Hour, clock)

	id := uuid.New()
	cache.Set(id, "admin")

	role, ok := cache.Get(id)
	assert.True(t, ok)
	assert.Equal(t, "admin", role)
}

func TestGetMiss(t *testing.T) {
	cache := rolecache.New(0, nil)

	_, ok := cache.Get(uuid.New())
	assert.False(t, ok)
}

func TestTTLExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}
	cache := rolecache.New(24*time.Hour, clock)

	id := uuid.New()
	cache.Set(id, "staff")

	clock.Advance(23 * time.Hour)
	_, ok := cache.Get(id)
	assert.True(t, ok, "entry should still be live before the TTL")

	clock.Advance(2 * time.Hour)
	_, ok = cache.Get(id)
	assert.False(t, ok, "entry should expire after 24h")
}

func TestExpiryIsExactAtBoundary(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}
	cache := rolecache.New(time.Hour, clock)

	id := uuid.New()
	cache.Set(id, "admin")

	clock.Advance(time.Hour)
	_, ok := cache.Get(id)
	assert.False(t, ok, "an entry exactly at expiresAt is expired")
}

func TestSetRefreshesTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}
	cache := rolecache.New(time.Hour, clock)

	id := uuid.New()
	cache.Set(id, "admin")

	clock.Advance(50 * time.Minute)
	cache.Set(id, "admin")

	clock.Advance(50 * time.Minute)
	_, ok := cache.Get(id)
	assert.True(t, ok, "re-setting should restart the TTL window")
}

func TestClear(t *testing.T) {
	cache := rolecache.New(24*time.Hour, nil)

	a, b := uuid.New(), uuid.New()
	cache.Set(a, "admin")
	cache.Set(b, "staff")

	cache.Clear()

	_, ok := cache.Get(a)
	assert.False(t, ok)
	_, ok = cache.Get(b)
	assert.False(t, ok)
}
