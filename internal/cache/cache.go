// Package cache keeps encoded review API responses for a short TTL. Stored
// resolutions only change when an ingest run writes, so listings and award
// counts are served from memory with weak ETags for conditional requests.
package cache

import (
	"crypto/md5"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	TTLResolutions = 5 * time.Minute
	TTLPlayerAward = 5 * time.Minute

	sweepEvery = time.Minute
)

// ResolutionsKey identifies one resolution listing query.
func ResolutionsKey(awardID, quality string, limit int) string {
	return fmt.Sprintf("resolutions:%s:%s:%d", awardID, quality, limit)
}

// PlayerAwardsKey identifies one player's award counts. The award order of
// the request does not matter; an empty list means every award.
func PlayerAwardsKey(playerID string, awardIDs []string) string {
	ids := slices.Clone(awardIDs)
	slices.Sort(ids)
	return "player_awards:" + playerID + ":" + strings.Join(slices.Compact(ids), ",")
}

type entry struct {
	data      []byte
	etag      string
	expiresAt time.Time
}

// Entry is one response body with its ETag. Hit reports whether it came
// from memory rather than from the loader.
type Entry struct {
	Data []byte
	ETag string
	Hit  bool
}

// Stats describes the cache for the health endpoint.
type Stats struct {
	Enabled bool   `json:"enabled"`
	Entries int    `json:"entries"`
	Live    int    `json:"live"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// Cache is safe for concurrent use. A disabled cache still computes ETags
// but never stores anything.
type Cache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	enabled   bool
	now       func() time.Time
	lastSweep time.Time

	hits, misses atomic.Uint64
}

func New(enabled bool) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		enabled: enabled,
		now:     time.Now,
	}
}

// Get returns the live entry for key.
func (c *Cache) Get(key string) (data []byte, etag string, ok bool) {
	if !c.enabled {
		return nil, "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, exists := c.entries[key]
	if !exists || c.now().After(e.expiresAt) {
		return nil, "", false
	}
	return e.data, e.etag, true
}

// Set stores data under key for ttl and returns its ETag. Expired entries
// are swept at most once per minute, on write.
func (c *Cache) Set(key string, data []byte, ttl time.Duration) string {
	etag := ETag(data)
	if !c.enabled {
		return etag
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if now.Sub(c.lastSweep) >= sweepEvery {
		c.sweepLocked(now)
		c.lastSweep = now
	}
	c.entries[key] = entry{data: data, etag: etag, expiresAt: now.Add(ttl)}
	return etag
}

// Fetch returns the cached entry for key, or calls load and caches its
// result. Loader errors are returned as is and nothing is stored.
func (c *Cache) Fetch(key string, ttl time.Duration, load func() ([]byte, error)) (Entry, error) {
	if data, etag, ok := c.Get(key); ok {
		c.hits.Add(1)
		return Entry{Data: data, ETag: etag, Hit: true}, nil
	}
	c.misses.Add(1)
	data, err := load()
	if err != nil {
		return Entry{}, err
	}
	return Entry{Data: data, ETag: c.Set(key, data, ttl)}, nil
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Stats{
		Enabled: c.enabled,
		Entries: len(c.entries),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
	now := c.now()
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			s.Live++
		}
	}
	return s
}

func (c *Cache) sweepLocked(now time.Time) {
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// ETag is a weak validator over the first 8 bytes of the body's MD5.
func ETag(data []byte) string {
	hash := md5.Sum(data)
	return fmt.Sprintf(`W/"%x"`, hash[:8])
}

// Matches reports whether an If-None-Match header names etag. Lists and
// the "*" wildcard are accepted.
func Matches(ifNoneMatch, etag string) bool {
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate != "" && (candidate == "*" || candidate == etag) {
			return true
		}
	}
	return false
}
