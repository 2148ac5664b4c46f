package convcache

import (
	"sync"
	"time"

	"github.com/kimberlykao/gifforge/internal/settings"
)

// Key identifies one conversion result: the file identity plus every
// effective setting value. It is a comparable struct used directly as a map
// key, so equality is structural and two keys collide only when every field
// matches.
type Key struct {
	FileID      string
	FrameRate   int
	Width       int
	Dither      string
	Compression string
}

// KeyFor builds the cache key for a file under its effective settings.
func KeyFor(fileID string, s settings.Settings) Key {
	return Key{
		FileID:      fileID,
		FrameRate:   s.FrameRate,
		Width:       s.Width,
		Dither:      s.Dither,
		Compression: s.Compression,
	}
}

// Entry is one stored conversion result. Callers must treat the entry and
// its byte slice as read-only; the same entry is handed to every hit.
type Entry struct {
	Bytes      []byte
	Optimized  bool
	Elapsed    time.Duration
	ComputedAt time.Time
}

// ComputeFunc produces the conversion result for a key. It is the
// delegation to the external tool chain: a black box returning output
// bytes or a descriptive failure.
type ComputeFunc func() (*Entry, error)

// Cache memoizes conversion results per session. A compute runs while the
// cache mutex is held, so a given key's ComputeFunc is invoked at most once
// for the lifetime of the entry no matter how calls interleave. The cache
// is session-scoped; holding the lock across a compute only serializes one
// user's own work.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*Entry
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[Key]*Entry)}
}

// GetOrCompute returns the entry for key, invoking compute on a miss. The
// second return value reports whether the result came from the cache. On
// compute failure nothing is stored and the error is returned; a later
// call with the same key retries from scratch. Failures are never cached.
func (c *Cache) GetOrCompute(key Key, compute ComputeFunc) (*Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		return e, true, nil
	}

	e, err := compute()
	if err != nil {
		return nil, false, err
	}
	e.ComputedAt = time.Now()
	c.entries[key] = e
	return e, false, nil
}

// Get returns the entry for key without computing anything.
func (c *Cache) Get(key Key) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

// InvalidateFile purges every entry whose key belongs to the given file
// identity and returns how many were removed. The session layer calls this
// for each file whose effective settings changed, keeping memory bounded by
// the set of current settings instead of every combination ever tried.
func (c *Cache) InvalidateFile(fileID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k := range c.entries {
		if k.FileID == fileID {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Remove deletes a single entry and reports whether it existed.
func (c *Cache) Remove(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]*Entry)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Bytes returns the total size of all cached payloads.
func (c *Cache) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total int64
	for _, e := range c.entries {
		total += int64(len(e.Bytes))
	}
	return total
}
