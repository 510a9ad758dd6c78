package features

import (
	"container/list"
	"crypto/sha256"
	"sync"

	"github.com/hyperjump/predicate/internal/models"
)

// Cache is an LRU cache of extracted candidate features keyed by clearance number.
// ForCandidate also stores a digest of the text the features came from, so a candidate
// whose text differs from the cached one is re-extracted rather than served stale.
type Cache struct {
	capacity int
	entries  map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
	hits     uint64
	misses   uint64
}

type cacheEntry struct {
	key    string
	digest [sha256.Size]byte
	value  Features
}

// NewCache creates a cache with the given capacity. A capacity <= 0 disables caching.
func NewCache(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached features for key if present.
func (c *Cache) Get(key string) (Features, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		c.hits++
		return elem.Value.(*cacheEntry).value, true
	}
	c.misses++
	return Features{}, false
}

// Set stores features for key, evicting the oldest entry if at capacity.
func (c *Cache) Set(key string, value Features) {
	c.set(key, [sha256.Size]byte{}, value)
}

func (c *Cache) set(key string, digest [sha256.Size]byte, value Features) {
	if c.capacity <= 0 || key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		entry.digest = digest
		entry.value = value
		return
	}

	elem := c.lru.PushFront(&cacheEntry{key: key, digest: digest, value: value})
	c.entries[key] = elem

	if c.lru.Len() > c.capacity {
		if oldest := c.lru.Back(); oldest != nil {
			c.lru.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Invalidate drops the entry for key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[key]; ok {
		c.lru.Remove(elem)
		delete(c.entries, key)
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// lookup returns the features cached for key only if they were extracted from text with
// the given digest.
func (c *Cache) lookup(key string, digest [sha256.Size]byte) (Features, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		if entry.digest == digest {
			c.lru.MoveToFront(elem)
			c.hits++
			return entry.value, true
		}
	}
	c.misses++
	return Features{}, false
}

// ForCandidate returns the candidate's features, extracting and caching them on a miss.
// A cached entry is used only when the candidate's text is unchanged. A nil cache always
// extracts.
func (c *Cache) ForCandidate(cand *models.CandidateDevice) Features {
	text := cand.Text()
	if c == nil {
		return Extract(text)
	}
	digest := sha256.Sum256([]byte(text))
	if f, ok := c.lookup(cand.KNumber, digest); ok {
		return f
	}
	f := Extract(text)
	c.set(cand.KNumber, digest, f)
	return f
}
