// Package querycache caches recordcache.FindRecords results keyed by the
// query shape, so the CLI's "query" subcommand can repeat a lookup against
// a large cache without re-running the full scan-and-filter pass every
// time. Adapted from the Prisma engine's SQL query-result cache: same
// LRU-with-TTL eviction policy and pattern-based invalidation, but keyed by
// a recordcache.FindRecordsQuery instead of a raw SQL string.
package querycache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/satishbabariya/recordcache/pkg/recordcache"
)

// Stats reports point-in-time cache effectiveness.
type Stats struct {
	Hits      int64
	Misses    int64
	Size      int
	MaxSize   int
	Evictions int64
	HitRate   float64
}

type entry struct {
	key       string
	records   []recordcache.Record
	expiresAt time.Time
	prev      *entry
	next      *entry
}

// Cache is an LRU cache of query results with optional per-entry TTL.
// Safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	data       map[string]*entry
	maxSize    int
	defaultTTL time.Duration
	head       *entry
	tail       *entry
	hits       int64
	misses     int64
	evictions  int64
}

// New creates a query cache holding at most maxSize entries, each expiring
// defaultTTL after insertion unless Set is called with an explicit ttl.
// A zero defaultTTL means entries never expire on their own.
func New(maxSize int, defaultTTL time.Duration) *Cache {
	return &Cache{
		data:       make(map[string]*entry),
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
	}
}

// Key derives a stable cache key from a find query: its model type, filter,
// sort, and page, hashed so that distinct query shapes cannot collide by
// coincidence while keeping the key short.
func Key(q recordcache.FindRecordsQuery) string {
	h := sha256.New()
	fmt.Fprintf(h, "type=%s", q.Type)
	if data, err := json.Marshal(q.Filter); err == nil {
		h.Write(data)
	}
	if data, err := json.Marshal(q.Sort); err == nil {
		h.Write(data)
	}
	if q.Page != nil {
		fmt.Fprintf(h, "limit=%d,offset=%d,has=%v", q.Page.Limit, q.Page.Offset, q.Page.HasLimit)
	}
	sum := hex.EncodeToString(h.Sum(nil))
	return fmt.Sprintf("%s:%s", q.Type, sum[:16])
}

// Get returns the cached records for key, if present and unexpired.
func (c *Cache) Get(key string) ([]recordcache.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if !e.expiresAt.IsZero() && timeNow().After(e.expiresAt) {
		c.remove(e)
		c.misses++
		return nil, false
	}
	c.moveToFront(e)
	c.hits++
	return e.records, true
}

// Set stores records under key. ttl of zero uses the cache's default TTL.
func (c *Cache) Set(key string, records []recordcache.Record, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl == 0 {
		ttl = c.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = timeNow().Add(ttl)
	}

	if e, exists := c.data[key]; exists {
		e.records = records
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, records: records, expiresAt: expiresAt}
	if len(c.data) >= c.maxSize {
		c.evictLRU()
	}
	c.addToFront(e)
	c.data[key] = e
}

// InvalidateType drops every cached entry for the given model type, for use
// after a recordcache.Patch call touches that type.
func (c *Cache) InvalidateType(modelType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := modelType + ":"
	var toRemove []*entry
	for key, e := range c.data {
		if strings.HasPrefix(key, prefix) {
			toRemove = append(toRemove, e)
		}
	}
	for _, e := range toRemove {
		c.remove(e)
	}
}

// Clear empties the cache and resets its counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[string]*entry)
	c.head, c.tail = nil, nil
	c.hits, c.misses, c.evictions = 0, 0, 0
}

// GetStats returns a snapshot of cache effectiveness.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	var rate float64
	if total > 0 {
		rate = float64(c.hits) / float64(total) * 100
	}
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Size:      len(c.data),
		MaxSize:   c.maxSize,
		Evictions: c.evictions,
		HitRate:   rate,
	}
}

func (c *Cache) addToFront(e *entry) {
	if c.head == nil {
		c.head, c.tail = e, e
		return
	}
	e.next = c.head
	c.head.prev = e
	c.head = e
}

func (c *Cache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *Cache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (c *Cache) remove(e *entry) {
	c.unlink(e)
	delete(c.data, e.key)
}

func (c *Cache) evictLRU() {
	if c.tail == nil {
		return
	}
	c.remove(c.tail)
	c.evictions++
}

// timeNow is a seam so tests can inject deterministic clocks without the
// cache depending on a wall-clock time.Time field directly.
var timeNow = time.Now
