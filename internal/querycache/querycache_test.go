package querycache

import (
	"testing"
	"time"

	"github.com/satishbabariya/recordcache/pkg/recordcache"
)

func TestSetAndGetRoundTrip(t *testing.T) {
	c := New(4, time.Hour)
	q := recordcache.FindRecordsQuery{Type: "planet"}
	key := Key(q)
	records := []recordcache.Record{{Identity: recordcache.Identity{Type: "planet", ID: "1"}}}

	c.Set(key, records, 0)
	got, ok := c.Get(key)
	if !ok || len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("Get() = %v, %v, want hit with 1 record", got, ok)
	}
}

func TestGetMissReportsStats(t *testing.T) {
	c := New(4, 0)
	if _, ok := c.Get("nope"); ok {
		t.Fatal("Get() on empty cache returned a hit")
	}
	stats := c.GetStats()
	if stats.Misses != 1 || stats.Hits != 0 {
		t.Fatalf("GetStats() = %+v, want 1 miss 0 hits", stats)
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2, 0)
	c.Set("a", nil, 0)
	c.Set("b", nil, 0)
	c.Get("a") // a is now most recently used, b is LRU
	c.Set("c", nil, 0)

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to survive eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatal("expected c to be present")
	}
}

func TestEntryExpiresAfterTTL(t *testing.T) {
	c := New(4, 0)
	now := time.Now()
	timeNow = func() time.Time { return now }
	defer func() { timeNow = time.Now }()

	c.Set("k", nil, time.Minute)
	timeNow = func() time.Time { return now.Add(2 * time.Minute) }

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected entry to have expired")
	}
	if stats := c.GetStats(); stats.Size != 0 {
		t.Fatalf("expired entry should be evicted on Get, size = %d", stats.Size)
	}
}

func TestInvalidateTypeDropsOnlyThatType(t *testing.T) {
	c := New(8, 0)
	planetQuery := recordcache.FindRecordsQuery{Type: "planet"}
	moonQuery := recordcache.FindRecordsQuery{Type: "moon"}
	c.Set(Key(planetQuery), nil, 0)
	c.Set(Key(moonQuery), nil, 0)

	c.InvalidateType("planet")

	if _, ok := c.Get(Key(planetQuery)); ok {
		t.Fatal("expected planet entry to be invalidated")
	}
	if _, ok := c.Get(Key(moonQuery)); !ok {
		t.Fatal("expected moon entry to survive")
	}
}

func TestKeyIsStableForEquivalentQueries(t *testing.T) {
	q1 := recordcache.FindRecordsQuery{Type: "planet", Page: &recordcache.Page{Limit: 10, HasLimit: true}}
	q2 := recordcache.FindRecordsQuery{Type: "planet", Page: &recordcache.Page{Limit: 10, HasLimit: true}}
	if Key(q1) != Key(q2) {
		t.Fatal("expected identical queries to produce the same key")
	}
}

func TestClearResetsStats(t *testing.T) {
	c := New(4, 0)
	c.Set("k", nil, 0)
	c.Get("k")
	c.Get("missing")
	c.Clear()

	stats := c.GetStats()
	if stats.Size != 0 || stats.Hits != 0 || stats.Misses != 0 {
		t.Fatalf("Clear() did not reset state: %+v", stats)
	}
}
