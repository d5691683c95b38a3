package recordcache_test

import (
	"testing"

	"github.com/satishbabariya/recordcache/pkg/recordcache"
)

// Scenario 6: find with sort + page.
func TestScenario_FindRecordsSortAndPage(t *testing.T) {
	c, _ := newTestCache()
	_, err := c.Patch([]recordcache.Operation{
		recordcache.NewAddRecord(recordcache.Record{Identity: id("planet", "a"), Attributes: map[string]any{"order": 5}}),
		recordcache.NewAddRecord(recordcache.Record{Identity: id("planet", "b"), Attributes: map[string]any{"order": 1}}),
		recordcache.NewAddRecord(recordcache.Record{Identity: id("planet", "c"), Attributes: map[string]any{"order": 3}}),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	hasLimit := true
	got, err := recordcache.FindRecords(c.Accessor, recordcache.FindRecordsQuery{
		Type: "planet",
		Sort: []recordcache.SortSpec{{Kind: "attribute", Attribute: "order", Order: recordcache.Ascending}},
		Page: &recordcache.Page{Offset: 1, Limit: 1, HasLimit: hasLimit},
	})
	if err != nil {
		t.Fatalf("FindRecords: %v", err)
	}
	if len(got) != 1 || got[0].Attributes["order"] != 3 {
		t.Fatalf("got = %+v, want exactly the planet with order=3", got)
	}
}

func TestFindRecordsPageWithoutLimitErrors(t *testing.T) {
	c, _ := newTestCache()
	_, err := recordcache.FindRecords(c.Accessor, recordcache.FindRecordsQuery{
		Type: "planet",
		Page: &recordcache.Page{Offset: 1},
	})
	if err == nil {
		t.Fatalf("expected QueryExpressionParseError when page has no limit")
	}
}

func TestFindRecordsAttributeFilter(t *testing.T) {
	c, _ := newTestCache()
	_, err := c.Patch([]recordcache.Operation{
		recordcache.NewAddRecord(recordcache.Record{Identity: id("planet", "jupiter"), Attributes: map[string]any{"classification": "gas giant"}}),
		recordcache.NewAddRecord(recordcache.Record{Identity: id("planet", "mars"), Attributes: map[string]any{"classification": "rocky"}}),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := recordcache.FindRecords(c.Accessor, recordcache.FindRecordsQuery{
		Type:   "planet",
		Filter: []recordcache.Predicate{recordcache.AttributePredicate("classification", recordcache.OpEqual, "gas giant")},
	})
	if err != nil {
		t.Fatalf("FindRecords: %v", err)
	}
	if len(got) != 1 || got[0].ID != "jupiter" {
		t.Fatalf("got = %+v, want exactly jupiter", got)
	}
}

func TestFindRecordsRelatedRecordsSetOps(t *testing.T) {
	c, _ := newTestCache()
	io := id("moon", "io")
	europa := id("moon", "europa")
	jupiter := id("planet", "jupiter")

	_, err := c.Patch([]recordcache.Operation{
		recordcache.NewAddRecord(recordcache.Record{
			Identity:      jupiter,
			Relationships: map[string]recordcache.RelationshipValue{"moons": {Data: []recordcache.Identity{io, europa}}},
		}),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	some, err := recordcache.FindRecords(c.Accessor, recordcache.FindRecordsQuery{
		Type:   "planet",
		Filter: []recordcache.Predicate{recordcache.RelatedRecordsPredicate("moons", recordcache.SetSome, []recordcache.Identity{io})},
	})
	if err != nil || len(some) != 1 {
		t.Fatalf("some: got %+v, err %v", some, err)
	}

	none, err := recordcache.FindRecords(c.Accessor, recordcache.FindRecordsQuery{
		Type:   "planet",
		Filter: []recordcache.Predicate{recordcache.RelatedRecordsPredicate("moons", recordcache.SetNone, []recordcache.Identity{id("moon", "ganymede")})},
	})
	if err != nil || len(none) != 1 {
		t.Fatalf("none: got %+v, err %v", none, err)
	}
}

func TestFindRecordNotFound(t *testing.T) {
	c, _ := newTestCache()
	_, err := recordcache.FindRecord(c.Accessor, id("planet", "nowhere"))
	if err == nil {
		t.Fatalf("expected RecordNotFoundError")
	}
}

func TestFindRelatedRecordAndRecords(t *testing.T) {
	c, _ := newTestCache()
	jupiter := id("planet", "jupiter")
	io := id("moon", "io")

	_, err := c.Patch([]recordcache.Operation{
		recordcache.NewAddRecord(recordcache.Record{Identity: jupiter}),
		recordcache.NewAddRecord(recordcache.Record{
			Identity:      io,
			Relationships: map[string]recordcache.RelationshipValue{"planet": {Data: jupiter}},
		}),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	moons := recordcache.FindRelatedRecords(c.Accessor, jupiter, "moons")
	if len(moons) != 1 || moons[0].ID != "io" {
		t.Fatalf("moons = %+v, want [io]", moons)
	}

	planet, ok := recordcache.FindRelatedRecord(c.Accessor, io, "planet")
	if !ok || planet.ID != "jupiter" {
		t.Fatalf("planet = %+v, ok=%v, want jupiter", planet, ok)
	}
}
