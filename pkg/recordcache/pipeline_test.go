package recordcache_test

import (
	"errors"
	"testing"

	"github.com/satishbabariya/recordcache/backends/memory"
	"github.com/satishbabariya/recordcache/internal/rerr"
	"github.com/satishbabariya/recordcache/pkg/recordcache"
)

// solarSystemSchema is the fixture schema used by the concrete end-to-end
// scenarios: planet{moons->moon hasMany inv=planet, solarSystem->solarSystem
// hasOne inv=planets}, moon{planet->planet hasOne inv=moons},
// solarSystem{planets->planet hasMany inv=solarSystem}.
func solarSystemSchema() *recordcache.StaticSchema {
	return recordcache.NewStaticSchema(map[string]recordcache.ModelDef{
		"planet": {
			Attributes: map[string]struct{}{"name": {}, "classification": {}, "order": {}},
			Keys:       map[string]struct{}{"remoteId": {}},
			Relationships: map[string]recordcache.RelationshipDef{
				"moons":       {Kind: recordcache.HasMany, Model: "moon", Inverse: "planet"},
				"solarSystem": {Kind: recordcache.HasOne, Model: "solarSystem", Inverse: "planets"},
			},
		},
		"moon": {
			Attributes: map[string]struct{}{"name": {}},
			Keys:       map[string]struct{}{},
			Relationships: map[string]recordcache.RelationshipDef{
				"planet": {Kind: recordcache.HasOne, Model: "planet", Inverse: "moons"},
			},
		},
		"solarSystem": {
			Attributes: map[string]struct{}{"name": {}},
			Keys:       map[string]struct{}{},
			Relationships: map[string]recordcache.RelationshipDef{
				"planets": {Kind: recordcache.HasMany, Model: "planet", Inverse: "solarSystem"},
			},
		},
	})
}

func newTestCache() (*recordcache.Cache, *recordcache.StaticSchema) {
	schema := solarSystemSchema()
	return recordcache.NewCache(memory.New(schema), schema), schema
}

func id(t, i string) recordcache.Identity { return recordcache.Identity{Type: t, ID: i} }

// Scenario 1: addRecord + read.
func TestScenario_AddRecordAndRead(t *testing.T) {
	c, _ := newTestCache()
	c.SetKeyMap(recordcache.NewMapKeyMap())

	jupiter := id("planet", "jupiter")
	_, err := c.Patch([]recordcache.Operation{
		recordcache.NewAddRecord(recordcache.Record{
			Identity:   jupiter,
			Keys:       map[string]string{"remoteId": "j"},
			Attributes: map[string]any{"name": "Jupiter", "classification": "gas giant"},
		}),
	})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}

	got, err := recordcache.FindRecord(c.Accessor, jupiter)
	if err != nil {
		t.Fatalf("FindRecord: %v", err)
	}
	if got.Attributes["name"] != "Jupiter" || got.Attributes["classification"] != "gas giant" {
		t.Fatalf("got = %+v", got)
	}

	resolved, ok := c.KeyMap.KeyToID("planet", "remoteId", "j")
	if !ok || resolved != "jupiter" {
		t.Fatalf("key map did not resolve remoteId 'j' to jupiter, got (%q, %v)", resolved, ok)
	}
}

// Scenario 2: replaceRecord merges fields and the inverse restores exactly
// the fields that changed.
func TestScenario_ReplaceRecordMerge(t *testing.T) {
	c, _ := newTestCache()
	jupiter := id("planet", "jupiter")
	moon1 := id("moon", "io")

	if _, err := c.Patch([]recordcache.Operation{
		recordcache.NewAddRecord(recordcache.Record{
			Identity:   jupiter,
			Attributes: map[string]any{"name": "Jupiter"},
			Relationships: map[string]recordcache.RelationshipValue{
				"moons": {Data: []recordcache.Identity{moon1}},
			},
		}),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ss1 := id("solarSystem", "ss1")
	result, err := c.Patch([]recordcache.Operation{
		recordcache.NewReplaceRecord(recordcache.Record{
			Identity:   jupiter,
			Attributes: map[string]any{"classification": "gas giant"},
			Relationships: map[string]recordcache.RelationshipValue{
				"solarSystem": {Data: ss1},
			},
		}),
	})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}

	got, _ := recordcache.FindRecord(c.Accessor, jupiter)
	if got.Attributes["name"] != "Jupiter" || got.Attributes["classification"] != "gas giant" {
		t.Fatalf("expected both attributes to survive the merge, got %+v", got.Attributes)
	}
	if got.Relationships["moons"].ManyData() == nil || got.Relationships["solarSystem"].OneData() == nil {
		t.Fatalf("expected both relationships to survive the merge, got %+v", got.Relationships)
	}

	// The inverse batch is reversed, so the primary replaceRecord's inverse
	// comes after the inverses of its injected sub-operations.
	inv := result.Inverse[len(result.Inverse)-1].(recordcache.ReplaceRecordOp)
	if inv.Record.Attributes["classification"] != nil {
		t.Fatalf("inverse should restore classification to absent/nil, got %v", inv.Record.Attributes["classification"])
	}
	if rel, ok := inv.Record.Relationships["solarSystem"]; !ok || rel.OneData() != nil {
		t.Fatalf("inverse should restore solarSystem to null, got %+v", inv.Record.Relationships["solarSystem"])
	}
}

// Scenario 3: removeFromRelatedRecords against a non-existent base record
// is a no-op; no record is synthesized.
func TestScenario_RemoveFromRelatedRecordsOnMissingBase(t *testing.T) {
	c, _ := newTestCache()
	jupiter := id("planet", "jupiter")
	moon2 := id("moon", "europa")

	if _, err := c.Patch([]recordcache.Operation{
		recordcache.NewRemoveFromRelatedRecords(jupiter, "moons", moon2),
	}); err != nil {
		t.Fatalf("Patch: %v", err)
	}

	if _, err := recordcache.FindRecord(c.Accessor, jupiter); err == nil {
		t.Fatalf("expected jupiter to remain absent")
	}
}

// Scenario 4: inverse symmetry maintained across a single insertion batch.
func TestScenario_InverseSymmetryAcrossBatch(t *testing.T) {
	c, _ := newTestCache()
	ss := id("solarSystem", "ss")
	earth := id("planet", "earth")
	jupiter := id("planet", "jupiter")
	io := id("moon", "io")

	_, err := c.Patch([]recordcache.Operation{
		recordcache.NewAddRecord(recordcache.Record{Identity: ss}),
		recordcache.NewAddRecord(recordcache.Record{
			Identity: earth,
			Relationships: map[string]recordcache.RelationshipValue{
				"solarSystem": {Data: ss},
			},
		}),
		recordcache.NewAddRecord(recordcache.Record{
			Identity: jupiter,
			Relationships: map[string]recordcache.RelationshipValue{
				"solarSystem": {Data: ss},
			},
		}),
		recordcache.NewAddRecord(recordcache.Record{
			Identity: io,
			Relationships: map[string]recordcache.RelationshipValue{
				"planet": {Data: jupiter},
			},
		}),
	})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}

	ssRecord, _ := recordcache.FindRecord(c.Accessor, ss)
	planets := ssRecord.Relationships["planets"].ManyData()
	if !recordcache.IdentitySet(planets, earth) || !recordcache.IdentitySet(planets, jupiter) || len(planets) != 2 {
		t.Fatalf("ss.planets.data = %v, want set-equal to {earth, jupiter}", planets)
	}

	jupiterRecord, _ := recordcache.FindRecord(c.Accessor, jupiter)
	moons := jupiterRecord.Relationships["moons"].ManyData()
	if len(moons) != 1 || !moons[0].Equal(io) {
		t.Fatalf("jupiter.moons.data = %v, want [io]", moons)
	}
}

// Scenario 5: removeRecord cascades, nulling out one-sided hasOne pointers.
func TestScenario_RemoveRecordCascades(t *testing.T) {
	c, _ := newTestCache()
	jupiter := id("planet", "jupiter")
	io := id("moon", "io")
	europa := id("moon", "europa")

	if _, err := c.Patch([]recordcache.Operation{
		recordcache.NewAddRecord(recordcache.Record{
			Identity: jupiter,
			Relationships: map[string]recordcache.RelationshipValue{
				"moons": {Data: []recordcache.Identity{io, europa}},
			},
		}),
		recordcache.NewAddRecord(recordcache.Record{
			Identity:      io,
			Relationships: map[string]recordcache.RelationshipValue{"planet": {Data: jupiter}},
		}),
		recordcache.NewAddRecord(recordcache.Record{
			Identity:      europa,
			Relationships: map[string]recordcache.RelationshipValue{"planet": {Data: jupiter}},
		}),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := c.Patch([]recordcache.Operation{recordcache.NewRemoveRecord(jupiter)}); err != nil {
		t.Fatalf("Patch: %v", err)
	}

	if _, err := recordcache.FindRecord(c.Accessor, jupiter); err == nil {
		t.Fatalf("expected jupiter to be absent")
	}

	ioRecord, _ := recordcache.FindRecord(c.Accessor, io)
	if ioRecord.Relationships["planet"].OneData() != nil {
		t.Fatalf("expected io.planet.data == null, got %v", ioRecord.Relationships["planet"].OneData())
	}
	europaRecord, _ := recordcache.FindRecord(c.Accessor, europa)
	if europaRecord.Relationships["planet"].OneData() != nil {
		t.Fatalf("expected europa.planet.data == null, got %v", europaRecord.Relationships["planet"].OneData())
	}

	if refs := c.Accessor.GetInverselyRelatedRecords(jupiter); len(refs) != 0 {
		t.Fatalf("expected no back-refs left for jupiter, got %v", refs)
	}
}

// An operation whose inverse is absent (a perfect no-op) leaves the
// store untouched and does not even synthesize a bare record.
func TestNoOpLeavesStoreUntouched(t *testing.T) {
	c, _ := newTestCache()
	jupiter := id("planet", "jupiter")

	if _, err := c.Patch([]recordcache.Operation{
		recordcache.NewAddRecord(recordcache.Record{Identity: jupiter, Attributes: map[string]any{"name": "Jupiter"}}),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	result, err := c.Patch([]recordcache.Operation{
		recordcache.NewAddRecord(recordcache.Record{Identity: jupiter, Attributes: map[string]any{"name": "Jupiter"}}),
	})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if len(result.Inverse) != 0 {
		t.Fatalf("expected no inverse for a perfect no-op, got %v", result.Inverse)
	}
	if result.Data[0] != nil {
		t.Fatalf("expected nil data for a no-op primary operation, got %v", result.Data[0])
	}
}

// An operation against an undeclared type fails validation and produces
// no mutation.
func TestSchemaClosureRejectsUnknownType(t *testing.T) {
	c, _ := newTestCache()
	_, err := c.Patch([]recordcache.Operation{
		recordcache.NewAddRecord(recordcache.Record{Identity: id("asteroid", "ceres")}),
	})
	if err == nil {
		t.Fatalf("expected a schema validation error for an undeclared type")
	}
	if _, err := recordcache.FindRecord(c.Accessor, id("asteroid", "ceres")); err == nil {
		t.Fatalf("expected no record to have been created")
	}
}

func TestPatchEmitsEvent(t *testing.T) {
	c, _ := newTestCache()
	var seen int
	c.On("patch", func(op recordcache.Operation, data any) {
		seen++
	})
	_, err := c.Patch([]recordcache.Operation{
		recordcache.NewAddRecord(recordcache.Record{Identity: id("planet", "mars")}),
	})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if seen != 1 {
		t.Fatalf("expected exactly one patch event for one top-level op, got %d", seen)
	}
}

// A direct removeFromRelatedRecords on a hasMany side must terminate:
// it propagates to the hasOne inverse via a peer replaceRelatedRecord,
// whose own Before hook re-derives a removeFromRelatedRecords back at
// the original side. That mirrored op must resolve as a no-op against
// already-mutated state instead of recursing without bound.
func TestScenario_RemoveFromRelatedRecordsTerminatesMutualCascade(t *testing.T) {
	c, _ := newTestCache()
	jupiter := id("planet", "jupiter")
	io := id("moon", "io")
	europa := id("moon", "europa")

	if _, err := c.Patch([]recordcache.Operation{
		recordcache.NewAddRecord(recordcache.Record{
			Identity: jupiter,
			Relationships: map[string]recordcache.RelationshipValue{
				"moons": {Data: []recordcache.Identity{io, europa}},
			},
		}),
		recordcache.NewAddRecord(recordcache.Record{
			Identity:      io,
			Relationships: map[string]recordcache.RelationshipValue{"planet": {Data: jupiter}},
		}),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := c.Patch([]recordcache.Operation{
		recordcache.NewRemoveFromRelatedRecords(jupiter, "moons", io),
	}); err != nil {
		t.Fatalf("Patch: %v", err)
	}

	jupiterRecord, _ := recordcache.FindRecord(c.Accessor, jupiter)
	moons := jupiterRecord.Relationships["moons"].ManyData()
	if recordcache.IdentitySet(moons, io) {
		t.Fatalf("expected io removed from jupiter.moons, got %v", moons)
	}
	if !recordcache.IdentitySet(moons, europa) {
		t.Fatalf("expected europa to remain in jupiter.moons, got %v", moons)
	}

	ioRecord, _ := recordcache.FindRecord(c.Accessor, io)
	if ioRecord.Relationships["planet"].OneData() != nil {
		t.Fatalf("expected io.planet.data == null, got %v", ioRecord.Relationships["planet"].OneData())
	}

	// Repeating the same removal must be a clean no-op, not a repeat
	// cascade: io is already detached on both sides.
	result, err := c.Patch([]recordcache.Operation{
		recordcache.NewRemoveFromRelatedRecords(jupiter, "moons", io),
	})
	if err != nil {
		t.Fatalf("repeat Patch: %v", err)
	}
	if len(result.Inverse) != 0 {
		t.Fatalf("expected a redundant removal to produce no inverse, got %v", result.Inverse)
	}
}

// A processor that injects an ever-different sub-operation forever
// (never reaching a no-op) must be stopped by MaxSubOperationDepth
// rather than exhausting the goroutine stack.
type runawayProcessor struct {
	calls *int
}

func (p runawayProcessor) Validate(recordcache.RecordAccessor, recordcache.SchemaView, recordcache.Operation) error {
	return nil
}
func (p runawayProcessor) Before(recordcache.RecordAccessor, recordcache.SchemaView, recordcache.Operation) []recordcache.Operation {
	return nil
}
func (p runawayProcessor) After(recordcache.RecordAccessor, recordcache.SchemaView, recordcache.Operation) []recordcache.Operation {
	return nil
}
func (p runawayProcessor) Immediate(recordcache.RecordAccessor, recordcache.SchemaView, recordcache.Operation) {
}
func (p runawayProcessor) Finally(a recordcache.RecordAccessor, schema recordcache.SchemaView, op recordcache.Operation) []recordcache.Operation {
	*p.calls++
	return []recordcache.Operation{
		recordcache.NewReplaceAttribute(id("planet", "jupiter"), "order", *p.calls),
	}
}

func TestMaxSubOperationDepthStopsRunawayInjection(t *testing.T) {
	c, _ := newTestCache()
	c.MaxSubOperationDepth = 8
	calls := 0
	c.Processors = append(c.Processors, runawayProcessor{calls: &calls})

	_, err := c.Patch([]recordcache.Operation{
		recordcache.NewAddRecord(recordcache.Record{Identity: id("planet", "jupiter")}),
	})
	if err == nil {
		t.Fatalf("expected MaxSubOperationDepth to stop an unbounded injection chain")
	}
	var depthErr *rerr.MaxSubOperationDepthExceededError
	if !errors.As(err, &depthErr) {
		t.Fatalf("expected a MaxSubOperationDepthExceededError, got %v (%T)", err, err)
	}
	if depthErr.Limit != 8 {
		t.Fatalf("expected the error to report the configured limit 8, got %d", depthErr.Limit)
	}
}

func TestInverseUndoesBatch(t *testing.T) {
	c, _ := newTestCache()
	jupiter := id("planet", "jupiter")

	result, err := c.Patch([]recordcache.Operation{
		recordcache.NewAddRecord(recordcache.Record{Identity: jupiter, Attributes: map[string]any{"name": "Jupiter"}}),
		recordcache.NewReplaceAttribute(jupiter, "name", "Jupiter (renamed)"),
	})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}

	if _, err := c.Patch(result.Inverse); err != nil {
		t.Fatalf("undo Patch: %v", err)
	}
	if _, err := recordcache.FindRecord(c.Accessor, jupiter); err == nil {
		t.Fatalf("expected undo to remove jupiter entirely")
	}
}
