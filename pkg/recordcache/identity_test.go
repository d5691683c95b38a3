package recordcache

import "testing"

func TestIdentityEqual(t *testing.T) {
	a := Identity{Type: "planet", ID: "jupiter"}
	b := Identity{Type: "planet", ID: "jupiter"}
	c := Identity{Type: "planet", ID: "mars"}

	if !a.Equal(b) {
		t.Fatalf("expected %v to equal %v", a, b)
	}
	if a.Equal(c) {
		t.Fatalf("expected %v to not equal %v", a, c)
	}
}

func TestIdentityIsNull(t *testing.T) {
	if !(Identity{}).IsNull() {
		t.Fatalf("zero identity should be null")
	}
	if (Identity{Type: "planet"}).IsNull() {
		t.Fatalf("identity with a type should not be null")
	}
}

func TestRelationshipValueOneData(t *testing.T) {
	id := Identity{Type: "planet", ID: "jupiter"}
	rv := RelationshipValue{Data: id}
	got := rv.OneData()
	if got == nil || !got.Equal(id) {
		t.Fatalf("OneData() = %v, want %v", got, id)
	}

	empty := RelationshipValue{}
	if empty.OneData() != nil {
		t.Fatalf("expected nil OneData for empty relationship value")
	}

	many := RelationshipValue{Data: []Identity{id}}
	if many.OneData() != nil {
		t.Fatalf("OneData should not resolve a hasMany-shaped value")
	}
}

func TestRelationshipValueManyData(t *testing.T) {
	ids := []Identity{{Type: "moon", ID: "io"}, {Type: "moon", ID: "europa"}}
	rv := RelationshipValue{Data: ids}
	got := rv.ManyData()
	if len(got) != 2 {
		t.Fatalf("ManyData() = %v, want 2 entries", got)
	}
}

func TestIdentitySetEqualMultiset(t *testing.T) {
	a := []Identity{{Type: "moon", ID: "io"}, {Type: "moon", ID: "europa"}}
	b := []Identity{{Type: "moon", ID: "europa"}, {Type: "moon", ID: "io"}}
	if !identitySetEqual(a, b) {
		t.Fatalf("expected set-equality regardless of order")
	}

	c := []Identity{{Type: "moon", ID: "io"}, {Type: "moon", ID: "io"}}
	if identitySetEqual(a, c) {
		t.Fatalf("did not expect set-equality: duplicate does not substitute for a distinct member")
	}
}

func TestIdentitySetDiff(t *testing.T) {
	old := []Identity{{Type: "moon", ID: "io"}, {Type: "moon", ID: "europa"}}
	new_ := []Identity{{Type: "moon", ID: "europa"}, {Type: "moon", ID: "ganymede"}}

	added, removed := identitySetDiff(old, new_)
	if len(added) != 1 || added[0].ID != "ganymede" {
		t.Fatalf("added = %v, want [ganymede]", added)
	}
	if len(removed) != 1 || removed[0].ID != "io" {
		t.Fatalf("removed = %v, want [io]", removed)
	}
}

func TestRecordClone(t *testing.T) {
	r := Record{
		Identity:   Identity{Type: "planet", ID: "jupiter"},
		Keys:       map[string]string{"remoteId": "j"},
		Attributes: map[string]any{"name": "Jupiter"},
		Relationships: map[string]RelationshipValue{
			"moons": {Data: []Identity{{Type: "moon", ID: "io"}}},
		},
	}
	clone := r.Clone()
	clone.Keys["remoteId"] = "mutated"
	if r.Keys["remoteId"] != "j" {
		t.Fatalf("mutating the clone's keys mutated the original")
	}
}
