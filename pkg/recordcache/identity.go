// Package recordcache implements a synchronous, in-memory record-graph
// cache: a store of normalized entities linked by typed relationships,
// where every mutation is reified as an operation, applied through a fixed
// pipeline that validates it, derives an exact inverse, maintains
// reverse-reference indices, and upholds schema-declared invariants.
package recordcache

// Identity is a (type, id) pair. Equality is component-wise. The zero
// value is the "null" identity and equals only itself.
type Identity struct {
	Type string
	ID   string
}

// IsNull reports whether this is the null identity.
func (id Identity) IsNull() bool {
	return id.Type == "" && id.ID == ""
}

// Equal reports component-wise equality.
func (id Identity) Equal(other Identity) bool {
	return id.Type == other.Type && id.ID == other.ID
}

// IdentitySet returns true if needle appears in haystack.
func IdentitySet(haystack []Identity, needle Identity) bool {
	for _, h := range haystack {
		if h.Equal(needle) {
			return true
		}
	}
	return false
}

// RelationshipValue wraps the data of a single relationship. For a
// hasOne relationship Data is either an Identity or nil. For a hasMany
// relationship Data is an ordered []Identity (duplicates preserved on
// input; equality tests on hasMany data treat the sequence as a multiset,
// see identitySetEqual).
type RelationshipValue struct {
	Data any
}

// OneData returns the hasOne identity pointer, or nil if Data is absent
// or not hasOne-shaped.
func (r RelationshipValue) OneData() *Identity {
	switch v := r.Data.(type) {
	case Identity:
		cp := v
		return &cp
	case *Identity:
		return v
	default:
		return nil
	}
}

// ManyData returns the hasMany identity sequence, or nil if Data is
// absent or not hasMany-shaped.
func (r RelationshipValue) ManyData() []Identity {
	if v, ok := r.Data.([]Identity); ok {
		return v
	}
	return nil
}

// Record is an identity plus optional keys/attributes/relationships
// maps. All three maps are opaque to the core except for relationship
// values, which the pipeline interprets.
type Record struct {
	Identity
	Keys          map[string]string
	Attributes    map[string]any
	Relationships map[string]RelationshipValue
}

// Clone returns a deep-enough copy of r: the top-level maps are copied,
// but relationship Data slices are not (they're replaced wholesale by
// every operator that touches them, never mutated in place).
func (r Record) Clone() Record {
	out := Record{Identity: r.Identity}
	if r.Keys != nil {
		out.Keys = make(map[string]string, len(r.Keys))
		for k, v := range r.Keys {
			out.Keys[k] = v
		}
	}
	if r.Attributes != nil {
		out.Attributes = make(map[string]any, len(r.Attributes))
		for k, v := range r.Attributes {
			out.Attributes[k] = v
		}
	}
	if r.Relationships != nil {
		out.Relationships = make(map[string]RelationshipValue, len(r.Relationships))
		for k, v := range r.Relationships {
			out.Relationships[k] = v
		}
	}
	return out
}

// bareRecord synthesizes a record containing only an identity — the
// starting point for relationship-only writes against a non-existent
// record.
func bareRecord(id Identity) Record {
	return Record{Identity: id}
}

// BackRef is an entry in the inverse-relationship index: "owner points
// to the indexed record through its relationship named Relationship".
type BackRef struct {
	Owner        Identity
	Relationship string
}

// Equal reports whether two back-refs name the same (owner, relationship) pair.
func (b BackRef) Equal(other BackRef) bool {
	return b.Owner.Equal(other.Owner) && b.Relationship == other.Relationship
}

// identitySetEqual reports multiset equality by identity: same
// identities with the same multiplicities, order ignored.
func identitySetEqual(a, b []Identity) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, x := range a {
		found := false
		for i, y := range b {
			if used[i] {
				continue
			}
			if x.Equal(y) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// identitySetDiff returns the elements of newSet that do not appear in
// oldSet (added), and the elements of oldSet that do not appear in newSet
// (removed), by identity-set difference.
func identitySetDiff(oldSet, newSet []Identity) (added, removed []Identity) {
	for _, n := range newSet {
		if !IdentitySet(oldSet, n) {
			added = append(added, n)
		}
	}
	for _, o := range oldSet {
		if !IdentitySet(newSet, o) {
			removed = append(removed, o)
		}
	}
	return added, removed
}

func oneEqual(a, b *Identity) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Equal(*b)
}
