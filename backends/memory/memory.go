// Package memory is the ephemeral in-memory reference implementation of
// the recordcache.RecordAccessor contract: nested maps for
// the primary store and the inverse-relationship index, with no
// structural sharing. A cache instance owns its accessor exclusively;
// this implementation is not safe for concurrent mutation.
package memory

import "github.com/satishbabariya/recordcache/pkg/recordcache"

// Accessor is the nested-map RecordAccessor reference implementation.
type Accessor struct {
	store   map[string]map[string]recordcache.Record // type -> id -> record
	inverse map[string]map[string][]recordcache.BackRef
}

// New builds an Accessor with an empty bucket pre-populated for every
// model type the schema declares.
func New(schema recordcache.SchemaView) *Accessor {
	a := &Accessor{
		store:   make(map[string]map[string]recordcache.Record),
		inverse: make(map[string]map[string][]recordcache.BackRef),
	}
	for _, t := range schema.ModelTypes() {
		a.store[t] = make(map[string]recordcache.Record)
		a.inverse[t] = make(map[string][]recordcache.BackRef)
	}
	return a
}

func (a *Accessor) bucket(modelType string) map[string]recordcache.Record {
	b, ok := a.store[modelType]
	if !ok {
		b = make(map[string]recordcache.Record)
		a.store[modelType] = b
	}
	return b
}

func (a *Accessor) inverseBucket(modelType string) map[string][]recordcache.BackRef {
	b, ok := a.inverse[modelType]
	if !ok {
		b = make(map[string][]recordcache.BackRef)
		a.inverse[modelType] = b
	}
	return b
}

// GetRecord implements recordcache.RecordAccessor.
func (a *Accessor) GetRecord(id recordcache.Identity) (recordcache.Record, bool) {
	r, ok := a.bucket(id.Type)[id.ID]
	return r, ok
}

// GetRecords implements recordcache.RecordAccessor.
func (a *Accessor) GetRecords(modelType string) []recordcache.Record {
	b := a.bucket(modelType)
	out := make([]recordcache.Record, 0, len(b))
	for _, r := range b {
		out = append(out, r)
	}
	return out
}

// SetRecord implements recordcache.RecordAccessor.
func (a *Accessor) SetRecord(r recordcache.Record) {
	a.bucket(r.Type)[r.ID] = r
}

// SetRecords implements recordcache.RecordAccessor.
func (a *Accessor) SetRecords(modelType string, records []recordcache.Record) {
	b := a.bucket(modelType)
	for _, r := range records {
		b[r.ID] = r
	}
}

// RemoveRecord implements recordcache.RecordAccessor.
func (a *Accessor) RemoveRecord(id recordcache.Identity) (recordcache.Record, bool) {
	b := a.bucket(id.Type)
	r, ok := b[id.ID]
	if ok {
		delete(b, id.ID)
	}
	return r, ok
}

// RemoveRecords implements recordcache.RecordAccessor.
func (a *Accessor) RemoveRecords(modelType string, ids []string) []recordcache.Record {
	b := a.bucket(modelType)
	var out []recordcache.Record
	for _, id := range ids {
		if r, ok := b[id]; ok {
			out = append(out, r)
			delete(b, id)
		}
	}
	return out
}

// GetInverselyRelatedRecords implements recordcache.RecordAccessor.
func (a *Accessor) GetInverselyRelatedRecords(id recordcache.Identity) []recordcache.BackRef {
	return a.inverseBucket(id.Type)[id.ID]
}

// AddInverselyRelatedRecord implements recordcache.RecordAccessor.
func (a *Accessor) AddInverselyRelatedRecord(id recordcache.Identity, ref recordcache.BackRef) {
	b := a.inverseBucket(id.Type)
	b[id.ID] = append(b[id.ID], ref)
}

// RemoveInverselyRelatedRecord implements recordcache.RecordAccessor.
func (a *Accessor) RemoveInverselyRelatedRecord(id recordcache.Identity, ref recordcache.BackRef) {
	b := a.inverseBucket(id.Type)
	existing := b[id.ID]
	if len(existing) == 0 {
		return
	}
	kept := existing[:0:0]
	for _, e := range existing {
		if e.Owner.Equal(ref.Owner) && e.Relationship == ref.Relationship {
			continue
		}
		kept = append(kept, e)
	}
	b[id.ID] = kept
}

// RemoveInverseRelationships implements recordcache.RecordAccessor.
func (a *Accessor) RemoveInverseRelationships(id recordcache.Identity) {
	delete(a.inverseBucket(id.Type), id.ID)
}
