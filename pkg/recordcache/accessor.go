package recordcache

// RecordAccessor is the abstract primitive read/write surface over a
// typed record store and a reverse-reference index. A concrete backend
// must keep every declared model type's bucket present (even empty),
// keep relationship pointers well-formed, and keep the inverse index in
// sync with the records it points at. Every operation is synchronous and
// infallible unless its signature says otherwise.
type RecordAccessor interface {
	// GetRecord returns the record at identity, or (Record{}, false) if
	// absent. Distinguishes "absent" from "present but empty".
	GetRecord(id Identity) (Record, bool)
	// GetRecords returns every record of the given type. Order is
	// unspecified; callers must not assume insertion order.
	GetRecords(modelType string) []Record
	// SetRecord upserts a single record.
	SetRecord(r Record)
	// SetRecords bulk-upserts records, all of which must have
	// r.Type == modelType. Declared on the accessor for backend
	// flexibility; unused by the core pipeline.
	SetRecords(modelType string, records []Record)
	// RemoveRecord deletes identity and returns the prior record, or
	// (Record{}, false) if it was absent.
	RemoveRecord(id Identity) (Record, bool)
	// RemoveRecords bulk-deletes identities of modelType and returns the
	// prior records that existed.
	RemoveRecords(modelType string, ids []string) []Record

	// GetInverselyRelatedRecords returns the back-refs pointing at id.
	GetInverselyRelatedRecords(id Identity) []BackRef
	// AddInverselyRelatedRecord appends a back-ref to id's inverse list.
	// Duplicates are not collapsed but correct pipeline use never
	// creates them.
	AddInverselyRelatedRecord(id Identity, ref BackRef)
	// RemoveInverselyRelatedRecord removes every back-ref entry at id
	// matching (ref.Owner, ref.Relationship).
	RemoveInverselyRelatedRecord(id Identity, ref BackRef)
	// RemoveInverseRelationships clears id's entire back-ref list.
	RemoveInverseRelationships(id Identity)
}

// GetRelatedRecord resolves a hasOne relationship's target record. It is
// a pure derivation over GetRecord, not a primitive.
func GetRelatedRecord(a RecordAccessor, id Identity, relationship string) (Record, bool) {
	owner, ok := a.GetRecord(id)
	if !ok {
		return Record{}, false
	}
	rv, ok := owner.Relationships[relationship]
	if !ok {
		return Record{}, false
	}
	target := rv.OneData()
	if target == nil {
		return Record{}, false
	}
	return a.GetRecord(*target)
}

// GetRelatedRecords resolves a hasMany relationship's target records in
// order. It is a pure derivation over GetRecord, not a primitive.
func GetRelatedRecords(a RecordAccessor, id Identity, relationship string) []Record {
	owner, ok := a.GetRecord(id)
	if !ok {
		return nil
	}
	rv, ok := owner.Relationships[relationship]
	if !ok {
		return nil
	}
	var out []Record
	for _, target := range rv.ManyData() {
		if rec, ok := a.GetRecord(target); ok {
			out = append(out, rec)
		}
	}
	return out
}

// RelatedRecordEquals reports whether id's hasOne relationship currently
// points at expected.
func RelatedRecordEquals(a RecordAccessor, id Identity, relationship string, expected *Identity) bool {
	owner, ok := a.GetRecord(id)
	if !ok {
		return expected == nil
	}
	rv := owner.Relationships[relationship]
	return oneEqual(rv.OneData(), expected)
}

// RelatedRecordsInclude reports whether id's hasMany relationship
// currently contains member.
func RelatedRecordsInclude(a RecordAccessor, id Identity, relationship string, member Identity) bool {
	owner, ok := a.GetRecord(id)
	if !ok {
		return false
	}
	rv := owner.Relationships[relationship]
	return IdentitySet(rv.ManyData(), member)
}
