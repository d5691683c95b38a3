package recordcache

// CacheIntegrity is the third fixed-order processor. It maintains the
// inverse-relationship index itself and implements dead-reference
// cleanup: when a record is removed, every forward pointer to it is
// cleared from whatever record named it.
//
// Unlike SchemaConsistency, most of CacheIntegrity's work is a direct
// mutation of the accessor's inverse index (there is no Operation kind
// for "update the inverse index" — it is bookkeeping internal to the
// accessor, not part of the op algebra). The one place it returns
// sub-operations is removeRecord, where the cascade onto peer records
// must go through the normal op algebra so it gets its own inverse and
// its own further propagation.
type CacheIntegrity struct {
	baseProcessor
}

// After runs before the main operator applies and clears inverse-index
// entries that are about to become stale, reading the current (about to
// be replaced/removed) pointer values first.
func (p *CacheIntegrity) After(a RecordAccessor, schema SchemaView, op Operation) []Operation {
	switch o := op.(type) {
	case ReplaceRelatedRecordOp:
		clearOutboundOne(a, schema, o.ID, o.Relationship)
		return nil

	case ReplaceRelatedRecordsOp:
		clearOutboundMany(a, schema, o.ID, o.Relationship)
		return nil

	case RemoveFromRelatedRecordsOp:
		if rel, ok := relDef(schema, o.ID.Type, o.Relationship); ok && rel.HasInverse() {
			a.RemoveInverselyRelatedRecord(Identity{Type: rel.Model, ID: o.Related.ID}, BackRef{Owner: o.ID, Relationship: o.Relationship})
		}
		return nil

	case RemoveRecordOp:
		refs := a.GetInverselyRelatedRecords(o.ID)
		var ops []Operation
		for _, ref := range refs {
			ownerModel, ok := schema.GetModel(ref.Owner.Type)
			if !ok {
				continue
			}
			rel, ok := ownerModel.Relationships[ref.Relationship]
			if !ok {
				continue
			}
			if rel.Kind == HasMany {
				ops = append(ops, NewRemoveFromRelatedRecords(ref.Owner, ref.Relationship, o.ID))
			} else {
				ops = append(ops, NewReplaceRelatedRecord(ref.Owner, ref.Relationship, nil))
			}
		}
		a.RemoveInverseRelationships(o.ID)
		return ops

	case ReplaceRecordOp:
		record, ok := a.GetRecord(o.Record.Identity)
		if !ok {
			return nil
		}
		for relName := range o.Record.Relationships {
			rel, ok := relDef(schema, record.Type, relName)
			if !ok || !rel.HasInverse() {
				continue
			}
			clearOutboundForRelationship(a, record, relName, rel)
		}
		return nil
	}
	return nil
}

// Finally runs after the main operator and any staged After
// sub-operations, and writes fresh inverse-index entries for whatever
// pointer values now exist.
func (p *CacheIntegrity) Finally(a RecordAccessor, schema SchemaView, op Operation) []Operation {
	switch o := op.(type) {
	case ReplaceRelatedRecordOp:
		if rel, ok := relDef(schema, o.ID.Type, o.Relationship); ok && rel.HasInverse() && o.Related != nil {
			a.AddInverselyRelatedRecord(*o.Related, BackRef{Owner: o.ID, Relationship: o.Relationship})
		}

	case ReplaceRelatedRecordsOp:
		if rel, ok := relDef(schema, o.ID.Type, o.Relationship); ok && rel.HasInverse() {
			for _, target := range o.Related {
				a.AddInverselyRelatedRecord(target, BackRef{Owner: o.ID, Relationship: o.Relationship})
			}
		}

	case AddToRelatedRecordsOp:
		if rel, ok := relDef(schema, o.ID.Type, o.Relationship); ok && rel.HasInverse() {
			a.AddInverselyRelatedRecord(o.Related, BackRef{Owner: o.ID, Relationship: o.Relationship})
		}

	case AddRecordOp:
		addOutboundEntries(a, schema, o.Record)

	case ReplaceRecordOp:
		if record, ok := a.GetRecord(o.Record.Identity); ok {
			addOutboundEntries(a, schema, record)
		}
	}
	return nil
}

func relDef(schema SchemaView, modelType, name string) (RelationshipDef, bool) {
	model, ok := schema.GetModel(modelType)
	if !ok {
		return RelationshipDef{}, false
	}
	rel, ok := model.Relationships[name]
	return rel, ok
}

func clearOutboundOne(a RecordAccessor, schema SchemaView, id Identity, relationship string) {
	rel, ok := relDef(schema, id.Type, relationship)
	if !ok || !rel.HasInverse() {
		return
	}
	if target := GetRelatedRecordData(a, id, relationship); target != nil {
		a.RemoveInverselyRelatedRecord(*target, BackRef{Owner: id, Relationship: relationship})
	}
}

func clearOutboundMany(a RecordAccessor, schema SchemaView, id Identity, relationship string) {
	rel, ok := relDef(schema, id.Type, relationship)
	if !ok || !rel.HasInverse() {
		return
	}
	for _, target := range GetRelatedRecordsData(a, id, relationship) {
		a.RemoveInverselyRelatedRecord(target, BackRef{Owner: id, Relationship: relationship})
	}
}

func clearOutboundForRelationship(a RecordAccessor, record Record, relName string, rel RelationshipDef) {
	rv := record.Relationships[relName]
	if rel.Kind == HasMany {
		for _, target := range rv.ManyData() {
			a.RemoveInverselyRelatedRecord(target, BackRef{Owner: record.Identity, Relationship: relName})
		}
		return
	}
	if one := rv.OneData(); one != nil {
		a.RemoveInverselyRelatedRecord(*one, BackRef{Owner: record.Identity, Relationship: relName})
	}
}

func addOutboundEntries(a RecordAccessor, schema SchemaView, record Record) {
	for relName, rv := range record.Relationships {
		rel, ok := relDef(schema, record.Type, relName)
		if !ok || !rel.HasInverse() {
			continue
		}
		if rel.Kind == HasMany {
			for _, target := range rv.ManyData() {
				a.AddInverselyRelatedRecord(target, BackRef{Owner: record.Identity, Relationship: relName})
			}
			continue
		}
		if one := rv.OneData(); one != nil {
			a.AddInverselyRelatedRecord(*one, BackRef{Owner: record.Identity, Relationship: relName})
		}
	}
}
