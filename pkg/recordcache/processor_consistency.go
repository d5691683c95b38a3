package recordcache

// SchemaConsistency is the second fixed-order processor.
// It maintains inverse-relationship symmetry by injecting operations
// that propagate a change on side A to side B whenever the touched
// relationship declares an inverse.
//
// Convention adopted here for the Before/After split: replacing a
// hasOne/hasMany value injects the clear-the-old-peer half via Before
// (applied immediately, ahead of this op's own main mutation, while the
// old value is still readable) and the point-the-new-peer half via
// After (staged, applied once this op's own mutation, immediate hooks,
// and patch event have all completed). Incremental hasMany membership
// changes (add/remove a single related record, rather than replacing
// the whole value) carry no "old value" to lose, so both addToRelatedRecords
// and removeFromRelatedRecords propagate via After: staging the
// peer-side op until after this op's own mutation has landed is what
// lets the peer-side op observe that mutation and recognize a
// redundant re-derivation as a no-op instead of recursing forever.
type SchemaConsistency struct {
	baseProcessor
}

// peerReflects reports whether target's inverseRel relationship
// currently points back at owner, per inverseKind's arity.
func peerReflects(a RecordAccessor, target Identity, inverseRel string, inverseKind RelationshipKind, owner Identity) bool {
	if inverseKind == HasMany {
		return IdentitySet(GetRelatedRecordsData(a, target, inverseRel), owner)
	}
	return oneEqual(GetRelatedRecordData(a, target, inverseRel), &owner)
}

func inverseOf(schema SchemaView, modelType, relationship string) (RelationshipDef, bool) {
	model, ok := schema.GetModel(modelType)
	if !ok {
		return RelationshipDef{}, false
	}
	rel, ok := model.Relationships[relationship]
	if !ok || !rel.HasInverse() {
		return RelationshipDef{}, false
	}
	return rel, true
}

// peerAddOp builds the sub-operation that adds owner to target's R'
// relationship, shaped per R''s declared kind.
func peerAddOp(target Identity, inverseRel string, inverseKind RelationshipKind, owner Identity) Operation {
	if inverseKind == HasMany {
		return NewAddToRelatedRecords(target, inverseRel, owner)
	}
	o := owner
	return NewReplaceRelatedRecord(target, inverseRel, &o)
}

// peerRemoveOp builds the sub-operation that removes owner from target's
// R' relationship, shaped per R''s declared kind.
func peerRemoveOp(target Identity, inverseRel string, inverseKind RelationshipKind, owner Identity) Operation {
	if inverseKind == HasMany {
		return NewRemoveFromRelatedRecords(target, inverseRel, owner)
	}
	return NewReplaceRelatedRecord(target, inverseRel, nil)
}

func (p *SchemaConsistency) Before(a RecordAccessor, schema SchemaView, op Operation) []Operation {
	switch o := op.(type) {
	case ReplaceRelatedRecordOp:
		rel, ok := inverseOf(schema, o.ID.Type, o.Relationship)
		if !ok {
			return nil
		}
		prev := GetRelatedRecordData(a, o.ID, o.Relationship)
		if prev == nil || oneEqual(prev, o.Related) {
			return nil
		}
		inverseKind := inverseKindOf(schema, rel)
		return []Operation{peerRemoveOp(*prev, rel.Inverse, inverseKind, o.ID)}

	case ReplaceRelatedRecordsOp:
		rel, ok := inverseOf(schema, o.ID.Type, o.Relationship)
		if !ok {
			return nil
		}
		oldSet := GetRelatedRecordsData(a, o.ID, o.Relationship)
		_, removed := identitySetDiff(oldSet, o.Related)
		if len(removed) == 0 {
			return nil
		}
		inverseKind := inverseKindOf(schema, rel)
		ops := make([]Operation, 0, len(removed))
		for _, target := range removed {
			ops = append(ops, peerRemoveOp(target, rel.Inverse, inverseKind, o.ID))
		}
		return ops

	case RemoveRecordOp:
		record, ok := a.GetRecord(o.ID)
		if !ok {
			return nil
		}
		var ops []Operation
		for relName, rv := range record.Relationships {
			rel, ok := inverseOf(schema, o.ID.Type, relName)
			if !ok {
				continue
			}
			inverseKind := inverseKindOf(schema, rel)
			if one := rv.OneData(); one != nil {
				ops = append(ops, peerRemoveOp(*one, rel.Inverse, inverseKind, o.ID))
			}
			for _, target := range rv.ManyData() {
				ops = append(ops, peerRemoveOp(target, rel.Inverse, inverseKind, o.ID))
			}
		}
		return ops

	case ReplaceRecordOp:
		current, ok := a.GetRecord(o.Record.Identity)
		if !ok {
			return nil
		}
		var ops []Operation
		for relName, newVal := range o.Record.Relationships {
			rel, ok := inverseOf(schema, o.Record.Type, relName)
			if !ok {
				continue
			}
			oldVal := current.Relationships[relName]
			inverseKind := inverseKindOf(schema, rel)
			if rel.Kind == HasMany {
				_, removed := identitySetDiff(oldVal.ManyData(), newVal.ManyData())
				for _, target := range removed {
					ops = append(ops, peerRemoveOp(target, rel.Inverse, inverseKind, o.Record.Identity))
				}
			} else {
				oldOne, newOne := oldVal.OneData(), newVal.OneData()
				if oldOne != nil && !oneEqual(oldOne, newOne) {
					ops = append(ops, peerRemoveOp(*oldOne, rel.Inverse, inverseKind, o.Record.Identity))
				}
			}
		}
		return ops
	}
	return nil
}

func (p *SchemaConsistency) After(a RecordAccessor, schema SchemaView, op Operation) []Operation {
	switch o := op.(type) {
	case AddToRelatedRecordsOp:
		rel, ok := inverseOf(schema, o.ID.Type, o.Relationship)
		if !ok {
			return nil
		}
		inverseKind := inverseKindOf(schema, rel)
		if peerReflects(a, o.Related, rel.Inverse, inverseKind, o.ID) {
			return nil
		}
		return []Operation{peerAddOp(o.Related, rel.Inverse, inverseKind, o.ID)}

	case RemoveFromRelatedRecordsOp:
		rel, ok := inverseOf(schema, o.ID.Type, o.Relationship)
		if !ok {
			return nil
		}
		inverseKind := inverseKindOf(schema, rel)
		if !peerReflects(a, o.Related, rel.Inverse, inverseKind, o.ID) {
			return nil
		}
		return []Operation{peerRemoveOp(o.Related, rel.Inverse, inverseKind, o.ID)}

	case ReplaceRelatedRecordOp:
		rel, ok := inverseOf(schema, o.ID.Type, o.Relationship)
		if !ok || o.Related == nil {
			return nil
		}
		prev := GetRelatedRecordData(a, o.ID, o.Relationship)
		if oneEqual(prev, o.Related) {
			return nil
		}
		inverseKind := inverseKindOf(schema, rel)
		return []Operation{peerAddOp(*o.Related, rel.Inverse, inverseKind, o.ID)}

	case ReplaceRelatedRecordsOp:
		rel, ok := inverseOf(schema, o.ID.Type, o.Relationship)
		if !ok {
			return nil
		}
		oldSet := GetRelatedRecordsData(a, o.ID, o.Relationship)
		added, _ := identitySetDiff(oldSet, o.Related)
		if len(added) == 0 {
			return nil
		}
		inverseKind := inverseKindOf(schema, rel)
		ops := make([]Operation, 0, len(added))
		for _, target := range added {
			ops = append(ops, peerAddOp(target, rel.Inverse, inverseKind, o.ID))
		}
		return ops

	case AddRecordOp:
		var ops []Operation
		for relName, rv := range o.Record.Relationships {
			rel, ok := inverseOf(schema, o.Record.Type, relName)
			if !ok {
				continue
			}
			inverseKind := inverseKindOf(schema, rel)
			if one := rv.OneData(); one != nil {
				ops = append(ops, peerAddOp(*one, rel.Inverse, inverseKind, o.Record.Identity))
			}
			for _, target := range rv.ManyData() {
				ops = append(ops, peerAddOp(target, rel.Inverse, inverseKind, o.Record.Identity))
			}
		}
		return ops

	case ReplaceRecordOp:
		current, _ := a.GetRecord(o.Record.Identity)
		var ops []Operation
		for relName, newVal := range o.Record.Relationships {
			rel, ok := inverseOf(schema, o.Record.Type, relName)
			if !ok {
				continue
			}
			inverseKind := inverseKindOf(schema, rel)
			if rel.Kind == HasMany {
				added, _ := identitySetDiff(current.Relationships[relName].ManyData(), newVal.ManyData())
				for _, target := range added {
					ops = append(ops, peerAddOp(target, rel.Inverse, inverseKind, o.Record.Identity))
				}
			} else {
				newOne := newVal.OneData()
				oldOne := current.Relationships[relName].OneData()
				if newOne != nil && !oneEqual(oldOne, newOne) {
					ops = append(ops, peerAddOp(*newOne, rel.Inverse, inverseKind, o.Record.Identity))
				}
			}
		}
		return ops
	}
	return nil
}

// inverseKindOf returns the declared kind of rel.Inverse on the related
// model, defaulting to HasOne if for some reason it cannot be resolved
// (schema validation runs before consistency propagation, so this should
// always resolve for a well-formed schema).
func inverseKindOf(schema SchemaView, rel RelationshipDef) RelationshipKind {
	targetModel, ok := schema.GetModel(rel.Model)
	if !ok {
		return HasOne
	}
	inverseRel, ok := targetModel.Relationships[rel.Inverse]
	if !ok {
		return HasOne
	}
	return inverseRel.Kind
}
