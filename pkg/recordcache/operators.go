package recordcache

// This file implements the forward patch operators: one
// pure(-ish) function per operation kind, each mutating the accessor to
// realize the operation and returning the resulting record or identity.

// applyOperator dispatches op to its patch operator and returns the
// value that belongs in PatchResult.Data: the resulting Record, or nil
// when removeRecord/removeFromRelatedRecords find no record.
// It never touches the inverse index or relationship propagation —
// that's the job of the processors.
func applyOperator(a RecordAccessor, op Operation) any {
	switch o := op.(type) {
	case AddRecordOp:
		return applyAddRecord(a, o)
	case ReplaceRecordOp:
		return applyReplaceRecord(a, o)
	case RemoveRecordOp:
		r, ok := a.RemoveRecord(o.ID)
		if !ok {
			return nil
		}
		return r
	case ReplaceKeyOp:
		return applyReplaceKey(a, o)
	case ReplaceAttributeOp:
		return applyReplaceAttribute(a, o)
	case AddToRelatedRecordsOp:
		return applyAddToRelatedRecords(a, o)
	case RemoveFromRelatedRecordsOp:
		r, ok := applyRemoveFromRelatedRecords(a, o)
		if !ok {
			return nil
		}
		return r
	case ReplaceRelatedRecordsOp:
		return applyReplaceRelatedRecords(a, o)
	case ReplaceRelatedRecordOp:
		return applyReplaceRelatedRecord(a, o)
	default:
		return nil
	}
}

func applyAddRecord(a RecordAccessor, op AddRecordOp) Record {
	a.SetRecord(op.Record)
	return op.Record
}

// mergeMapsAny shallow-merges src into a copy of dst (field-level
// override, other fields preserved).
func mergeMapsAny(dst, src map[string]any) map[string]any {
	if src == nil {
		return dst
	}
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		out[k] = v
	}
	return out
}

func mergeMapsString(dst, src map[string]string) map[string]string {
	if src == nil {
		return dst
	}
	out := make(map[string]string, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		out[k] = v
	}
	return out
}

func mergeRelationships(dst, src map[string]RelationshipValue) map[string]RelationshipValue {
	if src == nil {
		return dst
	}
	out := make(map[string]RelationshipValue, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		out[k] = v
	}
	return out
}

func applyReplaceRecord(a RecordAccessor, op ReplaceRecordOp) Record {
	existing, ok := a.GetRecord(op.Record.Identity)
	if !ok {
		a.SetRecord(op.Record)
		return op.Record
	}
	merged := Record{
		Identity:      op.Record.Identity,
		Keys:          mergeMapsString(existing.Keys, op.Record.Keys),
		Attributes:    mergeMapsAny(existing.Attributes, op.Record.Attributes),
		Relationships: mergeRelationships(existing.Relationships, op.Record.Relationships),
	}
	a.SetRecord(merged)
	return merged
}

func loadOrSynthesize(a RecordAccessor, id Identity) Record {
	if r, ok := a.GetRecord(id); ok {
		return r.Clone()
	}
	return bareRecord(id)
}

func applyReplaceKey(a RecordAccessor, op ReplaceKeyOp) Record {
	r := loadOrSynthesize(a, op.ID)
	if r.Keys == nil {
		r.Keys = make(map[string]string)
	}
	if op.Value == nil {
		delete(r.Keys, op.Name)
	} else {
		r.Keys[op.Name] = *op.Value
	}
	a.SetRecord(r)
	return r
}

func applyReplaceAttribute(a RecordAccessor, op ReplaceAttributeOp) Record {
	r := loadOrSynthesize(a, op.ID)
	if r.Attributes == nil {
		r.Attributes = make(map[string]any)
	}
	if op.Value == nil {
		delete(r.Attributes, op.Name)
	} else {
		r.Attributes[op.Name] = *op.Value
	}
	a.SetRecord(r)
	return r
}

func applyAddToRelatedRecords(a RecordAccessor, op AddToRelatedRecordsOp) Record {
	r := loadOrSynthesize(a, op.ID)
	if r.Relationships == nil {
		r.Relationships = make(map[string]RelationshipValue)
	}
	data := append(append([]Identity{}, r.Relationships[op.Relationship].ManyData()...), op.Related)
	r.Relationships[op.Relationship] = RelationshipValue{Data: data}
	a.SetRecord(r)
	return r
}

func applyRemoveFromRelatedRecords(a RecordAccessor, op RemoveFromRelatedRecordsOp) (Record, bool) {
	existing, ok := a.GetRecord(op.ID)
	if !ok {
		return Record{}, false
	}
	r := existing.Clone()
	current := r.Relationships[op.Relationship].ManyData()
	kept := make([]Identity, 0, len(current))
	for _, id := range current {
		if id.Equal(op.Related) {
			continue
		}
		kept = append(kept, id)
	}
	if r.Relationships == nil {
		r.Relationships = make(map[string]RelationshipValue)
	}
	r.Relationships[op.Relationship] = RelationshipValue{Data: kept}
	a.SetRecord(r)
	return r, true
}

func applyReplaceRelatedRecords(a RecordAccessor, op ReplaceRelatedRecordsOp) Record {
	r := loadOrSynthesize(a, op.ID)
	if r.Relationships == nil {
		r.Relationships = make(map[string]RelationshipValue)
	}
	r.Relationships[op.Relationship] = RelationshipValue{Data: op.Related}
	a.SetRecord(r)
	return r
}

func applyReplaceRelatedRecord(a RecordAccessor, op ReplaceRelatedRecordOp) Record {
	r := loadOrSynthesize(a, op.ID)
	if r.Relationships == nil {
		r.Relationships = make(map[string]RelationshipValue)
	}
	var data any
	if op.Related != nil {
		data = *op.Related
	}
	r.Relationships[op.Relationship] = RelationshipValue{Data: data}
	a.SetRecord(r)
	return r
}
