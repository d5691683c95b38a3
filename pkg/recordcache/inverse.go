package recordcache

import "reflect"

// This file implements the inverse-patch operators: pure
// reads over the accessor's *current* (pre-mutation) state that compute
// the operation which would undo a pending patch operator's effect, or
// report "no inverse needed" when the operation is a perfect no-op.
//
// None of these functions mutate the accessor.

// computeInverse dispatches op to its inverse-patch operator. The
// second return value is false when no inverse is needed, which also
// means the main operator must not run.
func computeInverse(a RecordAccessor, op Operation) (Operation, bool) {
	switch o := op.(type) {
	case AddRecordOp:
		return inverseAddRecord(a, o)
	case ReplaceRecordOp:
		return inverseReplaceRecord(a, o)
	case RemoveRecordOp:
		return inverseRemoveRecord(a, o)
	case ReplaceKeyOp:
		return inverseReplaceKey(a, o)
	case ReplaceAttributeOp:
		return inverseReplaceAttribute(a, o)
	case AddToRelatedRecordsOp:
		return inverseAddToRelatedRecords(a, o)
	case RemoveFromRelatedRecordsOp:
		return inverseRemoveFromRelatedRecords(a, o)
	case ReplaceRelatedRecordsOp:
		return inverseReplaceRelatedRecords(a, o)
	case ReplaceRelatedRecordOp:
		return inverseReplaceRelatedRecord(a, o)
	default:
		return nil, false
	}
}

func recordEqual(a, b Record) bool {
	if !a.Identity.Equal(b.Identity) {
		return false
	}
	if len(a.Keys) != len(b.Keys) {
		return false
	}
	for k, v := range a.Keys {
		if b.Keys[k] != v {
			return false
		}
	}
	if len(a.Attributes) != len(b.Attributes) {
		return false
	}
	for k, v := range a.Attributes {
		bv, ok := b.Attributes[k]
		if !ok || !attrEqual(v, bv) {
			return false
		}
	}
	if len(a.Relationships) != len(b.Relationships) {
		return false
	}
	for k, v := range a.Relationships {
		bv, ok := b.Relationships[k]
		if !ok || !relValueEqual(v, bv) {
			return false
		}
	}
	return true
}

// attrEqual compares two opaque attribute values structurally; the core
// treats attribute values as opaque so a shallow/deep equal
// over comparable scalars and identical-shape composites is enough here.
func attrEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

func relValueEqual(a, b RelationshipValue) bool {
	aOne, bOne := a.OneData(), b.OneData()
	if aOne != nil || bOne != nil {
		return oneEqual(aOne, bOne)
	}
	return identitySetEqual(a.ManyData(), b.ManyData())
}

func inverseAddRecord(a RecordAccessor, op AddRecordOp) (Operation, bool) {
	current, ok := a.GetRecord(op.Record.Identity)
	if !ok {
		return NewRemoveRecord(op.Record.Identity), true
	}
	if recordEqual(current, op.Record) {
		return nil, false
	}
	return NewReplaceRecord(current), true
}

func inverseReplaceRecord(a RecordAccessor, op ReplaceRecordOp) (Operation, bool) {
	current, ok := a.GetRecord(op.Record.Identity)
	if !ok {
		return NewRemoveRecord(op.Record.Identity), true
	}

	delta := Record{Identity: op.Record.Identity}
	changed := false

	if len(op.Record.Keys) > 0 {
		delta.Keys = make(map[string]string)
		for name, newVal := range op.Record.Keys {
			curVal, had := current.Keys[name]
			if !had || curVal != newVal {
				if had {
					delta.Keys[name] = curVal
				}
				changed = true
			}
		}
	}

	if len(op.Record.Attributes) > 0 {
		delta.Attributes = make(map[string]any)
		for name, newVal := range op.Record.Attributes {
			curVal, had := current.Attributes[name]
			if !had || !attrEqual(curVal, newVal) {
				if had {
					delta.Attributes[name] = curVal
				} else {
					delta.Attributes[name] = nil
				}
				changed = true
			}
		}
	}

	if len(op.Record.Relationships) > 0 {
		delta.Relationships = make(map[string]RelationshipValue)
		for name, newVal := range op.Record.Relationships {
			curVal, had := current.Relationships[name]
			if !had || !relValueEqual(curVal, newVal) {
				if had {
					delta.Relationships[name] = curVal
				} else {
					delta.Relationships[name] = RelationshipValue{}
				}
				changed = true
			}
		}
	}

	if !changed {
		return nil, false
	}
	return NewReplaceRecord(delta), true
}

func inverseRemoveRecord(a RecordAccessor, op RemoveRecordOp) (Operation, bool) {
	current, ok := a.GetRecord(op.ID)
	if !ok {
		return nil, false
	}
	return NewAddRecord(current), true
}

func inverseReplaceKey(a RecordAccessor, op ReplaceKeyOp) (Operation, bool) {
	current, _ := a.GetRecord(op.ID)
	curVal, had := current.Keys[op.Name]

	newIsSet := op.Value != nil
	if !had && !newIsSet {
		return nil, false
	}
	if had && newIsSet && curVal == *op.Value {
		return nil, false
	}
	if !had {
		return NewReplaceKey(op.ID, op.Name, nil), true
	}
	return NewReplaceKey(op.ID, op.Name, &curVal), true
}

func inverseReplaceAttribute(a RecordAccessor, op ReplaceAttributeOp) (Operation, bool) {
	current, _ := a.GetRecord(op.ID)
	curVal, had := current.Attributes[op.Name]

	newIsSet := op.Value != nil
	if !had && !newIsSet {
		return nil, false
	}
	if had && newIsSet && attrEqual(curVal, *op.Value) {
		return nil, false
	}
	if !had {
		return NewUnsetAttribute(op.ID, op.Name), true
	}
	return NewReplaceAttribute(op.ID, op.Name, curVal), true
}

func inverseAddToRelatedRecords(a RecordAccessor, op AddToRelatedRecordsOp) (Operation, bool) {
	if RelatedRecordsInclude(a, op.ID, op.Relationship, op.Related) {
		return nil, false
	}
	return NewRemoveFromRelatedRecords(op.ID, op.Relationship, op.Related), true
}

func inverseRemoveFromRelatedRecords(a RecordAccessor, op RemoveFromRelatedRecordsOp) (Operation, bool) {
	if !RelatedRecordsInclude(a, op.ID, op.Relationship, op.Related) {
		return nil, false
	}
	return NewAddToRelatedRecords(op.ID, op.Relationship, op.Related), true
}

func inverseReplaceRelatedRecords(a RecordAccessor, op ReplaceRelatedRecordsOp) (Operation, bool) {
	current := GetRelatedRecordsData(a, op.ID, op.Relationship)
	if identitySetEqual(current, op.Related) {
		return nil, false
	}
	return NewReplaceRelatedRecords(op.ID, op.Relationship, current), true
}

func inverseReplaceRelatedRecord(a RecordAccessor, op ReplaceRelatedRecordOp) (Operation, bool) {
	current := GetRelatedRecordData(a, op.ID, op.Relationship)
	if oneEqual(current, op.Related) {
		return nil, false
	}
	return NewReplaceRelatedRecord(op.ID, op.Relationship, current), true
}

// GetRelatedRecordData returns the current hasOne identity pointer for a
// relationship, without resolving the target record (unlike
// GetRelatedRecord, which also loads the target).
func GetRelatedRecordData(a RecordAccessor, id Identity, relationship string) *Identity {
	owner, ok := a.GetRecord(id)
	if !ok {
		return nil
	}
	return owner.Relationships[relationship].OneData()
}

// GetRelatedRecordsData returns the current hasMany identity sequence for
// a relationship, without resolving the target records.
func GetRelatedRecordsData(a RecordAccessor, id Identity, relationship string) []Identity {
	owner, ok := a.GetRecord(id)
	if !ok {
		return nil
	}
	return owner.Relationships[relationship].ManyData()
}
