package recordcache

import "github.com/satishbabariya/recordcache/internal/rerr"

// SchemaValidation is the first of the three fixed-order processors.
// It only implements Validate: it verifies that the type of the record an
// operation targets is declared (and, for add/removeFromRelatedRecords,
// the related record's type too), and for addRecord/replaceRecord it
// verifies every mentioned key, attribute, and relationship name is
// declared on the model, with the declared relationship kind matching the
// data shape supplied. The identities given as relationship data by
// addRecord, replaceRecord, replaceRelatedRecord and
// replaceRelatedRecords are not type-checked.
type SchemaValidation struct {
	baseProcessor
}

func (p *SchemaValidation) Validate(a RecordAccessor, schema SchemaView, op Operation) error {
	switch o := op.(type) {
	case AddRecordOp:
		return validateRecordFields(schema, o.Record)
	case ReplaceRecordOp:
		return validateRecordFields(schema, o.Record)
	case RemoveRecordOp:
		return validateType(schema, o.ID.Type)
	case ReplaceKeyOp:
		if err := validateType(schema, o.ID.Type); err != nil {
			return err
		}
		return validateKeyName(schema, o.ID.Type, o.Name)
	case ReplaceAttributeOp:
		if err := validateType(schema, o.ID.Type); err != nil {
			return err
		}
		return validateAttributeName(schema, o.ID.Type, o.Name)
	case AddToRelatedRecordsOp:
		return validateRelationshipOp(schema, o.ID, o.Relationship, o.Related.Type, HasMany)
	case RemoveFromRelatedRecordsOp:
		return validateRelationshipOp(schema, o.ID, o.Relationship, o.Related.Type, HasMany)
	case ReplaceRelatedRecordsOp:
		return validateRelationshipKind(schema, o.ID, o.Relationship, HasMany)
	case ReplaceRelatedRecordOp:
		return validateRelationshipKind(schema, o.ID, o.Relationship, HasOne)
	default:
		return rerr.NewOperatorNotFoundError(string(op.Kind()))
	}
}

func validateType(schema SchemaView, modelType string) error {
	if _, ok := schema.GetModel(modelType); !ok {
		return rerr.NewUnknownTypeError(modelType)
	}
	return nil
}

func validateKeyName(schema SchemaView, modelType, name string) error {
	model, ok := schema.GetModel(modelType)
	if !ok {
		return rerr.NewUnknownTypeError(modelType)
	}
	if _, ok := model.Keys[name]; !ok {
		return rerr.NewUnknownFieldError(modelType, name)
	}
	return nil
}

func validateAttributeName(schema SchemaView, modelType, name string) error {
	model, ok := schema.GetModel(modelType)
	if !ok {
		return rerr.NewUnknownTypeError(modelType)
	}
	if _, ok := model.Attributes[name]; !ok {
		return rerr.NewUnknownFieldError(modelType, name)
	}
	return nil
}

func validateRelationshipKind(schema SchemaView, id Identity, name string, kind RelationshipKind) error {
	model, ok := schema.GetModel(id.Type)
	if !ok {
		return rerr.NewUnknownTypeError(id.Type)
	}
	rel, ok := model.Relationships[name]
	if !ok {
		return rerr.NewUnknownFieldError(id.Type, name)
	}
	if rel.Kind != kind {
		return rerr.NewWrongRelationshipKindError(id.Type, name)
	}
	return nil
}

func validateRelationshipOp(schema SchemaView, id Identity, name, relatedType string, kind RelationshipKind) error {
	if err := validateRelationshipKind(schema, id, name, kind); err != nil {
		return err
	}
	return validateType(schema, relatedType)
}

func validateRecordFields(schema SchemaView, r Record) error {
	model, ok := schema.GetModel(r.Type)
	if !ok {
		return rerr.NewUnknownTypeError(r.Type)
	}
	for name := range r.Keys {
		if _, ok := model.Keys[name]; !ok {
			return rerr.NewUnknownFieldError(r.Type, name)
		}
	}
	for name := range r.Attributes {
		if _, ok := model.Attributes[name]; !ok {
			return rerr.NewUnknownFieldError(r.Type, name)
		}
	}
	for name, rv := range r.Relationships {
		rel, ok := model.Relationships[name]
		if !ok {
			return rerr.NewUnknownFieldError(r.Type, name)
		}
		if _, isMany := rv.Data.([]Identity); isMany {
			if rel.Kind != HasMany {
				return rerr.NewWrongRelationshipKindError(r.Type, name)
			}
			continue
		}
		if rv.Data != nil && rel.Kind != HasOne {
			return rerr.NewWrongRelationshipKindError(r.Type, name)
		}
	}
	return nil
}
