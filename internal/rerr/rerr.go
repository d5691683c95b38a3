// Package rerr declares the typed errors raised by the patch pipeline and
// query evaluator, one constructor per distinct failure kind.
package rerr

import "fmt"

// SchemaValidationError reports an unknown model type, unknown field, or
// wrong relationship kind encountered while validating an operation.
type SchemaValidationError struct {
	Kind      string // "unknown-type" | "unknown-field" | "wrong-kind"
	ModelType string
	Field     string
}

func (e *SchemaValidationError) Error() string {
	switch e.Kind {
	case "unknown-type":
		return fmt.Sprintf("schema validation: unknown model type %q", e.ModelType)
	case "wrong-kind":
		return fmt.Sprintf("schema validation: relationship %q on %q has the wrong kind", e.Field, e.ModelType)
	default:
		return fmt.Sprintf("schema validation: model %q has no field %q", e.ModelType, e.Field)
	}
}

// NewUnknownTypeError reports an operation referencing an undeclared model type.
func NewUnknownTypeError(modelType string) *SchemaValidationError {
	return &SchemaValidationError{Kind: "unknown-type", ModelType: modelType}
}

// NewUnknownFieldError reports an operation referencing an undeclared
// key/attribute/relationship name.
func NewUnknownFieldError(modelType, field string) *SchemaValidationError {
	return &SchemaValidationError{Kind: "unknown-field", ModelType: modelType, Field: field}
}

// NewWrongRelationshipKindError reports a relationship used with the wrong
// hasOne/hasMany arity.
func NewWrongRelationshipKindError(modelType, field string) *SchemaValidationError {
	return &SchemaValidationError{Kind: "wrong-kind", ModelType: modelType, Field: field}
}

// RecordNotFoundError is raised by findRecord when the identity is absent.
type RecordNotFoundError struct {
	Type string
	ID   string
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("record not found: (%s, %s)", e.Type, e.ID)
}

// NewRecordNotFoundError builds a RecordNotFoundError for the given identity.
func NewRecordNotFoundError(modelType, id string) *RecordNotFoundError {
	return &RecordNotFoundError{Type: modelType, ID: id}
}

// QueryExpressionParseError reports an unknown operator or malformed
// pagination/sort clause in a query expression.
type QueryExpressionParseError struct {
	Reason string
}

func (e *QueryExpressionParseError) Error() string {
	return fmt.Sprintf("query expression parse error: %s", e.Reason)
}

// NewQueryExpressionParseError builds a QueryExpressionParseError.
func NewQueryExpressionParseError(reason string) *QueryExpressionParseError {
	return &QueryExpressionParseError{Reason: reason}
}

// MaxSubOperationDepthExceededError reports that processor-injected
// sub-operations recursed past the configured depth limit, guarding
// against a pathological or runaway injection chain.
type MaxSubOperationDepthExceededError struct {
	Limit int
}

func (e *MaxSubOperationDepthExceededError) Error() string {
	return fmt.Sprintf("patch pipeline: sub-operation recursion exceeded max depth %d", e.Limit)
}

// NewMaxSubOperationDepthExceededError builds a MaxSubOperationDepthExceededError.
func NewMaxSubOperationDepthExceededError(limit int) *MaxSubOperationDepthExceededError {
	return &MaxSubOperationDepthExceededError{Limit: limit}
}

// OperatorNotFoundError reports a missing patch/inverse/query operator for
// an operation or expression tag.
type OperatorNotFoundError struct {
	Op string
}

func (e *OperatorNotFoundError) Error() string {
	return fmt.Sprintf("no operator registered for %q", e.Op)
}

// NewOperatorNotFoundError builds an OperatorNotFoundError for the given tag.
func NewOperatorNotFoundError(op string) *OperatorNotFoundError {
	return &OperatorNotFoundError{Op: op}
}
