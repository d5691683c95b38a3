package recordcache

// Processor is a pluggable validator/propagator with five hooks into the
// patch pipeline. Processors are ordered; the pipeline is responsible for
// that ordering and for recursing returned sub-operations — a processor
// never knows about its neighbors. The hook shape mirrors an
// extension-style before/after chain: each hook sees the accessor and
// schema view and may mutate the accessor directly (for index
// bookkeeping) and/or return sub-operations to be recursed through the
// full pipeline with primary=false.
type Processor interface {
	// Validate runs first, for every operation, and may abort the whole
	// patch by returning a non-nil error.
	Validate(a RecordAccessor, schema SchemaView, op Operation) error
	// Before runs immediately before the main operator applies; any
	// returned sub-operations are recursed through the pipeline right
	// away, still ahead of the main operator.
	Before(a RecordAccessor, schema SchemaView, op Operation) []Operation
	// After is called before the main operator applies (so it can
	// inspect pre-mutation state) but any sub-operations it returns are
	// deferred until after the main operator, the immediate hooks, and
	// the patch event have all run.
	After(a RecordAccessor, schema SchemaView, op Operation) []Operation
	// Immediate runs right after the main operator applies, for side
	// effects only; its return value (if any) is not used.
	Immediate(a RecordAccessor, schema SchemaView, op Operation)
	// Finally runs last, after staged After sub-operations have been
	// applied; any returned sub-operations are recursed through the
	// pipeline.
	Finally(a RecordAccessor, schema SchemaView, op Operation) []Operation
}

// baseProcessor gives every concrete processor no-op defaults for the
// hooks it doesn't care about.
type baseProcessor struct{}

func (baseProcessor) Validate(RecordAccessor, SchemaView, Operation) error { return nil }
func (baseProcessor) Before(RecordAccessor, SchemaView, Operation) []Operation {
	return nil
}
func (baseProcessor) After(RecordAccessor, SchemaView, Operation) []Operation {
	return nil
}
func (baseProcessor) Immediate(RecordAccessor, SchemaView, Operation) {}
func (baseProcessor) Finally(RecordAccessor, SchemaView, Operation) []Operation {
	return nil
}

// DefaultProcessors returns the three operation processors composed in
// their fixed required order: SchemaValidation, SchemaConsistency,
// CacheIntegrity.
func DefaultProcessors() []Processor {
	return []Processor{
		&SchemaValidation{},
		&SchemaConsistency{},
		&CacheIntegrity{},
	}
}
