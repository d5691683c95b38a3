package recordcache

import (
	"sync"

	"github.com/satishbabariya/recordcache/internal/rerr"
	"github.com/satishbabariya/recordcache/internal/rlog"
)

// defaultMaxSubOperationDepth bounds processor-injected sub-operation
// recursion when a Cache is built with NewCache's zero-value default.
const defaultMaxSubOperationDepth = 64

// PatchResult is what a top-level Patch call returns: the ordered data
// produced by each primary operation (a Record, or nil for a no-op or
// when no record results), and the ordered inverse sequence that undoes the whole
// batch when applied in order.
type PatchResult struct {
	Data    []any
	Inverse []Operation
}

// EventHandler observes a patch event fired on a Cache.
type EventHandler func(op Operation, data any)

// Cache composes a RecordAccessor, a SchemaView, an optional KeyMap, and
// the ordered processor chain into the patch pipeline.
// It is not safe for concurrent use.
type Cache struct {
	Accessor   RecordAccessor
	Schema     SchemaView
	KeyMap     KeyMap
	Processors []Processor

	// MaxSubOperationDepth bounds how deep processor-injected
	// sub-operations may recurse before Patch fails with
	// rerr.MaxSubOperationDepthExceededError instead of exhausting the
	// goroutine stack.
	MaxSubOperationDepth int
	// EventBufferHint is an advisory initial capacity applied the first
	// time a handler is registered for a given event in On.
	EventBufferHint int
	// StrictKeyMap, when set, logs at Warn (via internal/rlog) when
	// pushKeys pushes a record whose model declares key fields but
	// which has none of them set, leaving the key map unable to
	// resolve it by any alternative key.
	StrictKeyMap bool

	listeners map[string][]EventHandler
	mu        sync.Mutex
}

// NewCache builds a cache over accessor/schema with the default
// processor chain (SchemaValidation → SchemaConsistency →
// CacheIntegrity) and a no-op key map. Use SetKeyMap to wire a real one.
func NewCache(accessor RecordAccessor, schema SchemaView) *Cache {
	return &Cache{
		Accessor:             accessor,
		Schema:               schema,
		KeyMap:               NoopKeyMap{},
		Processors:           DefaultProcessors(),
		MaxSubOperationDepth: defaultMaxSubOperationDepth,
		listeners:            make(map[string][]EventHandler),
	}
}

// SetKeyMap wires an alternative-identity index.
func (c *Cache) SetKeyMap(k KeyMap) {
	c.KeyMap = k
}

// On registers fn against event, which fires synchronously, in
// registration order, in the calling goroutine. Handlers must not call
// Patch on this cache.
func (c *Cache) On(event string, fn EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.listeners[event]; !ok && c.EventBufferHint > 0 {
		c.listeners[event] = make([]EventHandler, 0, c.EventBufferHint)
	}
	c.listeners[event] = append(c.listeners[event], fn)
}

func (c *Cache) emit(event string, op Operation, data any) {
	c.mu.Lock()
	handlers := append([]EventHandler(nil), c.listeners[event]...)
	c.mu.Unlock()
	for _, h := range handlers {
		h(op, data)
	}
}

// Patch applies an ordered sequence of top-level (primary) operations
// through the pipeline and returns the accumulated data and the reversed
// inverse batch.
func (c *Cache) Patch(ops []Operation) (PatchResult, error) {
	result := PatchResult{}
	for _, op := range ops {
		if err := c.patchOne(op, true, 0, &result); err != nil {
			return result, err
		}
	}
	reverseOps(result.Inverse)
	return result, nil
}

// patchOne runs the eleven-step per-operation procedure,
// recursing depth-first for processor-injected sub-operations. depth
// counts how many processor-injected hops deep this call is nested
// (0 for a primary, top-level operation).
func (c *Cache) patchOne(op Operation, primary bool, depth int, result *PatchResult) error {
	limit := c.MaxSubOperationDepth
	if limit <= 0 {
		limit = defaultMaxSubOperationDepth
	}
	if depth > limit {
		return rerr.NewMaxSubOperationDepthExceededError(limit)
	}

	// 1. Validate.
	for _, p := range c.Processors {
		if err := p.Validate(c.Accessor, c.Schema, op); err != nil {
			rlog.Debug("patch validation failed", "op", op.Kind(), "identity", identityOf(op), "err", err)
			return err
		}
	}

	// 2. Compute inverse.
	inv, needed := computeInverse(c.Accessor, op)

	// 3. Branch on inverse: no inverse means a no-op, skip the main operator.
	if !needed {
		if primary {
			result.Data = append(result.Data, nil)
		}
		return nil
	}

	// 4. Append the inverse op.
	result.Inverse = append(result.Inverse, inv)

	// 5. Run before hooks, recursing immediately.
	for _, p := range c.Processors {
		for _, sub := range p.Before(c.Accessor, c.Schema, op) {
			if err := c.patchOne(sub, false, depth+1, result); err != nil {
				return err
			}
		}
	}

	// 6. Stage after hooks (computed now, against pre-mutation state,
	// applied later at step 10).
	var staged []Operation
	for _, p := range c.Processors {
		staged = append(staged, p.After(c.Accessor, c.Schema, op)...)
	}

	// 7. Apply the main operator.
	data := applyOperator(c.Accessor, op)
	if primary {
		result.Data = append(result.Data, data)
	}
	c.pushKeys(op, data)

	// 8. Run immediate hooks.
	for _, p := range c.Processors {
		p.Immediate(c.Accessor, c.Schema, op)
	}

	// 9. Emit patch event.
	c.emit("patch", op, data)

	// 10. Apply staged after sub-operations.
	for _, sub := range staged {
		if err := c.patchOne(sub, false, depth+1, result); err != nil {
			return err
		}
	}

	// 11. Run finally hooks.
	for _, p := range c.Processors {
		for _, sub := range p.Finally(c.Accessor, c.Schema, op) {
			if err := c.patchOne(sub, false, depth+1, result); err != nil {
				return err
			}
		}
	}

	return nil
}

// pushKeys forwards a record's keys to the key map after any operation
// that could have altered them.
func (c *Cache) pushKeys(op Operation, data any) {
	r, ok := data.(Record)
	if !ok {
		return
	}
	switch op.(type) {
	case AddRecordOp, ReplaceRecordOp, ReplaceKeyOp:
		c.KeyMap.PushRecord(r)
		if c.StrictKeyMap {
			c.warnIfKeyless(r)
		}
	}
}

// warnIfKeyless logs at Warn when model declares key fields but r has
// none of them set, since the key map will never resolve r by an
// alternative key.
func (c *Cache) warnIfKeyless(r Record) {
	model, ok := c.Schema.GetModel(r.Type)
	if !ok || len(model.Keys) == 0 {
		return
	}
	for name := range model.Keys {
		if _, set := r.Keys[name]; set {
			return
		}
	}
	rlog.Warn("pushRecord: record has no declared keys set", "type", r.Type, "id", r.ID)
}

func reverseOps(ops []Operation) {
	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
}

// Reset discards the current accessor state in favor of a freshly
// constructed one and fires the reset event. Non-forking
// backends simply hand in a new empty accessor; forking backends may
// instead hand in a structurally-shared clone of another cache's state.
func (c *Cache) Reset(accessor RecordAccessor) {
	c.Accessor = accessor
	c.emit("reset", nil, nil)
}
