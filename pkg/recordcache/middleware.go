package recordcache

import (
	"context"
	"time"
)

// PatchEvent describes one Cache.Patch call for middleware observation.
type PatchEvent struct {
	Ops      []Operation
	Duration time.Duration
	Error    error
	Start    time.Time
	End      time.Time
}

// PatchMiddleware intercepts a patch call; it must call next to continue
// the chain (or return early to short-circuit it).
type PatchMiddleware func(ctx context.Context, event *PatchEvent, next func() (PatchResult, error)) (PatchResult, error)

// MiddlewareCache wraps a Cache with an ordered chain of PatchMiddleware,
// run outermost-first around every PatchContext call.
type MiddlewareCache struct {
	*Cache
	middlewares []PatchMiddleware
}

// WithMiddleware wraps cache with middleware support.
func WithMiddleware(cache *Cache) *MiddlewareCache {
	return &MiddlewareCache{Cache: cache}
}

// Use appends middleware to the chain.
func (c *MiddlewareCache) Use(m PatchMiddleware) {
	c.middlewares = append(c.middlewares, m)
}

// PatchContext runs ops through the middleware chain and then the
// underlying Cache.Patch.
func (c *MiddlewareCache) PatchContext(ctx context.Context, ops []Operation) (PatchResult, error) {
	if len(c.middlewares) == 0 {
		return c.Cache.Patch(ops)
	}

	event := &PatchEvent{Ops: ops, Start: timeNow()}

	var next func() (PatchResult, error)
	index := 0
	next = func() (PatchResult, error) {
		if index >= len(c.middlewares) {
			result, err := c.Cache.Patch(ops)
			event.End = timeNow()
			event.Duration = event.End.Sub(event.Start)
			event.Error = err
			return result, err
		}
		m := c.middlewares[index]
		index++
		return m(ctx, event, next)
	}

	return next()
}

// LoggingMiddleware logs every patch batch through logf.
func LoggingMiddleware(logf func(format string, args ...any)) PatchMiddleware {
	return func(ctx context.Context, event *PatchEvent, next func() (PatchResult, error)) (PatchResult, error) {
		logf("patching %d operation(s)", len(event.Ops))
		result, err := next()
		if err != nil {
			logf("patch failed: %v", err)
		} else {
			logf("patch completed in %v", event.Duration)
		}
		return result, err
	}
}

// TimingMiddleware reports the wall-clock duration of every patch batch.
func TimingMiddleware(onTiming func(opCount int, d time.Duration)) PatchMiddleware {
	return func(ctx context.Context, event *PatchEvent, next func() (PatchResult, error)) (PatchResult, error) {
		result, err := next()
		if onTiming != nil {
			onTiming(len(event.Ops), event.Duration)
		}
		return result, err
	}
}

func timeNow() time.Time {
	return time.Now()
}
