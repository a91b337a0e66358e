package memo

import (
	"context"
	"sync"

	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// Key is a cache key. String must be unique per key within one cache.
type Key interface {
	comparable
	String() string
}

// Factory computes the value of c.Key().
type Factory[K Key, V any] func(c *Computation[K]) (V, error)

// IncrementalFactory computes the value of c.Key() from the previous value,
// if one was ever stored for the key.
type IncrementalFactory[K Key, V any] func(c *Computation[K], previous V, hasPrevious bool) (V, error)

type entry[V any] struct {
	value V
	deps  []Dependency
}

func (e *entry[V]) stale() bool {
	for _, dep := range e.deps {
		if dep.HasChanged() {
			return true
		}
	}
	return false
}

// Cache memoizes values per key. A stored value is returned until one of the
// dependencies monitored while computing it changes. Concurrent lookups of the
// same key share one computation.
type Cache[K Key, V any] struct {
	name    string
	mu      sync.RWMutex
	entries map[K]*entry[V]
	flight  singleflight.Group
}

// New creates an empty cache. name labels its metrics.
func New[K Key, V any](name string) *Cache[K, V] {
	return &Cache[K, V]{
		name:    name,
		entries: make(map[K]*entry[V]),
	}
}

// Get returns the fresh value for key, computing it with factory if needed.
func (c *Cache[K, V]) Get(ctx context.Context, key K, factory Factory[K, V]) (V, error) {
	return c.GetWithPrevious(ctx, key, func(comp *Computation[K], _ V, _ bool) (V, error) {
		return factory(comp)
	})
}

// GetWithPrevious is Get for factories that reuse the last stored value.
//
// A factory error stores nothing, drops any previous entry and is returned to
// every caller waiting on the computation. A factory that looks up a key it is
// itself computing gets domain.ErrReentrantComputation, whether or not it
// passes its Computation's context along. Callers stop waiting
// when ctx is done; the computation continues and its value is stored.
func (c *Cache[K, V]) GetWithPrevious(ctx context.Context, key K, factory IncrementalFactory[K, V]) (V, error) {
	var zero V

	id := c.name + ":" + key.String()
	callers := chainFrom(ctx).union(runningChain(goroutineID()))
	if callers.contains(id) {
		return zero, zerr.With(zerr.With(domain.ErrReentrantComputation, "cache", c.name), "key", key.String())
	}

	if value, ok := c.lookup(key); ok {
		lookupsTotal.WithLabelValues(c.name, "hit").Inc()
		return value, nil
	}
	lookupsTotal.WithLabelValues(c.name, "miss").Inc()

	computing := callers.with(id)
	compCtx := withChain(context.WithoutCancel(ctx), computing)
	ch := c.flight.DoChan(key.String(), func() (any, error) {
		// A computation for key may have finished between lookup and DoChan.
		if value, ok := c.lookup(key); ok {
			return value, nil
		}
		defer enter(computing)()
		return c.compute(compCtx, key, factory)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		value, _ := res.Val.(V)
		return value, nil
	case <-ctx.Done():
		return zero, zerr.With(zerr.Wrap(ctx.Err(), "abandoned waiting for computation"), "key", key.String())
	}
}

// Invalidate drops the entry for key.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, stale ones included.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// lookup returns the stored value for key if it is fresh. Dependencies are
// checked outside the lock since file dependencies stat the disk.
func (c *Cache[K, V]) lookup(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}
	if e.stale() {
		invalidationsTotal.WithLabelValues(c.name).Inc()
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Cache[K, V]) previous(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[key]; ok {
		return e.value, true
	}
	var zero V
	return zero, false
}

func (c *Cache[K, V]) compute(ctx context.Context, key K, factory IncrementalFactory[K, V]) (any, error) {
	comp := &Computation[K]{key: key, ctx: ctx}
	prev, hasPrev := c.previous(key)

	value, err := factory(comp, prev, hasPrev)
	if err != nil {
		computationsTotal.WithLabelValues(c.name, "error").Inc()
		c.Invalidate(key)
		return nil, err
	}
	computationsTotal.WithLabelValues(c.name, "ok").Inc()

	c.mu.Lock()
	c.entries[key] = &entry[V]{value: value, deps: comp.dependencies()}
	c.mu.Unlock()

	return value, nil
}
