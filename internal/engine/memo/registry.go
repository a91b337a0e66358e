package memo

import (
	"strconv"
	"sync"
	"sync/atomic"
)

// Registry holds named generation counters. Producers Trigger a name when they
// recompute; consumers capture a Dependency on the name and become stale once
// the generation moves. Names are never removed.
type Registry struct {
	mu     sync.RWMutex
	tokens map[string]*atomic.Uint64
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tokens: make(map[string]*atomic.Uint64)}
}

// Trigger increments the generation of name and returns the new value.
// A name that was never triggered moves from 0 to 1.
func (r *Registry) Trigger(name string) uint64 {
	return r.counter(name).Add(1)
}

// Generation returns the current generation of name, 0 if never triggered.
func (r *Registry) Generation(name string) uint64 {
	r.mu.RLock()
	c, ok := r.tokens[name]
	r.mu.RUnlock()
	if !ok {
		return 0
	}
	return c.Load()
}

// GetDependency captures the current generation of name.
func (r *Registry) GetDependency(name string) Dependency {
	return r.DependencyAt(name, r.Generation(name))
}

// DependencyAt captures an explicit generation of name. Consumers use it to
// monitor exactly the generation of the value they read, so a trigger that
// lands between the read and the capture is not lost.
func (r *Registry) DependencyAt(name string, generation uint64) Dependency {
	return &namedDependency{registry: r, name: name, generation: generation}
}

func (r *Registry) counter(name string) *atomic.Uint64 {
	r.mu.RLock()
	c, ok := r.tokens[name]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok = r.tokens[name]; ok {
		return c
	}
	c = new(atomic.Uint64)
	r.tokens[name] = c
	return c
}

type namedDependency struct {
	registry   *Registry
	name       string
	generation uint64
}

func (d *namedDependency) HasChanged() bool {
	return d.registry.Generation(d.name) != d.generation
}

func (d *namedDependency) String() string {
	return d.name + "#" + strconv.FormatUint(d.generation, 10)
}
