package memo

import (
	"bytes"
	"context"
	"runtime"
	"slices"
	"strconv"
	"sync"
)

// Computation is handed to a factory while it computes the value for Key.
// The factory registers the inputs it read with Monitor.
type Computation[K comparable] struct {
	key  K
	ctx  context.Context
	mu   sync.Mutex
	deps []Dependency
}

// Key returns the key being computed.
func (c *Computation[K]) Key() K { return c.key }

// Context returns the context for nested lookups. It carries the chain of keys
// under computation and is never cancelled.
func (c *Computation[K]) Context() context.Context { return c.ctx }

// Monitor records dep. Any dependency that later reports a change makes the
// stored value stale.
func (c *Computation[K]) Monitor(dep Dependency) {
	if dep == nil {
		return
	}
	c.mu.Lock()
	c.deps = append(c.deps, dep)
	c.mu.Unlock()
}

func (c *Computation[K]) dependencies() []Dependency {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.deps)
}

type chainKey struct{}

// chain lists the cache entries being computed by the callers of ctx,
// innermost last.
type chain []string

func chainFrom(ctx context.Context) chain {
	c, _ := ctx.Value(chainKey{}).(chain)
	return c
}

func (c chain) contains(id string) bool {
	return slices.Contains(c, id)
}

func (c chain) with(id string) chain {
	next := make(chain, len(c), len(c)+1)
	copy(next, c)
	return append(next, id)
}

// union appends the entries of other missing from c.
func (c chain) union(other chain) chain {
	if len(other) == 0 {
		return c
	}
	merged := slices.Clone(c)
	for _, id := range other {
		if !merged.contains(id) {
			merged = append(merged, id)
		}
	}
	return merged
}

func withChain(ctx context.Context, c chain) context.Context {
	return context.WithValue(ctx, chainKey{}, c)
}

// running maps the goroutines executing a factory to the chain they compute.
// A factory that reaches Get without its Computation's context is still
// recognised through the goroutine it runs on.
var running = struct {
	mu     sync.Mutex
	chains map[uint64]chain
}{chains: make(map[uint64]chain)}

func runningChain(gid uint64) chain {
	running.mu.Lock()
	defer running.mu.Unlock()
	return running.chains[gid]
}

// enter records that the current goroutine computes c until the returned
// function is called.
func enter(c chain) func() {
	gid := goroutineID()
	running.mu.Lock()
	running.chains[gid] = c
	running.mu.Unlock()
	return func() {
		running.mu.Lock()
		delete(running.chains, gid)
		running.mu.Unlock()
	}
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID parses the id from the header of the current goroutine's stack.
func goroutineID() uint64 {
	var buf [64]byte
	header := bytes.TrimPrefix(buf[:runtime.Stack(buf[:], false)], goroutinePrefix)
	if i := bytes.IndexByte(header, ' '); i > 0 {
		id, _ := strconv.ParseUint(string(header[:i]), 10, 64)
		return id
	}
	return 0
}
