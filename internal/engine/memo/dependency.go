// Package memo implements a memoizing cache whose entries are invalidated by
// the dependencies observed while computing them.
package memo

// Dependency is an invalidation signal captured while a value was computed.
// A cached value is stale as soon as any of its dependencies has changed.
type Dependency interface {
	HasChanged() bool
}
