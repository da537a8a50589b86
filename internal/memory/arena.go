// Package memory implements the pooled arena allocator steinlang's
// evaluator uses to amortize allocation of its short-lived node kinds
// (spec.md §4.1). It is deliberately generic and knows nothing about
// steinlang's AST or evaluator types: internal/evaluator composes one
// TypedArena[T] per pooled kind (LocalContext, and one per Expression,
// Statement, and Closure variant) to build its own concrete Arena.
package memory

// TypedArena allocates values of type T from bulk-allocated blocks and
// recycles released instances through a free-list, giving O(1) amortized
// allocation without per-value heap churn once the free-list is warm.
type TypedArena[T any] struct {
	blockSize int
	block     []T
	used      int
	free      []*T
	liveCount int
}

// NewTypedArena returns an arena that allocates T in blocks of blockSize.
func NewTypedArena[T any](blockSize int) *TypedArena[T] {
	if blockSize <= 0 {
		blockSize = 64
	}
	return &TypedArena[T]{blockSize: blockSize}
}

// Allocate returns a handle to a cleared T: either a recycled instance
// popped from the free-list, or a fresh slot carved from the current block
// (allocating a new block first if the current one is exhausted).
func (a *TypedArena[T]) Allocate() *T {
	a.liveCount++
	if n := len(a.free); n > 0 {
		v := a.free[n-1]
		a.free = a.free[:n-1]
		var zero T
		*v = zero
		return v
	}
	if a.block == nil || a.used >= len(a.block) {
		a.block = make([]T, a.blockSize)
		a.used = 0
	}
	v := &a.block[a.used]
	a.used++
	return v
}

// Release returns v to the free-list. Released instances must not be
// referenced again by the caller (spec.md §4.1's "release<T>(handle)"
// contract) — Release does not itself clear v; the next Allocate call does.
func (a *TypedArena[T]) Release(v *T) {
	a.free = append(a.free, v)
	a.liveCount--
	if a.liveCount < 0 {
		a.liveCount = 0
	}
}

// Reset drops every block and free-list entry this arena holds, invalidating
// every handle it has ever issued. Resetting while a handle is still
// reachable from live state is a correctness bug in the caller, exactly as
// spec.md §4.1 describes.
func (a *TypedArena[T]) Reset() {
	a.block = nil
	a.used = 0
	a.free = nil
	a.liveCount = 0
}

// Live reports the number of currently-allocated-and-not-released instances.
func (a *TypedArena[T]) Live() int {
	return a.liveCount
}
