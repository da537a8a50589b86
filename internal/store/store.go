// Package store implements steinlang's append-only value store: an array of
// mutable literal cells addressed by integer index (spec.md §2, §4.4).
package store

import "github.com/funvibe/steinlang/internal/ast"

// Address is a stable integer index into a Store. Addresses are never
// invalidated or reused for the lifetime of the Store that issued them
// (spec.md §3, "Invariants").
type Address int

// Store is the append-only vector of literal cells shared across every call
// frame of one EvalContext. Cells are never freed; swapping a cell's value
// preserves its address, which is how a captured closure environment keeps
// observing mutations performed through a shared address (spec.md §4.4).
type Store struct {
	cells []ast.Literal
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Alloc appends a new cell initialized to v and returns its address.
func (s *Store) Alloc(v ast.Literal) Address {
	s.cells = append(s.cells, v)
	return Address(len(s.cells) - 1)
}

// Get returns the literal held at addr. Panics if addr is out of range,
// which per spec.md §3's invariants never happens for a well-formed
// evaluator: every lvalue_ref result holds an address < store.len().
func (s *Store) Get(addr Address) ast.Literal {
	return s.cells[addr]
}

// Set overwrites the cell at addr with v, preserving the address.
func (s *Store) Set(addr Address, v ast.Literal) {
	s.cells[addr] = v
}

// Len reports the number of allocated cells.
func (s *Store) Len() int {
	return len(s.cells)
}

// Cells returns the backing slice directly, for serialization
// (internal/storage) and deep-copy (internal/evaluator) use only.
func (s *Store) Cells() []ast.Literal {
	return s.cells
}

// Clone returns a store with an independent backing array holding the same
// cell values. Used when snapshotting an EvalContext for persistence or
// when compaction rebuilds the EvalContext (spec.md §4.5).
func (s *Store) Clone() *Store {
	out := make([]ast.Literal, len(s.cells))
	copy(out, s.cells)
	return &Store{cells: out}
}

// FromCells rebuilds a Store from a previously captured cell slice
// (used when deserializing a persisted EvalContext).
func FromCells(cells []ast.Literal) *Store {
	out := make([]ast.Literal, len(cells))
	copy(out, cells)
	return &Store{cells: out}
}
