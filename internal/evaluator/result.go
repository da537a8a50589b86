package evaluator

import (
	"github.com/funvibe/steinlang/internal/ast"
	"github.com/funvibe/steinlang/internal/store"
)

// ResultKind tags the variant held by a Result.
type ResultKind uint8

const (
	// ResultRvalue holds an owned literal value.
	ResultRvalue ResultKind = iota
	// ResultLvalue holds a reference to a store address.
	ResultLvalue
)

// Result is a single entry on a LocalContext's result stack: either an
// rvalue (an owned literal) or an lvalue reference (a store address).
// Assignments require an lvalue on the left; most operations consume
// rvalues, dereferencing lvalues as needed (spec.md §3).
type Result struct {
	Kind  ResultKind
	Value ast.Literal
	Addr  store.Address
}

func Rvalue(v ast.Literal) Result {
	return Result{Kind: ResultRvalue, Value: v}
}

func Lvalue(addr store.Address) Result {
	return Result{Kind: ResultLvalue, Addr: addr}
}

func (r Result) IsLvalue() bool { return r.Kind == ResultLvalue }

// Deref resolves r to a literal, reading through the store if r is an
// lvalue reference.
func (r Result) Deref(s *store.Store) ast.Literal {
	if r.Kind == ResultLvalue {
		return s.Get(r.Addr)
	}
	return r.Value
}
