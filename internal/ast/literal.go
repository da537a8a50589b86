// Package ast defines steinlang's syntax model (expressions and statements)
// together with its value model (literals, tuples, closures). A real
// tokenizer and grammar-driven parser build these nodes from source text;
// that pipeline lives outside this module (spec.md §1, "OUT OF SCOPE") and
// is treated as an external collaborator. This package only describes the
// shapes it produces.
package ast

import "fmt"

// Kind tags the variant held by a Literal.
type Kind uint8

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTuple
	KindClosure
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTuple:
		return "tuple"
	case KindClosure:
		return "closure"
	default:
		return "unknown"
	}
}

// Literal is steinlang's tagged-union value: none, bool, int, float, string,
// tuple, or closure. A Literal is a value in three possible homes: owned by
// a store cell (an lvalue), owned by a result on the result stack (an
// rvalue), or embedded in an expression node as a constant (spec.md §3).
type Literal struct {
	Kind    Kind
	Bool    bool
	Int     int64
	Float   float64
	Str     string
	Tuple   *Tuple
	Closure *Closure
}

// None is the zero-valued literal every uninitialized store cell starts as.
func None() Literal { return Literal{Kind: KindNone} }

func BoolLit(v bool) Literal    { return Literal{Kind: KindBool, Bool: v} }
func IntLit(v int64) Literal    { return Literal{Kind: KindInt, Int: v} }
func FloatLit(v float64) Literal { return Literal{Kind: KindFloat, Float: v} }
func StringLit(v string) Literal { return Literal{Kind: KindString, Str: v} }
func TupleLit(t *Tuple) Literal  { return Literal{Kind: KindTuple, Tuple: t} }
func ClosureLit(c *Closure) Literal { return Literal{Kind: KindClosure, Closure: c} }

// Tuple is a fixed-length, ordered sequence of literals.
type Tuple struct {
	Elems []Literal
}

// Closure is (ordered parameter names, statement body, captured environment).
// The captured environment is a snapshot by value taken at lambda-evaluation
// time: later mutations to the creator's environment bindings do not add or
// remove entries in C.Env, but mutations through an address already shared
// between C.Env and the creator's environment are observed, because both
// point at the same store cell (spec.md §3, §4.4).
type Closure struct {
	Params []string
	Body   []Statement
	Env    Environment
}

// Environment maps a variable name to its store address within one call
// frame. It is always copied by value on closure creation and on call-frame
// entry; the store cells its addresses reference are never copied.
type Environment map[string]int

// Clone returns a shallow value-copy of e: a new map with the same
// name->address bindings. The addresses themselves keep pointing at the
// same store cells.
func (e Environment) Clone() Environment {
	out := make(Environment, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Format renders a literal the way steinlang's print statement does:
// "<kind>_val: <value>".
func (l Literal) Format() string {
	switch l.Kind {
	case KindNone:
		return "none_val: true"
	case KindBool:
		return fmt.Sprintf("bool_val: %t", l.Bool)
	case KindInt:
		return fmt.Sprintf("int_val: %d", l.Int)
	case KindFloat:
		return fmt.Sprintf("float_val: %g", l.Float)
	case KindString:
		return fmt.Sprintf("string_val: %q", l.Str)
	case KindTuple:
		return fmt.Sprintf("tuple_val: %s", formatTuple(l.Tuple))
	case KindClosure:
		return fmt.Sprintf("closure_val: <%d params>", len(l.Closure.Params))
	default:
		return "none_val: true"
	}
}

func formatTuple(t *Tuple) string {
	if t == nil {
		return "()"
	}
	s := "("
	for i, e := range t.Elems {
		if i > 0 {
			s += ", "
		}
		s += e.Format()
	}
	return s + ")"
}
