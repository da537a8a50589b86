// Package valueops implements steinlang's value-level operators: negation,
// boolean not, arithmetic, comparisons, and boolean and/or (spec.md §4.2).
// Mismatched operand kinds are not Go errors here — per spec.md §4.2 and
// §7, a kind mismatch produces `none` and the caller (the evaluator's
// BinOpFinal/MonOpFinal reduction rules) simply uses that result. The only
// error this package surfaces is ArithmeticError for division by zero,
// which the evaluator also folds into `none` on that path, matching the
// source's observable behavior.
package valueops

import (
	"github.com/funvibe/steinlang/internal/ast"
	"github.com/funvibe/steinlang/internal/evalerrors"
)

// Neg negates an int or float literal. Any other kind yields none.
func Neg(v ast.Literal) ast.Literal {
	switch v.Kind {
	case ast.KindInt:
		return ast.IntLit(-v.Int)
	case ast.KindFloat:
		return ast.FloatLit(-v.Float)
	default:
		return ast.None()
	}
}

// BoolNot negates a bool literal. Any other kind yields none.
func BoolNot(v ast.Literal) ast.Literal {
	if v.Kind != ast.KindBool {
		return ast.None()
	}
	return ast.BoolLit(!v.Bool)
}

// Add implements +. int+int->int, float+float->float; any other kind
// pairing, including string+string, yields none (spec.md §4.2 scopes
// arithmetic to int/float; string only participates in comparisons).
func Add(l, r ast.Literal) (ast.Literal, error) {
	switch {
	case l.Kind == ast.KindInt && r.Kind == ast.KindInt:
		return ast.IntLit(l.Int + r.Int), nil
	case l.Kind == ast.KindFloat && r.Kind == ast.KindFloat:
		return ast.FloatLit(l.Float + r.Float), nil
	default:
		return ast.None(), nil
	}
}

// Sub implements -, preserving operand kind.
func Sub(l, r ast.Literal) (ast.Literal, error) {
	switch {
	case l.Kind == ast.KindInt && r.Kind == ast.KindInt:
		return ast.IntLit(l.Int - r.Int), nil
	case l.Kind == ast.KindFloat && r.Kind == ast.KindFloat:
		return ast.FloatLit(l.Float - r.Float), nil
	default:
		return ast.None(), nil
	}
}

// Mul implements *, preserving operand kind.
func Mul(l, r ast.Literal) (ast.Literal, error) {
	switch {
	case l.Kind == ast.KindInt && r.Kind == ast.KindInt:
		return ast.IntLit(l.Int * r.Int), nil
	case l.Kind == ast.KindFloat && r.Kind == ast.KindFloat:
		return ast.FloatLit(l.Float * r.Float), nil
	default:
		return ast.None(), nil
	}
}

// Div implements /. Division by zero returns (none, ArithmeticError) for
// both int and float operands — see SPEC_FULL.md §5's resolution of
// spec.md §9's "Division semantics" open question.
func Div(l, r ast.Literal) (ast.Literal, error) {
	switch {
	case l.Kind == ast.KindInt && r.Kind == ast.KindInt:
		if r.Int == 0 {
			return ast.None(), &evalerrors.ArithmeticError{Msg: "integer division by zero"}
		}
		return ast.IntLit(l.Int / r.Int), nil
	case l.Kind == ast.KindFloat && r.Kind == ast.KindFloat:
		if r.Float == 0 {
			return ast.None(), &evalerrors.ArithmeticError{Msg: "float division by zero"}
		}
		return ast.FloatLit(l.Float / r.Float), nil
	default:
		return ast.None(), nil
	}
}

// BoolAnd and BoolOr implement && / ||. Both operands must be bool;
// otherwise the result is none.
func BoolAnd(l, r ast.Literal) ast.Literal {
	if l.Kind != ast.KindBool || r.Kind != ast.KindBool {
		return ast.None()
	}
	return ast.BoolLit(l.Bool && r.Bool)
}

func BoolOr(l, r ast.Literal) ast.Literal {
	if l.Kind != ast.KindBool || r.Kind != ast.KindBool {
		return ast.None()
	}
	return ast.BoolLit(l.Bool || r.Bool)
}

// cmpResult is the three-way comparison outcome for same-kind operands.
type cmpResult int

const (
	cmpLess cmpResult = iota
	cmpEqual
	cmpGreater
	cmpIncomparable
)

func compare(l, r ast.Literal) cmpResult {
	switch {
	case l.Kind == ast.KindInt && r.Kind == ast.KindInt:
		switch {
		case l.Int < r.Int:
			return cmpLess
		case l.Int > r.Int:
			return cmpGreater
		default:
			return cmpEqual
		}
	case l.Kind == ast.KindFloat && r.Kind == ast.KindFloat:
		switch {
		case l.Float < r.Float:
			return cmpLess
		case l.Float > r.Float:
			return cmpGreater
		default:
			return cmpEqual
		}
	case l.Kind == ast.KindString && r.Kind == ast.KindString:
		switch {
		case l.Str < r.Str:
			return cmpLess
		case l.Str > r.Str:
			return cmpGreater
		default:
			return cmpEqual
		}
	case l.Kind == ast.KindBool && r.Kind == ast.KindBool:
		switch {
		case l.Bool == r.Bool:
			return cmpEqual
		case l.Bool:
			return cmpGreater
		default:
			return cmpLess
		}
	default:
		return cmpIncomparable
	}
}

// Eq and Ne compare same-kind int, float, string or bool pairs for
// equality; cross-kind comparisons and every other kind (none, tuples,
// closures) yield none, per SPEC_FULL.md §5.
func Eq(l, r ast.Literal) ast.Literal {
	c := compare(l, r)
	if c == cmpIncomparable {
		return ast.None()
	}
	return ast.BoolLit(c == cmpEqual)
}

func Ne(l, r ast.Literal) ast.Literal {
	c := compare(l, r)
	if c == cmpIncomparable {
		return ast.None()
	}
	return ast.BoolLit(c != cmpEqual)
}

// Lt, Le, Gt, Ge implement ordered comparisons. Cross-kind operands (int vs
// float, string vs int, ...) yield none (spec.md §9).
func Lt(l, r ast.Literal) ast.Literal { return ordered(l, r, cmpLess) }
func Le(l, r ast.Literal) ast.Literal { return ordered(l, r, cmpLess, cmpEqual) }
func Gt(l, r ast.Literal) ast.Literal { return ordered(l, r, cmpGreater) }
func Ge(l, r ast.Literal) ast.Literal { return ordered(l, r, cmpGreater, cmpEqual) }

func ordered(l, r ast.Literal, accept ...cmpResult) ast.Literal {
	c := compare(l, r)
	if c == cmpIncomparable {
		return ast.None()
	}
	for _, a := range accept {
		if c == a {
			return ast.BoolLit(true)
		}
	}
	return ast.BoolLit(false)
}
