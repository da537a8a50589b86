package valueops

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/funvibe/steinlang/internal/ast"
	"github.com/funvibe/steinlang/internal/evalerrors"
)

func TestAddPreservesOperandKind(t *testing.T) {
	v, err := Add(ast.IntLit(2), ast.IntLit(3))
	require.NoError(t, err)
	require.Equal(t, ast.IntLit(5), v)

	v, err = Add(ast.FloatLit(1.5), ast.FloatLit(2.5))
	require.NoError(t, err)
	require.Equal(t, ast.FloatLit(4.0), v)
}

func TestAddKindMismatchYieldsNone(t *testing.T) {
	v, err := Add(ast.IntLit(1), ast.BoolLit(true))
	require.NoError(t, err)
	require.Equal(t, ast.None(), v)
}

// Add scopes arithmetic to int/float (spec.md §4.2); string is not a valid
// Add operand even when both sides match, matching the original
// interpreter's NUM_BIN_OP(Add,+) having no string case.
func TestAddStringOperandsYieldNone(t *testing.T) {
	v, err := Add(ast.StringLit("foo"), ast.StringLit("bar"))
	require.NoError(t, err)
	require.Equal(t, ast.None(), v)
}

func TestDivByZeroReportsArithmeticError(t *testing.T) {
	_, err := Div(ast.IntLit(1), ast.IntLit(0))
	require.Error(t, err)
	require.IsType(t, &evalerrors.ArithmeticError{}, err)

	_, err = Div(ast.FloatLit(1), ast.FloatLit(0))
	require.Error(t, err)
	require.IsType(t, &evalerrors.ArithmeticError{}, err)
}

func TestDivNonZero(t *testing.T) {
	v, err := Div(ast.IntLit(7), ast.IntLit(2))
	require.NoError(t, err)
	require.Equal(t, ast.IntLit(3), v)
}

func TestNegAndBoolNot(t *testing.T) {
	require.Equal(t, ast.IntLit(-5), Neg(ast.IntLit(5)))
	require.Equal(t, ast.None(), Neg(ast.BoolLit(true)))
	require.Equal(t, ast.BoolLit(false), BoolNot(ast.BoolLit(true)))
	require.Equal(t, ast.None(), BoolNot(ast.IntLit(1)))
}

func TestComparisonsCrossKindYieldNone(t *testing.T) {
	require.Equal(t, ast.None(), Eq(ast.IntLit(1), ast.FloatLit(1)))
	require.Equal(t, ast.None(), Lt(ast.StringLit("a"), ast.IntLit(1)))
}

func TestOrderedComparisons(t *testing.T) {
	require.Equal(t, ast.BoolLit(true), Lt(ast.IntLit(1), ast.IntLit(2)))
	require.Equal(t, ast.BoolLit(false), Gt(ast.IntLit(1), ast.IntLit(2)))
	require.Equal(t, ast.BoolLit(true), Le(ast.IntLit(2), ast.IntLit(2)))
	require.Equal(t, ast.BoolLit(true), Ge(ast.IntLit(2), ast.IntLit(2)))
}

func TestBoolAndOr(t *testing.T) {
	require.Equal(t, ast.BoolLit(true), BoolAnd(ast.BoolLit(true), ast.BoolLit(true)))
	require.Equal(t, ast.BoolLit(false), BoolAnd(ast.BoolLit(true), ast.BoolLit(false)))
	require.Equal(t, ast.None(), BoolAnd(ast.BoolLit(true), ast.IntLit(1)))
	require.Equal(t, ast.BoolLit(true), BoolOr(ast.BoolLit(false), ast.BoolLit(true)))
}

func TestBoolOrdering(t *testing.T) {
	require.Equal(t, ast.BoolLit(true), Gt(ast.BoolLit(true), ast.BoolLit(false)))
}
