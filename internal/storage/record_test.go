package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/funvibe/steinlang/internal/ast"
	"github.com/funvibe/steinlang/internal/evaluator"
	"github.com/funvibe/steinlang/internal/store"
)

func sampleEvalContext() *evaluator.EvalContext {
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.AssignStmt{Lhs: &ast.VariableExpr{Name: "n"}, Rhs: &ast.LiteralExpr{Value: ast.IntLit(1)}},
		&ast.PrintStmt{Expr: &ast.VariableExpr{Name: "n"}},
		&ast.IfStmt{
			Cond: &ast.LiteralExpr{Value: ast.BoolLit(true)},
			Then: []ast.Statement{&ast.PrintStmt{Expr: &ast.LiteralExpr{Value: ast.StringLit("yes")}}},
			Else: []ast.Statement{&ast.PrintStmt{Expr: &ast.LiteralExpr{Value: ast.StringLit("no")}}},
		},
	}}
	ast.AssignSourceIDs(prog)

	ec := evaluator.NewEvalContext(prog)
	arena := evaluator.NewArena(0)
	ev := evaluator.New(ec, arena)
	_, err := ev.RunUpTo(1000)
	if err != nil {
		panic(err)
	}
	return ev.Context()
}

func TestEncodeDecodeEvalContextRoundTrips(t *testing.T) {
	ec := sampleEvalContext()
	blob := EncodeEvalContext(ec)
	require.NotEmpty(t, blob)

	decoded, err := DecodeEvalContext(blob)
	require.NoError(t, err)

	require.Equal(t, ec.Output, decoded.Output)
	require.Equal(t, ec.Store.Cells(), decoded.Store.Cells())
	require.True(t, decoded.Done())
}

func TestEncodeDecodeLiteralAllKinds(t *testing.T) {
	lits := []ast.Literal{
		ast.None(),
		ast.BoolLit(true),
		ast.IntLit(-42),
		ast.FloatLit(3.25),
		ast.StringLit("hello"),
		ast.TupleLit(&ast.Tuple{Elems: []ast.Literal{ast.IntLit(1), ast.BoolLit(false)}}),
		ast.ClosureLit(&ast.Closure{
			Params: []string{"x", "y"},
			Body:   []ast.Statement{&ast.ReturnStmt{Expr: &ast.VariableExpr{Name: "x"}}},
			Env:    ast.Environment{"z": 3},
		}),
	}
	for _, lit := range lits {
		encoded := encodeLiteral(lit)
		decoded, err := decodeLiteral(encoded)
		require.NoError(t, err)
		require.Equal(t, lit.Kind, decoded.Kind)
		switch lit.Kind {
		case ast.KindBool:
			require.Equal(t, lit.Bool, decoded.Bool)
		case ast.KindInt:
			require.Equal(t, lit.Int, decoded.Int)
		case ast.KindFloat:
			require.Equal(t, lit.Float, decoded.Float)
		case ast.KindString:
			require.Equal(t, lit.Str, decoded.Str)
		case ast.KindTuple:
			require.Equal(t, lit.Tuple.Elems, decoded.Tuple.Elems)
		case ast.KindClosure:
			require.Equal(t, lit.Closure.Params, decoded.Closure.Params)
			require.Equal(t, lit.Closure.Env, decoded.Closure.Env)
		}
	}
}

func TestDecodeEvalContextUnknownExpressionOrStatementErrors(t *testing.T) {
	_, err := decodeExpression([]byte{0x08, 0xFF, 0x01})
	require.Error(t, err)

	_, err = decodeStatement([]byte{0x08, 0xFF, 0x01})
	require.Error(t, err)
}

func TestNewStoreHasNoCells(t *testing.T) {
	s := store.New()
	cells := s.Cells()
	require.Empty(t, cells)
}
