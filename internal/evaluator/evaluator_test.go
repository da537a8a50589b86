package evaluator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/funvibe/steinlang/internal/ast"
)

func runProgram(t *testing.T, prog *ast.Program, maxSteps int) (*Evaluator, []string) {
	t.Helper()
	ast.AssignSourceIDs(prog)
	arena := NewArena(0)
	ctx := NewEvalContext(prog)
	ev := New(ctx, arena)
	steps, err := ev.RunUpTo(maxSteps)
	require.NoError(t, err)
	require.Less(t, steps, maxSteps, "program did not terminate within the step budget")
	return ev, ev.ConsumeOutput()
}

func varExpr(name string) ast.Expression   { return &ast.VariableExpr{Name: name} }
func intExpr(v int64) ast.Expression       { return &ast.LiteralExpr{Value: ast.IntLit(v)} }
func boolExpr(v bool) ast.Expression       { return &ast.LiteralExpr{Value: ast.BoolLit(v)} }
func binExpr(op ast.BinOp, l, r ast.Expression) ast.Expression {
	return &ast.BinOpExpr{Op: op, Left: l, Right: r}
}

// scenario 1: print (2 * 3) + 1;
func TestEndToEnd_ArithmeticPrint(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.PrintStmt{Expr: binExpr(ast.OpAdd, binExpr(ast.OpMul, intExpr(2), intExpr(3)), intExpr(1))},
	}}
	_, out := runProgram(t, prog, 1000)
	require.Equal(t, []string{"int_val: 7"}, out)
}

// scenario 2: x = 10; y = x + 5; print y;
func TestEndToEnd_AssignmentAndReReference(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.AssignStmt{Lhs: varExpr("x"), Rhs: intExpr(10)},
		&ast.AssignStmt{Lhs: varExpr("y"), Rhs: binExpr(ast.OpAdd, varExpr("x"), intExpr(5))},
		&ast.PrintStmt{Expr: varExpr("y")},
	}}
	_, out := runProgram(t, prog, 1000)
	require.Equal(t, []string{"int_val: 15"}, out)
}

// scenario 3: n = 1; f = lambda: n + 10; n = 100; print f();
// Closures capture the environment by value but store cells are shared, so
// the later reassignment of n is observed through f's captured address.
func TestEndToEnd_ClosureCapturesBySharedAddress(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.AssignStmt{Lhs: varExpr("n"), Rhs: intExpr(1)},
		&ast.AssignStmt{Lhs: varExpr("f"), Rhs: &ast.LambdaExpr{
			Body: []ast.Statement{&ast.ReturnStmt{Expr: binExpr(ast.OpAdd, varExpr("n"), intExpr(10))}},
		}},
		&ast.AssignStmt{Lhs: varExpr("n"), Rhs: intExpr(100)},
		&ast.PrintStmt{Expr: &ast.CallExpr{Callee: varExpr("f")}},
	}}
	_, out := runProgram(t, prog, 1000)
	require.Equal(t, []string{"int_val: 110"}, out)
}

// scenario 4: fact = lambda n: 1 if n <= 1 else n * fact(n - 1); print fact(6);
func TestEndToEnd_RecursiveFactorial(t *testing.T) {
	factBody := []ast.Statement{
		&ast.ReturnStmt{Expr: &ast.TernaryExpr{
			Cond: binExpr(ast.OpLe, varExpr("n"), intExpr(1)),
			Then: intExpr(1),
			Else: binExpr(ast.OpMul, varExpr("n"), &ast.CallExpr{
				Callee: varExpr("fact"),
				Args:   []ast.Expression{binExpr(ast.OpSub, varExpr("n"), intExpr(1))},
			}),
		}},
	}
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.AssignStmt{Lhs: varExpr("fact"), Rhs: &ast.LambdaExpr{Params: []string{"n"}, Body: factBody}},
		&ast.PrintStmt{Expr: &ast.CallExpr{Callee: varExpr("fact"), Args: []ast.Expression{intExpr(6)}}},
	}}
	_, out := runProgram(t, prog, 10000)
	require.Equal(t, []string{"int_val: 720"}, out)
}

// scenario 5: print 1 + True;
func TestEndToEnd_TypeMismatchYieldsNone(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.PrintStmt{Expr: binExpr(ast.OpAdd, intExpr(1), boolExpr(true))},
	}}
	_, out := runProgram(t, prog, 1000)
	require.Equal(t, []string{"none_val: true"}, out)
}

// scenario 6: if 3 > 2 { print 1; } else { print 2; }
func TestEndToEnd_Branching(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.IfStmt{
			Cond: binExpr(ast.OpGt, intExpr(3), intExpr(2)),
			Then: []ast.Statement{&ast.PrintStmt{Expr: intExpr(1)}},
			Else: []ast.Statement{&ast.PrintStmt{Expr: intExpr(2)}},
		},
	}}
	_, out := runProgram(t, prog, 1000)
	require.Equal(t, []string{"int_val: 1"}, out)
}

func TestDoneAfterRun(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.PrintStmt{Expr: intExpr(1)},
	}}
	ev, _ := runProgram(t, prog, 1000)
	require.True(t, ev.Context().Done())
	require.False(t, ev.HasComputation())
}

func TestStepIsNoOpWhenDone(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{}}
	ev, _ := runProgram(t, prog, 10)
	require.NoError(t, ev.Step())
	require.True(t, ev.Context().Done())
}

// Unbound variables read as `none` on first reference (spec.md §4.4).
func TestUnboundVariableReadsAsNone(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.PrintStmt{Expr: varExpr("missing")},
	}}
	_, out := runProgram(t, prog, 1000)
	require.Equal(t, []string{"none_val: true"}, out)
}

// Calling a non-closure value is absorbed into `none`, not a crash.
func TestCallingNonClosureYieldsNone(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.AssignStmt{Lhs: varExpr("x"), Rhs: intExpr(5)},
		&ast.PrintStmt{Expr: &ast.CallExpr{Callee: varExpr("x"), Args: []ast.Expression{intExpr(1)}}},
	}}
	_, out := runProgram(t, prog, 1000)
	require.Equal(t, []string{"none_val: true"}, out)
}

// Arity mismatch surfaces as a host-visible ArityError (SPEC_FULL.md §5).
func TestArityMismatchIsHostVisible(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.AssignStmt{Lhs: varExpr("f"), Rhs: &ast.LambdaExpr{
			Params: []string{"a", "b"},
			Body:   []ast.Statement{&ast.ReturnStmt{Expr: varExpr("a")}},
		}},
		&ast.ExprStmt{Expr: &ast.CallExpr{Callee: varExpr("f"), Args: []ast.Expression{intExpr(1)}}},
	}}
	ast.AssignSourceIDs(prog)
	arena := NewArena(0)
	ctx := NewEvalContext(prog)
	ev := New(ctx, arena)
	_, err := ev.RunUpTo(1000)
	require.Error(t, err)
	require.Contains(t, err.Error(), "ArityError")
}

// Division by zero is absorbed into `none` on that path.
func TestDivisionByZeroYieldsNone(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.PrintStmt{Expr: binExpr(ast.OpDiv, intExpr(1), intExpr(0))},
	}}
	_, out := runProgram(t, prog, 1000)
	require.Equal(t, []string{"none_val: true"}, out)
}

// Assigning through a non-lvalue is absorbed (no crash, no store mutation).
func TestAssignToNonLvalueIsAbsorbed(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.AssignStmt{Lhs: intExpr(1), Rhs: intExpr(2)},
		&ast.PrintStmt{Expr: intExpr(9)},
	}}
	_, out := runProgram(t, prog, 1000)
	require.Equal(t, []string{"int_val: 9"}, out)
}

// Tuple construction preserves left-to-right element order.
func TestTupleConstruction(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.PrintStmt{Expr: &ast.TupleExpr{Elems: []ast.Expression{intExpr(1), intExpr(2), intExpr(3)}}},
	}}
	_, out := runProgram(t, prog, 1000)
	require.Equal(t, []string{"tuple_val: (int_val: 1, int_val: 2, int_val: 3)"}, out)
}

// Multiple prints appear in source order.
func TestOutputOrderMatchesSourceOrder(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.PrintStmt{Expr: intExpr(1)},
		&ast.PrintStmt{Expr: intExpr(2)},
		&ast.PrintStmt{Expr: intExpr(3)},
	}}
	_, out := runProgram(t, prog, 1000)
	require.Equal(t, []string{"int_val: 1", "int_val: 2", "int_val: 3"}, out)
}

// Snapshot/resume equivalence: stepping a snapshot continues identically to
// stepping the live machine (spec.md §8).
func TestSnapshotResumeEquivalence(t *testing.T) {
	factBody := []ast.Statement{
		&ast.ReturnStmt{Expr: &ast.TernaryExpr{
			Cond: binExpr(ast.OpLe, varExpr("n"), intExpr(1)),
			Then: intExpr(1),
			Else: binExpr(ast.OpMul, varExpr("n"), &ast.CallExpr{
				Callee: varExpr("fact"),
				Args:   []ast.Expression{binExpr(ast.OpSub, varExpr("n"), intExpr(1))},
			}),
		}},
	}
	newProg := func() *ast.Program {
		return &ast.Program{Statements: []ast.Statement{
			&ast.AssignStmt{Lhs: varExpr("fact"), Rhs: &ast.LambdaExpr{Params: []string{"n"}, Body: factBody}},
			&ast.PrintStmt{Expr: &ast.CallExpr{Callee: varExpr("fact"), Args: []ast.Expression{intExpr(5)}}},
		}}
	}

	progA := newProg()
	ast.AssignSourceIDs(progA)
	arenaA := NewArena(0)
	evA := New(NewEvalContext(progA), arenaA)
	for i := 0; i < 5; i++ {
		require.NoError(t, evA.Step())
	}
	snap := evA.Snapshot()

	progB := newProg()
	ast.AssignSourceIDs(progB)
	arenaB := NewArena(0)
	evB := New(NewEvalContext(progB), arenaB)
	for i := 0; i < 5; i++ {
		require.NoError(t, evB.Step())
	}

	// Resume A from its own (unreset) state, and resume a new evaluator C
	// from the snapshot taken at the same point; both should terminate with
	// identical output.
	_, errA := evA.RunUpTo(10000)
	require.NoError(t, errA)

	evC := New(snap, NewArena(0))
	_, errC := evC.RunUpTo(10000)
	require.NoError(t, errC)

	require.Equal(t, evA.ConsumeOutput(), evC.ConsumeOutput())
	_ = evB
}

// Compaction is observationally equivalent to the identity transformation.
func TestCompactionIsObservationallyTransparent(t *testing.T) {
	factBody := []ast.Statement{
		&ast.ReturnStmt{Expr: &ast.TernaryExpr{
			Cond: binExpr(ast.OpLe, varExpr("n"), intExpr(1)),
			Then: intExpr(1),
			Else: binExpr(ast.OpMul, varExpr("n"), &ast.CallExpr{
				Callee: varExpr("fact"),
				Args:   []ast.Expression{binExpr(ast.OpSub, varExpr("n"), intExpr(1))},
			}),
		}},
	}
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.AssignStmt{Lhs: varExpr("fact"), Rhs: &ast.LambdaExpr{Params: []string{"n"}, Body: factBody}},
		&ast.PrintStmt{Expr: &ast.CallExpr{Callee: varExpr("fact"), Args: []ast.Expression{intExpr(6)}}},
	}}
	ast.AssignSourceIDs(prog)

	// A very low compaction threshold forces Compact() to fire on nearly
	// every step.
	arena := NewArena(1)
	ev := New(NewEvalContext(prog), arena)
	_, err := ev.RunUpTo(100000)
	require.NoError(t, err)
	require.Equal(t, []string{"int_val: 720"}, ev.ConsumeOutput())
}

func TestCompactPreservesStore(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.AssignStmt{Lhs: varExpr("x"), Rhs: intExpr(42)},
	}}
	ast.AssignSourceIDs(prog)
	arena := NewArena(0)
	ev := New(NewEvalContext(prog), arena)
	_, err := ev.RunUpTo(1000)
	require.NoError(t, err)

	ev.Compact()
	addr := ev.Lookup("x")
	require.Equal(t, ast.IntLit(42), ev.Context().Store.Get(addr))
}
