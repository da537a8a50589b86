package evaluator

import "github.com/funvibe/steinlang/internal/ast"

// CompKind tags the variant held by a Computation — a single unit of
// pending work on the computation stack, the evaluator's reified
// continuation chain (spec.md §3, §9).
type CompKind uint8

const (
	CompExpression CompKind = iota
	CompStatement
	CompBinOpFinal
	CompMonOpFinal
	CompTupleFinal
	CompIgnoreOneResult
	CompAssignFinal
	CompCallFinal
	CompReturnFromFrame
	CompIfElseFinal
	CompPrintFinal
)

// Computation is one entry on a LocalContext's computation stack.
// Only the fields relevant to Kind are meaningful; see spec.md §3 for the
// full variant list.
type Computation struct {
	Kind CompKind

	Expr ast.Expression // CompExpression
	Stmt ast.Statement  // CompStatement

	BinOp ast.BinOp // CompBinOpFinal
	MonOp ast.MonOp // CompMonOpFinal

	TupleSize int // CompTupleFinal
	CallArity int // CompCallFinal

	Then []Computation // CompIfElseFinal
	Else []Computation // CompIfElseFinal
}

func exprComp(e ast.Expression) Computation {
	return Computation{Kind: CompExpression, Expr: e}
}

func stmtComp(s ast.Statement) Computation {
	return Computation{Kind: CompStatement, Stmt: s}
}
