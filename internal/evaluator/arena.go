package evaluator

import (
	"unsafe"

	"github.com/funvibe/steinlang/internal/ast"
	"github.com/funvibe/steinlang/internal/memory"
)

const defaultBlockSize = 128

// Arena composes steinlang's pooled node kinds (spec.md §4.1) out of
// memory.TypedArena[T] instances — one per concrete Go type, since
// Expression and Statement are interfaces over several variant structs.
// Grouping them here, rather than inside internal/memory, keeps the arena
// primitive itself free of any dependency on steinlang's AST. Result and
// Computation are plain value slices on LocalContext (context.go) rather
// than pooled handles — they are copied wholesale with their owning
// LocalContext, never individually allocated or released, so only
// LocalContext itself needs a pool here.
type Arena struct {
	CompactionThreshold int64

	locals *memory.TypedArena[LocalContext]

	variableExprs *memory.TypedArena[ast.VariableExpr]
	literalExprs  *memory.TypedArena[ast.LiteralExpr]
	lambdaExprs   *memory.TypedArena[ast.LambdaExpr]
	monOpExprs    *memory.TypedArena[ast.MonOpExpr]
	binOpExprs    *memory.TypedArena[ast.BinOpExpr]
	ternaryExprs  *memory.TypedArena[ast.TernaryExpr]
	tupleExprs    *memory.TypedArena[ast.TupleExpr]
	callExprs     *memory.TypedArena[ast.CallExpr]

	exprStmts   *memory.TypedArena[ast.ExprStmt]
	assignStmts *memory.TypedArena[ast.AssignStmt]
	returnStmts *memory.TypedArena[ast.ReturnStmt]
	printStmts  *memory.TypedArena[ast.PrintStmt]
	ifStmts     *memory.TypedArena[ast.IfStmt]

	closures *memory.TypedArena[ast.Closure]
}

// NewArena builds an arena whose step-loop compaction (spec.md §4.5) fires
// once the estimated live-byte count exceeds thresholdBytes. A
// non-positive threshold disables compaction.
func NewArena(thresholdBytes int64) *Arena {
	return &Arena{
		CompactionThreshold: thresholdBytes,

		locals: memory.NewTypedArena[LocalContext](16),

		variableExprs: memory.NewTypedArena[ast.VariableExpr](defaultBlockSize),
		literalExprs:  memory.NewTypedArena[ast.LiteralExpr](defaultBlockSize),
		lambdaExprs:   memory.NewTypedArena[ast.LambdaExpr](32),
		monOpExprs:    memory.NewTypedArena[ast.MonOpExpr](defaultBlockSize),
		binOpExprs:    memory.NewTypedArena[ast.BinOpExpr](defaultBlockSize),
		ternaryExprs:  memory.NewTypedArena[ast.TernaryExpr](32),
		tupleExprs:    memory.NewTypedArena[ast.TupleExpr](32),
		callExprs:     memory.NewTypedArena[ast.CallExpr](defaultBlockSize),

		exprStmts:   memory.NewTypedArena[ast.ExprStmt](defaultBlockSize),
		assignStmts: memory.NewTypedArena[ast.AssignStmt](defaultBlockSize),
		returnStmts: memory.NewTypedArena[ast.ReturnStmt](defaultBlockSize),
		printStmts:  memory.NewTypedArena[ast.PrintStmt](defaultBlockSize),
		ifStmts:     memory.NewTypedArena[ast.IfStmt](32),

		closures: memory.NewTypedArena[ast.Closure](32),
	}
}

var (
	sizeofLocal       = int64(unsafe.Sizeof(LocalContext{}))
	sizeofVariable    = int64(unsafe.Sizeof(ast.VariableExpr{}))
	sizeofLiteralExpr = int64(unsafe.Sizeof(ast.LiteralExpr{}))
	sizeofLambdaExpr  = int64(unsafe.Sizeof(ast.LambdaExpr{}))
	sizeofMonOpExpr   = int64(unsafe.Sizeof(ast.MonOpExpr{}))
	sizeofBinOpExpr   = int64(unsafe.Sizeof(ast.BinOpExpr{}))
	sizeofTernary     = int64(unsafe.Sizeof(ast.TernaryExpr{}))
	sizeofTupleExpr   = int64(unsafe.Sizeof(ast.TupleExpr{}))
	sizeofCallExpr    = int64(unsafe.Sizeof(ast.CallExpr{}))
	sizeofExprStmt    = int64(unsafe.Sizeof(ast.ExprStmt{}))
	sizeofAssignStmt  = int64(unsafe.Sizeof(ast.AssignStmt{}))
	sizeofReturnStmt  = int64(unsafe.Sizeof(ast.ReturnStmt{}))
	sizeofPrintStmt   = int64(unsafe.Sizeof(ast.PrintStmt{}))
	sizeofIfStmt      = int64(unsafe.Sizeof(ast.IfStmt{}))
	sizeofClosure     = int64(unsafe.Sizeof(ast.Closure{}))
)

// LiveBytes returns the running counter of live arena bytes (spec.md
// §4.1): the sum, over every pooled kind, of (live instance count *
// approximate struct size). It is an estimate — slice/string payloads
// owned by individual literals or closures are not walked — good enough to
// drive the compaction threshold the way spec.md §4.5 describes.
func (a *Arena) LiveBytes() int64 {
	return a.locals.Live()*sizeofLocal +
		a.variableExprs.Live()*sizeofVariable +
		a.literalExprs.Live()*sizeofLiteralExpr +
		a.lambdaExprs.Live()*sizeofLambdaExpr +
		a.monOpExprs.Live()*sizeofMonOpExpr +
		a.binOpExprs.Live()*sizeofBinOpExpr +
		a.ternaryExprs.Live()*sizeofTernary +
		a.tupleExprs.Live()*sizeofTupleExpr +
		a.callExprs.Live()*sizeofCallExpr +
		a.exprStmts.Live()*sizeofExprStmt +
		a.assignStmts.Live()*sizeofAssignStmt +
		a.returnStmts.Live()*sizeofReturnStmt +
		a.printStmts.Live()*sizeofPrintStmt +
		a.ifStmts.Live()*sizeofIfStmt +
		a.closures.Live()*sizeofClosure
}

// ShouldCompact reports whether LiveBytes has crossed CompactionThreshold
// (spec.md §4.5's "every step checks the arena's live-bytes counter").
func (a *Arena) ShouldCompact() bool {
	return a.CompactionThreshold > 0 && a.LiveBytes() > a.CompactionThreshold
}

// Reset drops every block and free-list this arena holds, invalidating all
// previously issued handles (spec.md §4.1). The evaluator only calls this
// after deep-copying the EvalContext it protects into a fresh allocation
// (spec.md §3, "Lifecycle").
func (a *Arena) Reset() {
	a.locals.Reset()
	a.variableExprs.Reset()
	a.literalExprs.Reset()
	a.lambdaExprs.Reset()
	a.monOpExprs.Reset()
	a.binOpExprs.Reset()
	a.ternaryExprs.Reset()
	a.tupleExprs.Reset()
	a.callExprs.Reset()
	a.exprStmts.Reset()
	a.assignStmts.Reset()
	a.returnStmts.Reset()
	a.printStmts.Reset()
	a.ifStmts.Reset()
	a.closures.Reset()
}
