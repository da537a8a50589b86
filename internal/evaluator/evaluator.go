// Package evaluator implements steinlang's small-step, stack-based machine
// (spec.md §2, §4.3): an explicit computation stack in place of recursive
// descent, so execution can be paused after any single step, inspected,
// snapshotted, and resumed.
package evaluator

import (
	"github.com/funvibe/steinlang/internal/ast"
	"github.com/funvibe/steinlang/internal/evalerrors"
	"github.com/funvibe/steinlang/internal/store"
	"github.com/funvibe/steinlang/internal/valueops"
)

// Evaluator advances an EvalContext by exactly one atomic rule per Step()
// call (spec.md §4.3). It owns the pooled arena backing the EvalContext's
// short-lived nodes and performs compaction transparently.
type Evaluator struct {
	ctx   *EvalContext
	arena *Arena
}

// New builds an Evaluator over ctx, allocated by arena. Per spec.md §6,
// the EvalContext must have been allocated by the same allocator passed
// here — in this implementation that just means subsequent deep copies
// (Lambda captures, CallFinal's per-call body copy, compaction) all flow
// through this arena.
func New(ctx *EvalContext, arena *Arena) *Evaluator {
	return &Evaluator{ctx: ctx, arena: arena}
}

// Context exposes the machine's current state (read-only use expected;
// internal/storage and internal/cli read Output/Store/Done through it).
func (ev *Evaluator) Context() *EvalContext { return ev.ctx }

// HasComputation reports whether the current local context has pending
// work (spec.md §4.3).
func (ev *Evaluator) HasComputation() bool {
	return len(ev.ctx.Current.Comps) > 0
}

// ConsumeOutput drains and returns the buffered print outputs accumulated
// since the last call (spec.md §6).
func (ev *Evaluator) ConsumeOutput() []string {
	out := ev.ctx.Output
	ev.ctx.Output = nil
	return out
}

// Lookup returns the store address bound to name in the current
// environment, allocating a fresh `none`-valued cell on first reference
// (spec.md §4.3, §4.4 — "implicit declaration").
func (ev *Evaluator) Lookup(name string) store.Address {
	lc := ev.ctx.Current
	if addr, ok := lc.Env[name]; ok {
		return store.Address(addr)
	}
	addr := ev.ctx.Store.Alloc(ast.None())
	lc.Env[name] = int(addr)
	return addr
}

// Assign binds name to value in the current environment: overwriting the
// existing cell if name is already bound, or allocating a new one
// otherwise (spec.md §4.3).
func (ev *Evaluator) Assign(name string, value ast.Literal) store.Address {
	lc := ev.ctx.Current
	if addr, ok := lc.Env[name]; ok {
		a := store.Address(addr)
		ev.ctx.Store.Set(a, value)
		return a
	}
	addr := ev.ctx.Store.Alloc(value)
	lc.Env[name] = int(addr)
	return addr
}

// Step advances the machine by exactly one atomic rule: it pops one
// computation from the top of the current computation stack and executes
// its reduction (spec.md §4.3). It is a no-op when that stack is empty.
// The only error Step ever returns is evalerrors.ArityError (SPEC_FULL.md
// §5's resolution of spec.md §9's arity-mismatch open question); every
// other error kind is absorbed into a `none` result and execution
// continues, per spec.md §7's propagation policy.
func (ev *Evaluator) Step() error {
	if ev.arena.ShouldCompact() {
		ev.Compact()
	}
	lc := ev.ctx.Current
	comp, ok := lc.popComp()
	if !ok {
		return nil
	}
	switch comp.Kind {
	case CompExpression:
		return ev.stepExpression(comp.Expr)
	case CompStatement:
		return ev.stepStatement(comp.Stmt)
	case CompBinOpFinal:
		return ev.stepBinOpFinal(comp.BinOp)
	case CompMonOpFinal:
		return ev.stepMonOpFinal(comp.MonOp)
	case CompTupleFinal:
		return ev.stepTupleFinal(comp.TupleSize)
	case CompIgnoreOneResult:
		lc.popResult()
		return nil
	case CompAssignFinal:
		return ev.stepAssignFinal()
	case CompCallFinal:
		return ev.stepCallFinal(comp.CallArity)
	case CompReturnFromFrame:
		return ev.stepReturnFromFrame()
	case CompIfElseFinal:
		return ev.stepIfElseFinal(comp.Then, comp.Else)
	case CompPrintFinal:
		return ev.stepPrintFinal()
	default:
		return nil
	}
}

// RunUpTo steps the machine at most maxSteps times, stopping early once
// the machine is Done(). It returns the number of steps actually taken.
// maxSteps <= 0 means unbounded — callers that need a budget (the storage
// collaborator's "max steps per request", spec.md §5) should always pass a
// positive bound.
func (ev *Evaluator) RunUpTo(maxSteps int) (int, error) {
	taken := 0
	for maxSteps <= 0 || taken < maxSteps {
		if ev.ctx.Done() {
			break
		}
		if err := ev.Step(); err != nil {
			return taken, err
		}
		taken++
	}
	return taken, nil
}

// --- Expression rules (spec.md §4.3.1) ---

func (ev *Evaluator) stepExpression(e ast.Expression) error {
	lc := ev.ctx.Current
	switch n := e.(type) {
	case nil:
		// An uninitialized expression slot — a parser bug, never a user
		// program error. Absorbed into a `none` result, per spec.md §7's
		// propagation policy.
		lc.pushResult(Rvalue(ast.None()))
	case *ast.VariableExpr:
		lc.pushResult(Lvalue(ev.Lookup(n.Name)))
	case *ast.LiteralExpr:
		lc.pushResult(Rvalue(ev.arena.CopyLiteral(n.Value)))
	case *ast.LambdaExpr:
		closure := ev.arena.CopyClosure(&ast.Closure{
			Params: n.Params,
			Body:   n.Body,
			Env:    lc.Env.Clone(),
		})
		lc.pushResult(Rvalue(ast.ClosureLit(closure)))
	case *ast.MonOpExpr:
		lc.pushComp(Computation{Kind: CompMonOpFinal, MonOp: n.Op})
		lc.pushComp(exprComp(n.Inner))
	case *ast.BinOpExpr:
		lc.pushComp(Computation{Kind: CompBinOpFinal, BinOp: n.Op})
		lc.pushComp(exprComp(n.Right))
		lc.pushComp(exprComp(n.Left))
	case *ast.TernaryExpr:
		lc.pushComp(Computation{
			Kind: CompIfElseFinal,
			Then: []Computation{exprComp(n.Then)},
			Else: []Computation{exprComp(n.Else)},
		})
		lc.pushComp(exprComp(n.Cond))
	case *ast.TupleExpr:
		lc.pushComp(Computation{Kind: CompTupleFinal, TupleSize: len(n.Elems)})
		for i := len(n.Elems) - 1; i >= 0; i-- {
			lc.pushComp(exprComp(n.Elems[i]))
		}
	case *ast.CallExpr:
		lc.pushComp(Computation{Kind: CompCallFinal, CallArity: len(n.Args)})
		lc.pushComp(exprComp(n.Callee))
		for i := len(n.Args) - 1; i >= 0; i-- {
			lc.pushComp(exprComp(n.Args[i]))
		}
	default:
		lc.pushResult(Rvalue(ast.None()))
	}
	return nil
}

// --- Statement rules (spec.md §4.3.3) ---

func (ev *Evaluator) stepStatement(s ast.Statement) error {
	lc := ev.ctx.Current
	switch n := s.(type) {
	case nil:
		// An uninitialized statement slot — a parser bug. Nothing to do.
	case *ast.ExprStmt:
		lc.pushComp(Computation{Kind: CompIgnoreOneResult})
		lc.pushComp(exprComp(n.Expr))
	case *ast.AssignStmt:
		lc.pushComp(Computation{Kind: CompAssignFinal})
		lc.pushComp(exprComp(n.Rhs))
		lc.pushComp(exprComp(n.Lhs))
	case *ast.ReturnStmt:
		lc.pushComp(Computation{Kind: CompReturnFromFrame})
		lc.pushComp(exprComp(n.Expr))
	case *ast.PrintStmt:
		lc.pushComp(Computation{Kind: CompPrintFinal})
		lc.pushComp(exprComp(n.Expr))
	case *ast.IfStmt:
		thenComps := make([]Computation, len(n.Then))
		for i, st := range n.Then {
			thenComps[i] = stmtComp(st)
		}
		elseComps := make([]Computation, len(n.Else))
		for i, st := range n.Else {
			elseComps[i] = stmtComp(st)
		}
		lc.pushComp(Computation{Kind: CompIfElseFinal, Then: thenComps, Else: elseComps})
		lc.pushComp(exprComp(n.Cond))
	}
	return nil
}

// --- Final (reducer) rules (spec.md §4.3.2) ---

func (ev *Evaluator) stepBinOpFinal(op ast.BinOp) error {
	lc := ev.ctx.Current
	rhsR, _ := lc.popResult()
	lhsR, _ := lc.popResult()
	rhs := rhsR.Deref(ev.ctx.Store)
	lhs := lhsR.Deref(ev.ctx.Store)

	var result ast.Literal
	var err error
	switch op {
	case ast.OpAdd:
		result, err = valueops.Add(lhs, rhs)
	case ast.OpSub:
		result, err = valueops.Sub(lhs, rhs)
	case ast.OpMul:
		result, err = valueops.Mul(lhs, rhs)
	case ast.OpDiv:
		result, err = valueops.Div(lhs, rhs)
	case ast.OpEq:
		result = valueops.Eq(lhs, rhs)
	case ast.OpNe:
		result = valueops.Ne(lhs, rhs)
	case ast.OpLt:
		result = valueops.Lt(lhs, rhs)
	case ast.OpLe:
		result = valueops.Le(lhs, rhs)
	case ast.OpGt:
		result = valueops.Gt(lhs, rhs)
	case ast.OpGe:
		result = valueops.Ge(lhs, rhs)
	case ast.OpAnd:
		result = valueops.BoolAnd(lhs, rhs)
	case ast.OpOr:
		result = valueops.BoolOr(lhs, rhs)
	}
	if err != nil {
		// ArithmeticError (division by zero): absorbed into `none`,
		// matching spec.md §4.2/§7's propagation policy.
		result = ast.None()
	}
	lc.pushResult(Rvalue(result))
	return nil
}

func (ev *Evaluator) stepMonOpFinal(op ast.MonOp) error {
	lc := ev.ctx.Current
	r, _ := lc.popResult()
	v := r.Deref(ev.ctx.Store)
	var result ast.Literal
	switch op {
	case ast.OpNeg:
		result = valueops.Neg(v)
	case ast.OpNot:
		result = valueops.BoolNot(v)
	}
	lc.pushResult(Rvalue(result))
	return nil
}

func (ev *Evaluator) stepTupleFinal(n int) error {
	lc := ev.ctx.Current
	elems := make([]ast.Literal, n)
	for i := n - 1; i >= 0; i-- {
		r, _ := lc.popResult()
		elems[i] = r.Deref(ev.ctx.Store)
	}
	lc.pushResult(Rvalue(ast.TupleLit(&ast.Tuple{Elems: elems})))
	return nil
}

func (ev *Evaluator) stepAssignFinal() error {
	lc := ev.ctx.Current
	rhsR, _ := lc.popResult()
	lhsR, _ := lc.popResult()
	if !lhsR.IsLvalue() {
		// Left-hand side didn't reduce to an lvalue. Absorbed — the
		// assignment is simply skipped and execution continues (spec.md §7, §9).
		return nil
	}
	ev.ctx.Store.Set(lhsR.Addr, rhsR.Deref(ev.ctx.Store))
	return nil
}

func (ev *Evaluator) stepCallFinal(arity int) error {
	lc := ev.ctx.Current
	calleeR, _ := lc.popResult()
	callee := calleeR.Deref(ev.ctx.Store)
	if callee.Kind != ast.KindClosure {
		// Callee is not callable. Absorbed — pop the argument results so
		// the result stack stays well-formed, then push `none` as the
		// call's result (spec.md §7).
		for i := 0; i < arity; i++ {
			lc.popResult()
		}
		lc.pushResult(Rvalue(ast.None()))
		return nil
	}
	closure := callee.Closure
	if len(closure.Params) != arity {
		// ArityError: host-visible per SPEC_FULL.md §5. The call is not
		// completed; the caller decides whether to keep stepping.
		return &evalerrors.ArityError{Want: len(closure.Params), Got: arity}
	}

	args := make([]ast.Literal, arity)
	for i := arity - 1; i >= 0; i-- {
		r, _ := lc.popResult()
		args[i] = r.Deref(ev.ctx.Store)
	}

	ev.ctx.Saved = append(ev.ctx.Saved, lc)
	newLC := newLocalContext(closure.Env.Clone())
	ev.ctx.Current = newLC
	for i, p := range closure.Params {
		ev.Assign(p, args[i])
	}

	newLC.pushComp(Computation{Kind: CompReturnFromFrame})
	body := ev.arena.CopyStatements(closure.Body)
	for i := len(body) - 1; i >= 0; i-- {
		newLC.pushComp(stmtComp(body[i]))
	}
	return nil
}

func (ev *Evaluator) stepReturnFromFrame() error {
	lc := ev.ctx.Current

	// Tail-call folding (spec.md §4.3.2, §9): collapse consecutive
	// ReturnFromFrame entries at the top of the current computation stack
	// into the single restore below, instead of dispatching each
	// separately.
	for len(lc.Comps) > 0 && lc.Comps[len(lc.Comps)-1].Kind == CompReturnFromFrame {
		lc.Comps = lc.Comps[:len(lc.Comps)-1]
	}

	r, ok := lc.popResult()
	var retVal ast.Literal
	if ok {
		retVal = r.Deref(ev.ctx.Store)
	} else {
		retVal = ast.None()
	}

	n := len(ev.ctx.Saved)
	if n == 0 {
		// A top-level return with no call frame to restore: end this
		// block's remaining execution and surface the value here.
		lc.Comps = nil
		lc.pushResult(Rvalue(retVal))
		return nil
	}
	restored := ev.ctx.Saved[n-1]
	ev.ctx.Saved = ev.ctx.Saved[:n-1]
	ev.ctx.Current = restored
	restored.pushResult(Rvalue(retVal))
	return nil
}

func (ev *Evaluator) stepIfElseFinal(then, els []Computation) error {
	lc := ev.ctx.Current
	r, _ := lc.popResult()
	cond := r.Deref(ev.ctx.Store)
	if cond.Kind != ast.KindBool {
		// Condition is not bool. Absorbed — neither branch runs.
		return nil
	}
	chosen := els
	if cond.Bool {
		chosen = then
	}
	for i := len(chosen) - 1; i >= 0; i-- {
		lc.pushComp(chosen[i])
	}
	return nil
}

func (ev *Evaluator) stepPrintFinal() error {
	lc := ev.ctx.Current
	r, _ := lc.popResult()
	v := r.Deref(ev.ctx.Store)
	ev.ctx.Output = append(ev.ctx.Output, v.Format())
	return nil
}

// Snapshot returns a deep-copied, detachable EvalContext (spec.md §6):
// independent of this Evaluator's arena, safe to hold across a subsequent
// Compact() or to serialize via internal/storage.
func (ev *Evaluator) Snapshot() *EvalContext {
	scratch := NewArena(0)
	return scratch.CopyEvalContext(ev.ctx)
}

// Compact performs spec.md §4.5's pure space-reclamation pass: it
// deep-copies the EvalContext into a temporary allocation, resets the
// arena (invalidating every handle the arena had issued), then
// materializes the saved state into the now-empty arena. Compaction is
// observationally equivalent to the identity transformation.
func (ev *Evaluator) Compact() {
	scratch := NewArena(0)
	saved := scratch.CopyEvalContext(ev.ctx)
	ev.arena.Reset()
	ev.ctx = ev.arena.CopyEvalContext(saved)
}
