package evaluator

import (
	"github.com/funvibe/steinlang/internal/ast"
	"github.com/funvibe/steinlang/internal/store"
)

// LocalContext is the per-call-frame state: environment (name -> address),
// result stack, and computation stack (spec.md §3).
type LocalContext struct {
	Env     ast.Environment
	Results []Result
	Comps   []Computation
}

func newLocalContext(env ast.Environment) *LocalContext {
	return &LocalContext{Env: env}
}

// NewLocalContextFromParts rebuilds a LocalContext from its three
// constituent slices. Used by the storage collaborator when decoding a
// persisted record (internal/storage/record.go) — the normal machine never
// needs it, since Step only ever grows a LocalContext one push at a time.
func NewLocalContextFromParts(env ast.Environment, results []Result, comps []Computation) *LocalContext {
	return &LocalContext{Env: env, Results: results, Comps: comps}
}

func (lc *LocalContext) pushComp(c Computation) {
	lc.Comps = append(lc.Comps, c)
}

func (lc *LocalContext) popComp() (Computation, bool) {
	n := len(lc.Comps)
	if n == 0 {
		return Computation{}, false
	}
	c := lc.Comps[n-1]
	lc.Comps = lc.Comps[:n-1]
	return c, true
}

func (lc *LocalContext) pushResult(r Result) {
	lc.Results = append(lc.Results, r)
}

func (lc *LocalContext) popResult() (Result, bool) {
	n := len(lc.Results)
	if n == 0 {
		return Result{}, false
	}
	r := lc.Results[n-1]
	lc.Results = lc.Results[:n-1]
	return r, true
}

// EvalContext is the top-level machine state: the program AST, the store,
// the current local context, the stack of saved local contexts (the call
// stack), and the output buffer (spec.md §3). It is fully serializable: the
// storage collaborator (internal/storage) treats it as an opaque blob keyed
// by string (spec.md §6).
type EvalContext struct {
	Program *ast.Program
	Store   *store.Store
	Current *LocalContext
	Saved   []*LocalContext
	Output  []string
}

// NewEvalContext builds the initial machine state for prog: an empty store,
// one local context whose computation stack holds prog's statements pushed
// in reverse (so the first statement executes first), an empty saved-context
// stack, and an empty output buffer (spec.md §4.3.4).
func NewEvalContext(prog *ast.Program) *EvalContext {
	lc := newLocalContext(ast.Environment{})
	for i := len(prog.Statements) - 1; i >= 0; i-- {
		lc.pushComp(stmtComp(prog.Statements[i]))
	}
	return &EvalContext{
		Program: prog,
		Store:   store.New(),
		Current: lc,
	}
}

// NewEvalContextFromParts rebuilds an EvalContext from its decoded
// constituents. Used by the storage collaborator (internal/storage/record.go)
// when loading a persisted record, which carries the Program alongside the
// mutable machine state (spec.md §6).
func NewEvalContextFromParts(prog *ast.Program, st *store.Store, current *LocalContext, saved []*LocalContext, output []string) *EvalContext {
	return &EvalContext{
		Program: prog,
		Store:   st,
		Current: current,
		Saved:   saved,
		Output:  output,
	}
}

// Done reports whether the machine has fully returned: both the current
// computation stack and the saved-context stack are empty (spec.md §4.3.5).
func (ec *EvalContext) Done() bool {
	return len(ec.Current.Comps) == 0 && len(ec.Saved) == 0
}
