package evaluator

import "github.com/funvibe/steinlang/internal/ast"

// CopyResult deep-copies a Result. Lvalues are plain (Kind, Addr) value
// copies — a store address is meaningful only relative to a Store, and
// Snapshot/Compact always carry the Store itself along (store.Store.Clone).
func (a *Arena) CopyResult(r Result) Result {
	if r.Kind == ResultLvalue {
		return r
	}
	return Rvalue(a.CopyLiteral(r.Value))
}

// CopyComputation deep-copies a Computation, recursing into its Then/Else
// branches (CompIfElseFinal) and its Expr/Stmt payload.
func (a *Arena) CopyComputation(c Computation) Computation {
	out := c
	out.Expr = a.CopyExpression(c.Expr)
	out.Stmt = a.CopyStatement(c.Stmt)
	if c.Then != nil {
		out.Then = make([]Computation, len(c.Then))
		for i, cc := range c.Then {
			out.Then[i] = a.CopyComputation(cc)
		}
	}
	if c.Else != nil {
		out.Else = make([]Computation, len(c.Else))
		for i, cc := range c.Else {
			out.Else[i] = a.CopyComputation(cc)
		}
	}
	return out
}

// CopyLocalContext deep-copies a LocalContext: a cloned environment plus
// copies of every pending result and computation.
func (a *Arena) CopyLocalContext(lc *LocalContext) *LocalContext {
	out := a.locals.Allocate()
	out.Env = lc.Env.Clone()
	out.Results = make([]Result, len(lc.Results))
	for i, r := range lc.Results {
		out.Results[i] = a.CopyResult(r)
	}
	out.Comps = make([]Computation, len(lc.Comps))
	for i, c := range lc.Comps {
		out.Comps[i] = a.CopyComputation(c)
	}
	return out
}

// CopyEvalContext deep-copies an EvalContext: a cloned Store, a copy of the
// current and every saved LocalContext, and a copy of the output buffer.
// Program is shared — it is immutable AST owned by the parsing collaborator
// (spec.md §6), never mutated by the evaluator.
func (a *Arena) CopyEvalContext(ec *EvalContext) *EvalContext {
	out := &EvalContext{
		Program: ec.Program,
		Store:   ec.Store.Clone(),
		Current: a.CopyLocalContext(ec.Current),
		Output:  append([]string(nil), ec.Output...),
	}
	out.Saved = make([]*LocalContext, len(ec.Saved))
	for i, s := range ec.Saved {
		out.Saved[i] = a.CopyLocalContext(s)
	}
	return out
}

// CopyLiteral returns a structural copy of l sharing no mutable state with
// the source: nested tuples and closures are copied recursively. A
// closure's captured environment is copied by value, but per spec.md §4.1's
// contract, every address in the copy's environment still points at the
// same store cell as in the original — addresses are plain ints, so an
// Environment.Clone() already satisfies this without extra work.
func (a *Arena) CopyLiteral(l ast.Literal) ast.Literal {
	switch l.Kind {
	case ast.KindTuple:
		elems := make([]ast.Literal, len(l.Tuple.Elems))
		for i, e := range l.Tuple.Elems {
			elems[i] = a.CopyLiteral(e)
		}
		return ast.TupleLit(&ast.Tuple{Elems: elems})
	case ast.KindClosure:
		return ast.ClosureLit(a.CopyClosure(l.Closure))
	default:
		return l
	}
}

// CopyClosure deep-copies a Closure: a fresh parameter slice, a fresh
// (pooled) copy of the statement body, and an Environment.Clone() of the
// captured environment — which keeps every address shared with the
// original (spec.md §4.1, §4.4).
func (a *Arena) CopyClosure(c *ast.Closure) *ast.Closure {
	out := a.closures.Allocate()
	out.Params = append([]string(nil), c.Params...)
	out.Body = a.CopyStatements(c.Body)
	out.Env = c.Env.Clone()
	return out
}

// CopyStatements deep-copies a statement sequence, used by CallFinal to give
// each activation of a closure its own unshared copy of the body (spec.md
// §4.1: "function application does a full deep-copy of the closure's body
// each time, to avoid sharing AST nodes between concurrent activations").
func (a *Arena) CopyStatements(stmts []ast.Statement) []ast.Statement {
	out := make([]ast.Statement, len(stmts))
	for i, s := range stmts {
		out[i] = a.CopyStatement(s)
	}
	return out
}

// CopyStatement deep-copies one statement node, preserving its source id.
func (a *Arena) CopyStatement(s ast.Statement) ast.Statement {
	if s == nil {
		return nil
	}
	switch n := s.(type) {
	case *ast.ExprStmt:
		out := a.exprStmts.Allocate()
		*out = ast.ExprStmt{Expr: a.CopyExpression(n.Expr)}
		out.SetOrigin(n.Origin())
		return out
	case *ast.AssignStmt:
		out := a.assignStmts.Allocate()
		*out = ast.AssignStmt{Lhs: a.CopyExpression(n.Lhs), Rhs: a.CopyExpression(n.Rhs)}
		out.SetOrigin(n.Origin())
		return out
	case *ast.ReturnStmt:
		out := a.returnStmts.Allocate()
		*out = ast.ReturnStmt{Expr: a.CopyExpression(n.Expr)}
		out.SetOrigin(n.Origin())
		return out
	case *ast.PrintStmt:
		out := a.printStmts.Allocate()
		*out = ast.PrintStmt{Expr: a.CopyExpression(n.Expr)}
		out.SetOrigin(n.Origin())
		return out
	case *ast.IfStmt:
		out := a.ifStmts.Allocate()
		*out = ast.IfStmt{
			Cond: a.CopyExpression(n.Cond),
			Then: a.CopyStatements(n.Then),
			Else: a.CopyStatements(n.Else),
		}
		out.SetOrigin(n.Origin())
		return out
	default:
		return s
	}
}

// CopyExpression deep-copies one expression node, recursing into its
// children, pooling each concrete variant through the arena's
// corresponding sub-pool, and preserving its source id.
func (a *Arena) CopyExpression(e ast.Expression) ast.Expression {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *ast.VariableExpr:
		out := a.variableExprs.Allocate()
		*out = ast.VariableExpr{Name: n.Name}
		out.SetOrigin(n.Origin())
		return out
	case *ast.LiteralExpr:
		out := a.literalExprs.Allocate()
		*out = ast.LiteralExpr{Value: a.CopyLiteral(n.Value)}
		out.SetOrigin(n.Origin())
		return out
	case *ast.LambdaExpr:
		out := a.lambdaExprs.Allocate()
		*out = ast.LambdaExpr{
			Params: append([]string(nil), n.Params...),
			Body:   a.CopyStatements(n.Body),
		}
		out.SetOrigin(n.Origin())
		return out
	case *ast.MonOpExpr:
		out := a.monOpExprs.Allocate()
		*out = ast.MonOpExpr{Op: n.Op, Inner: a.CopyExpression(n.Inner)}
		out.SetOrigin(n.Origin())
		return out
	case *ast.BinOpExpr:
		out := a.binOpExprs.Allocate()
		*out = ast.BinOpExpr{Op: n.Op, Left: a.CopyExpression(n.Left), Right: a.CopyExpression(n.Right)}
		out.SetOrigin(n.Origin())
		return out
	case *ast.TernaryExpr:
		out := a.ternaryExprs.Allocate()
		*out = ast.TernaryExpr{
			Cond: a.CopyExpression(n.Cond),
			Then: a.CopyExpression(n.Then),
			Else: a.CopyExpression(n.Else),
		}
		out.SetOrigin(n.Origin())
		return out
	case *ast.TupleExpr:
		out := a.tupleExprs.Allocate()
		elems := make([]ast.Expression, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = a.CopyExpression(el)
		}
		*out = ast.TupleExpr{Elems: elems}
		out.SetOrigin(n.Origin())
		return out
	case *ast.CallExpr:
		out := a.callExprs.Allocate()
		args := make([]ast.Expression, len(n.Args))
		for i, arg := range n.Args {
			args[i] = a.CopyExpression(arg)
		}
		*out = ast.CallExpr{Callee: a.CopyExpression(n.Callee), Args: args}
		out.SetOrigin(n.Origin())
		return out
	default:
		return e
	}
}
