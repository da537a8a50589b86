package ast

// MonOp and BinOp identify the monadic/binary operators steinlang supports.
// The concrete semantics live in internal/valueops; this package only names
// the operators so expression nodes can carry them.
type MonOp uint8

const (
	OpNeg MonOp = iota
	OpNot
)

type BinOp uint8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

// Expression is steinlang's expression node interface: variable reference,
// literal constant, lambda, monadic op, binary op, ternary, tuple
// constructor, or function application (spec.md §3). Each carries an
// Origin source id, assigned by AssignSourceIDs, used only for diagnostics.
type Expression interface {
	expressionNode()
	Origin() int
	SetOrigin(int)
}

type exprBase struct {
	origin int
}

func (e *exprBase) expressionNode()  {}
func (e *exprBase) Origin() int      { return e.origin }
func (e *exprBase) SetOrigin(id int) { e.origin = id }

// VariableExpr references a name to be looked up in the current environment.
type VariableExpr struct {
	exprBase
	Name string
}

// LiteralExpr embeds a constant literal.
type LiteralExpr struct {
	exprBase
	Value Literal
}

// LambdaExpr is a parameter list plus a statement body. Evaluating it
// produces a Closure capturing a by-value snapshot of the current
// environment (spec.md §4.3.1).
type LambdaExpr struct {
	exprBase
	Params []string
	Body   []Statement
}

// MonOpExpr applies a monadic operator to its inner expression.
type MonOpExpr struct {
	exprBase
	Op    MonOp
	Inner Expression
}

// BinOpExpr applies a binary operator to its left/right operands.
type BinOpExpr struct {
	exprBase
	Op    BinOp
	Left  Expression
	Right Expression
}

// TernaryExpr is `then if cond else else_`.
type TernaryExpr struct {
	exprBase
	Cond Expression
	Then Expression
	Else Expression
}

// TupleExpr constructs a fixed-length tuple from its element expressions.
type TupleExpr struct {
	exprBase
	Elems []Expression
}

// CallExpr applies Callee to Args, left-to-right.
type CallExpr struct {
	exprBase
	Callee Expression
	Args   []Expression
}

var (
	_ Expression = (*VariableExpr)(nil)
	_ Expression = (*LiteralExpr)(nil)
	_ Expression = (*LambdaExpr)(nil)
	_ Expression = (*MonOpExpr)(nil)
	_ Expression = (*BinOpExpr)(nil)
	_ Expression = (*TernaryExpr)(nil)
	_ Expression = (*TupleExpr)(nil)
	_ Expression = (*CallExpr)(nil)
)
