// Package storage implements spec.md §6's "storage collaborator": a
// persisted, keyed EvalContext store with a binary wire format (this file),
// a sqlite-backed key-value table (sqlitestore.go), and a gRPC surface
// (rpc.go). None of it reaches back into Computation/step semantics — it
// only calls the core's public surface (evaluator.New/Step/Snapshot/...).
package storage

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/funvibe/steinlang/internal/ast"
	"github.com/funvibe/steinlang/internal/evaluator"
	"github.com/funvibe/steinlang/internal/store"
)

// Field numbers for the hand-rolled wire format. There is no .proto file —
// protowire's tag/varint/length-delimited primitives are used directly
// (spec.md §6, "structured binary record"), matching the low-level wire
// encoding protoc-generated code would produce without requiring a
// .proto-compiler step in this environment.
const (
	fLitKind    = 1
	fLitBool    = 2
	fLitInt     = 3
	fLitFloat   = 4
	fLitStr     = 5
	fLitTuple   = 6
	fLitClosure = 7

	fTupleElem = 1

	fClosureParam = 1
	fClosureBody  = 2
	fClosureEnv   = 3

	fEnvName = 1
	fEnvAddr = 2

	fExprKind   = 1
	fExprOrigin = 2
	fExprName   = 3
	fExprLit    = 4
	fExprParam  = 5
	fExprBody   = 6
	fExprMonOp  = 7
	fExprInner  = 8
	fExprBinOp  = 9
	fExprLeft   = 10
	fExprRight  = 11
	fExprCond   = 12
	fExprThen   = 13
	fExprElse   = 14
	fExprElems  = 15
	fExprCallee = 16
	fExprArgs   = 17

	fStmtKind   = 1
	fStmtOrigin = 2
	fStmtExpr   = 3
	fStmtLhs    = 4
	fStmtRhs    = 5
	fStmtCond   = 6
	fStmtThen   = 7
	fStmtElse   = 8

	fProgStmt = 1

	fResKind  = 1
	fResValue = 2
	fResAddr  = 3

	fCompKind      = 1
	fCompExpr      = 2
	fCompStmt      = 3
	fCompBinOp     = 4
	fCompMonOp     = 5
	fCompTupleSize = 6
	fCompArity     = 7
	fCompThen      = 8
	fCompElse      = 9

	fLCEnv     = 1
	fLCResults = 2
	fLCComps   = 3

	fECProgram = 1
	fECStore   = 2
	fECCurrent = 3
	fECSaved   = 4
	fECOutput  = 5
)

// Expression/statement discriminants for the wire format. Distinct from
// ast.Kind/BinOp/MonOp so the wire format is insulated from internal
// reordering of those Go enums.
const (
	exprVariable = iota
	exprLiteral
	exprLambda
	exprMonOp
	exprBinOp
	exprTernary
	exprTuple
	exprCall
)

const (
	stmtExpr = iota
	stmtAssign
	stmtReturn
	stmtPrint
	stmtIf
)

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendStringField(b []byte, num protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendFixed64Field(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, v)
}

// --- Literal ---

func encodeLiteral(l ast.Literal) []byte {
	var b []byte
	b = appendVarintField(b, fLitKind, uint64(l.Kind))
	switch l.Kind {
	case ast.KindBool:
		v := uint64(0)
		if l.Bool {
			v = 1
		}
		b = appendVarintField(b, fLitBool, v)
	case ast.KindInt:
		b = appendFixed64Field(b, fLitInt, uint64(l.Int))
	case ast.KindFloat:
		b = appendFixed64Field(b, fLitFloat, math.Float64bits(l.Float))
	case ast.KindString:
		b = appendStringField(b, fLitStr, l.Str)
	case ast.KindTuple:
		b = appendBytesField(b, fLitTuple, encodeTuple(l.Tuple))
	case ast.KindClosure:
		b = appendBytesField(b, fLitClosure, encodeClosure(l.Closure))
	}
	return b
}

func decodeLiteral(b []byte) (ast.Literal, error) {
	lit := ast.None()
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return lit, fmt.Errorf("storage: literal: bad tag")
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return lit, fmt.Errorf("storage: literal: bad varint")
			}
			b = b[n:]
			switch num {
			case fLitKind:
				lit.Kind = ast.Kind(v)
			case fLitBool:
				lit.Bool = v != 0
			}
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return lit, fmt.Errorf("storage: literal: bad fixed64")
			}
			b = b[n:]
			switch num {
			case fLitInt:
				lit.Int = int64(v)
			case fLitFloat:
				lit.Float = math.Float64frombits(v)
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return lit, fmt.Errorf("storage: literal: bad bytes")
			}
			b = b[n:]
			switch num {
			case fLitStr:
				lit.Str = string(v)
			case fLitTuple:
				t, err := decodeTuple(v)
				if err != nil {
					return lit, err
				}
				lit.Tuple = t
			case fLitClosure:
				c, err := decodeClosure(v)
				if err != nil {
					return lit, err
				}
				lit.Closure = c
			}
		default:
			return lit, fmt.Errorf("storage: literal: unsupported wire type %v", typ)
		}
	}
	return lit, nil
}

// --- Tuple ---

func encodeTuple(t *ast.Tuple) []byte {
	if t == nil {
		return nil
	}
	var b []byte
	for _, e := range t.Elems {
		b = appendBytesField(b, fTupleElem, encodeLiteral(e))
	}
	return b
}

func decodeTuple(b []byte) (*ast.Tuple, error) {
	t := &ast.Tuple{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 || typ != protowire.BytesType {
			return nil, fmt.Errorf("storage: tuple: bad field")
		}
		b = b[n:]
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, fmt.Errorf("storage: tuple: bad bytes")
		}
		b = b[n:]
		if num == fTupleElem {
			el, err := decodeLiteral(v)
			if err != nil {
				return nil, err
			}
			t.Elems = append(t.Elems, el)
		}
	}
	return t, nil
}

// --- Closure ---

func encodeClosure(c *ast.Closure) []byte {
	if c == nil {
		return nil
	}
	var b []byte
	for _, p := range c.Params {
		b = appendStringField(b, fClosureParam, p)
	}
	for _, s := range c.Body {
		b = appendBytesField(b, fClosureBody, encodeStatement(s))
	}
	for name, addr := range c.Env {
		var entry []byte
		entry = appendStringField(entry, fEnvName, name)
		entry = appendVarintField(entry, fEnvAddr, uint64(addr))
		b = appendBytesField(b, fClosureEnv, entry)
	}
	return b
}

func decodeClosure(b []byte) (*ast.Closure, error) {
	c := &ast.Closure{Env: ast.Environment{}}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("storage: closure: bad tag")
		}
		b = b[n:]
		if typ != protowire.BytesType {
			return nil, fmt.Errorf("storage: closure: unsupported wire type %v", typ)
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, fmt.Errorf("storage: closure: bad bytes")
		}
		b = b[n:]
		switch num {
		case fClosureParam:
			c.Params = append(c.Params, string(v))
		case fClosureBody:
			s, err := decodeStatement(v)
			if err != nil {
				return nil, err
			}
			c.Body = append(c.Body, s)
		case fClosureEnv:
			name, addr, err := decodeEnvEntry(v)
			if err != nil {
				return nil, err
			}
			c.Env[name] = addr
		}
	}
	return c, nil
}

func decodeEnvEntry(b []byte) (string, int, error) {
	var name string
	var addr int
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", 0, fmt.Errorf("storage: env entry: bad tag")
		}
		b = b[n:]
		switch typ {
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return "", 0, fmt.Errorf("storage: env entry: bad bytes")
			}
			b = b[n:]
			if num == fEnvName {
				name = string(v)
			}
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return "", 0, fmt.Errorf("storage: env entry: bad varint")
			}
			b = b[n:]
			if num == fEnvAddr {
				addr = int(v)
			}
		default:
			return "", 0, fmt.Errorf("storage: env entry: unsupported wire type %v", typ)
		}
	}
	return name, addr, nil
}

// --- Expression ---

func exprKindOf(e ast.Expression) (int, error) {
	switch e.(type) {
	case *ast.VariableExpr:
		return exprVariable, nil
	case *ast.LiteralExpr:
		return exprLiteral, nil
	case *ast.LambdaExpr:
		return exprLambda, nil
	case *ast.MonOpExpr:
		return exprMonOp, nil
	case *ast.BinOpExpr:
		return exprBinOp, nil
	case *ast.TernaryExpr:
		return exprTernary, nil
	case *ast.TupleExpr:
		return exprTuple, nil
	case *ast.CallExpr:
		return exprCall, nil
	default:
		return 0, fmt.Errorf("storage: unknown expression type %T", e)
	}
}

func encodeExpression(e ast.Expression) []byte {
	if e == nil {
		return nil
	}
	kind, err := exprKindOf(e)
	if err != nil {
		return nil
	}
	var b []byte
	b = appendVarintField(b, fExprKind, uint64(kind))
	b = appendVarintField(b, fExprOrigin, uint64(e.Origin()))
	switch n := e.(type) {
	case *ast.VariableExpr:
		b = appendStringField(b, fExprName, n.Name)
	case *ast.LiteralExpr:
		b = appendBytesField(b, fExprLit, encodeLiteral(n.Value))
	case *ast.LambdaExpr:
		for _, p := range n.Params {
			b = appendStringField(b, fExprParam, p)
		}
		for _, s := range n.Body {
			b = appendBytesField(b, fExprBody, encodeStatement(s))
		}
	case *ast.MonOpExpr:
		b = appendVarintField(b, fExprMonOp, uint64(n.Op))
		b = appendBytesField(b, fExprInner, encodeExpression(n.Inner))
	case *ast.BinOpExpr:
		b = appendVarintField(b, fExprBinOp, uint64(n.Op))
		b = appendBytesField(b, fExprLeft, encodeExpression(n.Left))
		b = appendBytesField(b, fExprRight, encodeExpression(n.Right))
	case *ast.TernaryExpr:
		b = appendBytesField(b, fExprCond, encodeExpression(n.Cond))
		b = appendBytesField(b, fExprThen, encodeExpression(n.Then))
		b = appendBytesField(b, fExprElse, encodeExpression(n.Else))
	case *ast.TupleExpr:
		for _, el := range n.Elems {
			b = appendBytesField(b, fExprElems, encodeExpression(el))
		}
	case *ast.CallExpr:
		b = appendBytesField(b, fExprCallee, encodeExpression(n.Callee))
		for _, a := range n.Args {
			b = appendBytesField(b, fExprArgs, encodeExpression(a))
		}
	}
	return b
}

func decodeExpression(b []byte) (ast.Expression, error) {
	if len(b) == 0 {
		return nil, nil
	}
	kind := -1
	origin := 0
	var name string
	var lit ast.Literal
	var params []string
	var body []ast.Statement
	var monOp ast.MonOp
	var binOp ast.BinOp
	var inner, left, right, cond, then, els, callee ast.Expression
	var elems, args []ast.Expression

	rest := b
	for len(rest) > 0 {
		num, typ, n := protowire.ConsumeTag(rest)
		if n < 0 {
			return nil, fmt.Errorf("storage: expression: bad tag")
		}
		rest = rest[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(rest)
			if n < 0 {
				return nil, fmt.Errorf("storage: expression: bad varint")
			}
			rest = rest[n:]
			switch num {
			case fExprKind:
				kind = int(v)
			case fExprOrigin:
				origin = int(v)
			case fExprMonOp:
				monOp = ast.MonOp(v)
			case fExprBinOp:
				binOp = ast.BinOp(v)
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(rest)
			if n < 0 {
				return nil, fmt.Errorf("storage: expression: bad bytes")
			}
			rest = rest[n:]
			var err error
			switch num {
			case fExprName:
				name = string(v)
			case fExprParam:
				params = append(params, string(v))
			case fExprLit:
				lit, err = decodeLiteral(v)
			case fExprBody:
				var s ast.Statement
				s, err = decodeStatement(v)
				body = append(body, s)
			case fExprInner:
				inner, err = decodeExpression(v)
			case fExprLeft:
				left, err = decodeExpression(v)
			case fExprRight:
				right, err = decodeExpression(v)
			case fExprCond:
				cond, err = decodeExpression(v)
			case fExprThen:
				then, err = decodeExpression(v)
			case fExprElse:
				els, err = decodeExpression(v)
			case fExprElems:
				var el ast.Expression
				el, err = decodeExpression(v)
				elems = append(elems, el)
			case fExprCallee:
				callee, err = decodeExpression(v)
			case fExprArgs:
				var a ast.Expression
				a, err = decodeExpression(v)
				args = append(args, a)
			}
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("storage: expression: unsupported wire type %v", typ)
		}
	}

	var e ast.Expression
	switch kind {
	case exprVariable:
		e = &ast.VariableExpr{Name: name}
	case exprLiteral:
		e = &ast.LiteralExpr{Value: lit}
	case exprLambda:
		e = &ast.LambdaExpr{Params: params, Body: body}
	case exprMonOp:
		e = &ast.MonOpExpr{Op: monOp, Inner: inner}
	case exprBinOp:
		e = &ast.BinOpExpr{Op: binOp, Left: left, Right: right}
	case exprTernary:
		e = &ast.TernaryExpr{Cond: cond, Then: then, Else: els}
	case exprTuple:
		e = &ast.TupleExpr{Elems: elems}
	case exprCall:
		e = &ast.CallExpr{Callee: callee, Args: args}
	default:
		return nil, fmt.Errorf("storage: expression: unknown kind %d", kind)
	}
	e.SetOrigin(origin)
	return e, nil
}

// --- Statement ---

func stmtKindOf(s ast.Statement) (int, error) {
	switch s.(type) {
	case *ast.ExprStmt:
		return stmtExpr, nil
	case *ast.AssignStmt:
		return stmtAssign, nil
	case *ast.ReturnStmt:
		return stmtReturn, nil
	case *ast.PrintStmt:
		return stmtPrint, nil
	case *ast.IfStmt:
		return stmtIf, nil
	default:
		return 0, fmt.Errorf("storage: unknown statement type %T", s)
	}
}

func encodeStatement(s ast.Statement) []byte {
	if s == nil {
		return nil
	}
	kind, err := stmtKindOf(s)
	if err != nil {
		return nil
	}
	var b []byte
	b = appendVarintField(b, fStmtKind, uint64(kind))
	b = appendVarintField(b, fStmtOrigin, uint64(s.Origin()))
	switch n := s.(type) {
	case *ast.ExprStmt:
		b = appendBytesField(b, fStmtExpr, encodeExpression(n.Expr))
	case *ast.AssignStmt:
		b = appendBytesField(b, fStmtLhs, encodeExpression(n.Lhs))
		b = appendBytesField(b, fStmtRhs, encodeExpression(n.Rhs))
	case *ast.ReturnStmt:
		b = appendBytesField(b, fStmtExpr, encodeExpression(n.Expr))
	case *ast.PrintStmt:
		b = appendBytesField(b, fStmtExpr, encodeExpression(n.Expr))
	case *ast.IfStmt:
		b = appendBytesField(b, fStmtCond, encodeExpression(n.Cond))
		for _, st := range n.Then {
			b = appendBytesField(b, fStmtThen, encodeStatement(st))
		}
		for _, st := range n.Else {
			b = appendBytesField(b, fStmtElse, encodeStatement(st))
		}
	}
	return b
}

func decodeStatement(b []byte) (ast.Statement, error) {
	if len(b) == 0 {
		return nil, nil
	}
	kind := -1
	origin := 0
	var expr, lhs, rhs, cond ast.Expression
	var then, els []ast.Statement

	rest := b
	for len(rest) > 0 {
		num, typ, n := protowire.ConsumeTag(rest)
		if n < 0 {
			return nil, fmt.Errorf("storage: statement: bad tag")
		}
		rest = rest[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(rest)
			if n < 0 {
				return nil, fmt.Errorf("storage: statement: bad varint")
			}
			rest = rest[n:]
			switch num {
			case fStmtKind:
				kind = int(v)
			case fStmtOrigin:
				origin = int(v)
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(rest)
			if n < 0 {
				return nil, fmt.Errorf("storage: statement: bad bytes")
			}
			rest = rest[n:]
			var err error
			switch num {
			case fStmtExpr:
				expr, err = decodeExpression(v)
			case fStmtLhs:
				lhs, err = decodeExpression(v)
			case fStmtRhs:
				rhs, err = decodeExpression(v)
			case fStmtCond:
				cond, err = decodeExpression(v)
			case fStmtThen:
				var st ast.Statement
				st, err = decodeStatement(v)
				then = append(then, st)
			case fStmtElse:
				var st ast.Statement
				st, err = decodeStatement(v)
				els = append(els, st)
			}
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("storage: statement: unsupported wire type %v", typ)
		}
	}

	var s ast.Statement
	switch kind {
	case stmtExpr:
		s = &ast.ExprStmt{Expr: expr}
	case stmtAssign:
		s = &ast.AssignStmt{Lhs: lhs, Rhs: rhs}
	case stmtReturn:
		s = &ast.ReturnStmt{Expr: expr}
	case stmtPrint:
		s = &ast.PrintStmt{Expr: expr}
	case stmtIf:
		s = &ast.IfStmt{Cond: cond, Then: then, Else: els}
	default:
		return nil, fmt.Errorf("storage: statement: unknown kind %d", kind)
	}
	s.SetOrigin(origin)
	return s, nil
}

// --- Program ---

// EncodeProgram serializes a bare Program — no store, no machine state —
// using the same statement/expression codec as EncodeEvalContext. This is
// the format an external parser is expected to hand the CLI (spec.md §6):
// a Program blob with no prior evaluation history.
func EncodeProgram(p *ast.Program) []byte {
	return encodeProgram(p)
}

// DecodeProgram is the inverse of EncodeProgram.
func DecodeProgram(b []byte) (*ast.Program, error) {
	return decodeProgram(b)
}

func encodeProgram(p *ast.Program) []byte {
	var b []byte
	for _, s := range p.Statements {
		b = appendBytesField(b, fProgStmt, encodeStatement(s))
	}
	return b
}

func decodeProgram(b []byte) (*ast.Program, error) {
	p := &ast.Program{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 || typ != protowire.BytesType {
			return nil, fmt.Errorf("storage: program: bad field")
		}
		b = b[n:]
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, fmt.Errorf("storage: program: bad bytes")
		}
		b = b[n:]
		if num == fProgStmt {
			s, err := decodeStatement(v)
			if err != nil {
				return nil, err
			}
			p.Statements = append(p.Statements, s)
		}
	}
	return p, nil
}

// --- Result ---

func encodeResult(r evaluator.Result) []byte {
	var b []byte
	b = appendVarintField(b, fResKind, uint64(r.Kind))
	if r.Kind == evaluator.ResultLvalue {
		b = appendVarintField(b, fResAddr, uint64(r.Addr))
	} else {
		b = appendBytesField(b, fResValue, encodeLiteral(r.Value))
	}
	return b
}

func decodeResult(b []byte) (evaluator.Result, error) {
	var r evaluator.Result
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return r, fmt.Errorf("storage: result: bad tag")
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return r, fmt.Errorf("storage: result: bad varint")
			}
			b = b[n:]
			switch num {
			case fResKind:
				r.Kind = evaluator.ResultKind(v)
			case fResAddr:
				r.Addr = store.Address(v)
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return r, fmt.Errorf("storage: result: bad bytes")
			}
			b = b[n:]
			if num == fResValue {
				lit, err := decodeLiteral(v)
				if err != nil {
					return r, err
				}
				r.Value = lit
			}
		default:
			return r, fmt.Errorf("storage: result: unsupported wire type %v", typ)
		}
	}
	return r, nil
}

// --- Computation ---

func encodeComputation(c evaluator.Computation) []byte {
	var b []byte
	b = appendVarintField(b, fCompKind, uint64(c.Kind))
	if c.Expr != nil {
		b = appendBytesField(b, fCompExpr, encodeExpression(c.Expr))
	}
	if c.Stmt != nil {
		b = appendBytesField(b, fCompStmt, encodeStatement(c.Stmt))
	}
	b = appendVarintField(b, fCompBinOp, uint64(c.BinOp))
	b = appendVarintField(b, fCompMonOp, uint64(c.MonOp))
	b = appendVarintField(b, fCompTupleSize, uint64(c.TupleSize))
	b = appendVarintField(b, fCompArity, uint64(c.CallArity))
	for _, cc := range c.Then {
		b = appendBytesField(b, fCompThen, encodeComputation(cc))
	}
	for _, cc := range c.Else {
		b = appendBytesField(b, fCompElse, encodeComputation(cc))
	}
	return b
}

func decodeComputation(b []byte) (evaluator.Computation, error) {
	var c evaluator.Computation
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return c, fmt.Errorf("storage: computation: bad tag")
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return c, fmt.Errorf("storage: computation: bad varint")
			}
			b = b[n:]
			switch num {
			case fCompKind:
				c.Kind = evaluator.CompKind(v)
			case fCompBinOp:
				c.BinOp = ast.BinOp(v)
			case fCompMonOp:
				c.MonOp = ast.MonOp(v)
			case fCompTupleSize:
				c.TupleSize = int(v)
			case fCompArity:
				c.CallArity = int(v)
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return c, fmt.Errorf("storage: computation: bad bytes")
			}
			b = b[n:]
			var err error
			switch num {
			case fCompExpr:
				c.Expr, err = decodeExpression(v)
			case fCompStmt:
				c.Stmt, err = decodeStatement(v)
			case fCompThen:
				var cc evaluator.Computation
				cc, err = decodeComputation(v)
				c.Then = append(c.Then, cc)
			case fCompElse:
				var cc evaluator.Computation
				cc, err = decodeComputation(v)
				c.Else = append(c.Else, cc)
			}
			if err != nil {
				return c, err
			}
		default:
			return c, fmt.Errorf("storage: computation: unsupported wire type %v", typ)
		}
	}
	return c, nil
}

// --- LocalContext ---

func encodeLocalContext(lc *evaluator.LocalContext) []byte {
	var b []byte
	for name, addr := range lc.Env {
		var entry []byte
		entry = appendStringField(entry, fEnvName, name)
		entry = appendVarintField(entry, fEnvAddr, uint64(addr))
		b = appendBytesField(b, fLCEnv, entry)
	}
	for _, r := range lc.Results {
		b = appendBytesField(b, fLCResults, encodeResult(r))
	}
	for _, c := range lc.Comps {
		b = appendBytesField(b, fLCComps, encodeComputation(c))
	}
	return b
}

func decodeLocalContext(b []byte) (*evaluator.LocalContext, error) {
	env := ast.Environment{}
	var results []evaluator.Result
	var comps []evaluator.Computation
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 || typ != protowire.BytesType {
			return nil, fmt.Errorf("storage: local context: bad field")
		}
		b = b[n:]
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, fmt.Errorf("storage: local context: bad bytes")
		}
		b = b[n:]
		switch num {
		case fLCEnv:
			name, addr, err := decodeEnvEntry(v)
			if err != nil {
				return nil, err
			}
			env[name] = addr
		case fLCResults:
			r, err := decodeResult(v)
			if err != nil {
				return nil, err
			}
			results = append(results, r)
		case fLCComps:
			c, err := decodeComputation(v)
			if err != nil {
				return nil, err
			}
			comps = append(comps, c)
		}
	}
	return evaluator.NewLocalContextFromParts(env, results, comps), nil
}

// --- EvalContext ---

// EncodeEvalContext renders ec as spec.md §6's persisted binary record.
func EncodeEvalContext(ec *evaluator.EvalContext) []byte {
	var b []byte
	b = appendBytesField(b, fECProgram, encodeProgram(ec.Program))
	for _, cell := range ec.Store.Cells() {
		b = appendBytesField(b, fECStore, encodeLiteral(cell))
	}
	b = appendBytesField(b, fECCurrent, encodeLocalContext(ec.Current))
	for _, s := range ec.Saved {
		b = appendBytesField(b, fECSaved, encodeLocalContext(s))
	}
	for _, o := range ec.Output {
		b = appendStringField(b, fECOutput, o)
	}
	return b
}

// DecodeEvalContext parses a persisted record back into a live EvalContext.
// Round-tripping via Encode/Decode must preserve behavior: stepping the
// result from the same point yields identical subsequent states and
// outputs (spec.md §6, §8).
func DecodeEvalContext(b []byte) (*evaluator.EvalContext, error) {
	var program *ast.Program
	var cells []ast.Literal
	var current *evaluator.LocalContext
	var saved []*evaluator.LocalContext
	var output []string

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("storage: eval context: bad tag")
		}
		b = b[n:]
		switch typ {
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("storage: eval context: bad bytes")
			}
			b = b[n:]
			var err error
			switch num {
			case fECProgram:
				program, err = decodeProgram(v)
			case fECStore:
				var lit ast.Literal
				lit, err = decodeLiteral(v)
				cells = append(cells, lit)
			case fECCurrent:
				current, err = decodeLocalContext(v)
			case fECSaved:
				var lc *evaluator.LocalContext
				lc, err = decodeLocalContext(v)
				saved = append(saved, lc)
			case fECOutput:
				output = append(output, string(v))
			}
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("storage: eval context: unsupported wire type %v", typ)
		}
	}

	return evaluator.NewEvalContextFromParts(program, store.FromCells(cells), current, saved, output), nil
}
