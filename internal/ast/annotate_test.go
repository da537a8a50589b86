package ast

import "testing"

func TestAssignSourceIDsIsMonotonicPreorder(t *testing.T) {
	prog := &Program{Statements: []Statement{
		&AssignStmt{Lhs: &VariableExpr{Name: "x"}, Rhs: &LiteralExpr{Value: IntLit(1)}},
		&IfStmt{
			Cond: &VariableExpr{Name: "x"},
			Then: []Statement{&PrintStmt{Expr: &VariableExpr{Name: "x"}}},
			Else: []Statement{&PrintStmt{Expr: &LiteralExpr{Value: IntLit(0)}}},
		},
	}}
	AssignSourceIDs(prog)

	assign := prog.Statements[0].(*AssignStmt)
	ifStmt := prog.Statements[1].(*IfStmt)

	seen := map[int]bool{}
	ids := []int{
		assign.Origin(), assign.Lhs.Origin(), assign.Rhs.Origin(),
		ifStmt.Origin(), ifStmt.Cond.Origin(),
		ifStmt.Then[0].Origin(), ifStmt.Then[0].(*PrintStmt).Expr.Origin(),
		ifStmt.Else[0].Origin(), ifStmt.Else[0].(*PrintStmt).Expr.Origin(),
	}
	for i, id := range ids {
		if id != i {
			t.Fatalf("expected pre-order id %d at position %d, got %d", i, i, id)
		}
		if seen[id] {
			t.Fatalf("duplicate source id %d", id)
		}
		seen[id] = true
	}
}
