package ast

import "testing"

func TestFormat(t *testing.T) {
	cases := []struct {
		lit  Literal
		want string
	}{
		{None(), "none_val: true"},
		{BoolLit(true), "bool_val: true"},
		{IntLit(7), "int_val: 7"},
		{FloatLit(2.5), "float_val: 2.5"},
		{StringLit("hi"), `string_val: "hi"`},
		{TupleLit(&Tuple{Elems: []Literal{IntLit(1), BoolLit(false)}}), "tuple_val: (int_val: 1, bool_val: false)"},
		{ClosureLit(&Closure{Params: []string{"a", "b"}}), "closure_val: <2 params>"},
	}
	for _, c := range cases {
		if got := c.lit.Format(); got != c.want {
			t.Errorf("Format(%+v) = %q, want %q", c.lit, got, c.want)
		}
	}
}

func TestEnvironmentCloneIsIndependent(t *testing.T) {
	e := Environment{"x": 1}
	clone := e.Clone()
	clone["x"] = 2
	clone["y"] = 3
	if e["x"] != 1 {
		t.Fatalf("mutating the clone must not affect the original")
	}
	if _, ok := e["y"]; ok {
		t.Fatalf("clone additions must not leak back into the original")
	}
}
