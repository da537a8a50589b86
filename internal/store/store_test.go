package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/funvibe/steinlang/internal/ast"
)

func TestAllocReturnsStableAddress(t *testing.T) {
	s := New()
	a1 := s.Alloc(ast.IntLit(1))
	a2 := s.Alloc(ast.IntLit(2))
	require.NotEqual(t, a1, a2)
	require.Equal(t, ast.IntLit(1), s.Get(a1))
	require.Equal(t, ast.IntLit(2), s.Get(a2))
}

func TestSetPreservesAddress(t *testing.T) {
	s := New()
	a := s.Alloc(ast.IntLit(1))
	s.Set(a, ast.IntLit(99))
	require.Equal(t, ast.IntLit(99), s.Get(a))
}

func TestCloneIsIndependent(t *testing.T) {
	s := New()
	a := s.Alloc(ast.IntLit(1))
	clone := s.Clone()
	clone.Set(a, ast.IntLit(2))
	require.Equal(t, ast.IntLit(1), s.Get(a))
	require.Equal(t, ast.IntLit(2), clone.Get(a))
}

func TestFromCellsRoundTrips(t *testing.T) {
	s := New()
	s.Alloc(ast.IntLit(1))
	s.Alloc(ast.StringLit("hi"))
	rebuilt := FromCells(s.Cells())
	require.Equal(t, s.Len(), rebuilt.Len())
	require.Equal(t, s.Cells(), rebuilt.Cells())
}
