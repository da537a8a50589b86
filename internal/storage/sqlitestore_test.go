package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/funvibe/steinlang/internal/ast"
	"github.com/funvibe/steinlang/internal/evaluator"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "steinlang-test.db")
	s, err := Open(dsn, 0)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func freshProgram() *evaluator.EvalContext {
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.PrintStmt{Expr: &ast.LiteralExpr{Value: ast.IntLit(7)}},
	}}
	ast.AssignSourceIDs(prog)
	return evaluator.NewEvalContext(prog)
}

func TestStoreCreateLoadRoundTrips(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, freshProgram())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	loaded, err := s.Load(ctx, id)
	require.NoError(t, err)
	require.False(t, loaded.Done())
}

func TestStoreLoadUnknownSessionErrors(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Load(context.Background(), "does-not-exist")
	require.Error(t, err)
}

func TestStoreStepAdvancesAndPersists(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, freshProgram())
	require.NoError(t, err)

	steps, err := s.Step(ctx, id, 1000)
	require.NoError(t, err)
	require.Greater(t, steps, 0)

	loaded, err := s.Load(ctx, id)
	require.NoError(t, err)
	require.True(t, loaded.Done())
	require.Equal(t, []string{"int_val: 7"}, loaded.Output)
}

func TestStoreDeleteRemovesSession(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, freshProgram())
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Load(ctx, id)
	require.Error(t, err)
}
