package storage

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/funvibe/steinlang/internal/ast"
	"github.com/funvibe/steinlang/internal/evaluator"
)

func startTestServer(t *testing.T) (*grpc.ClientConn, *Service) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "steinlang-rpc-test.db")
	st, err := Open(dsn, 0)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc := &Service{Store: st, MaxSteps: 10000}
	srv := NewServer(svc)

	lis := bufconn.Listen(1024 * 1024)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	dialer := func(context.Context, string) (net.Conn, error) { return lis.Dial() }
	opts := append(DialOptions(), grpc.WithContextDialer(dialer), grpc.WithTransportCredentials(insecure.NewCredentials()))
	conn, err := grpc.NewClient("passthrough:///bufconn", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn, svc
}

func countingProgram() *evaluator.EvalContext {
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.PrintStmt{Expr: &ast.LiteralExpr{Value: ast.IntLit(1)}},
		&ast.PrintStmt{Expr: &ast.LiteralExpr{Value: ast.IntLit(2)}},
	}}
	ast.AssignSourceIDs(prog)
	return evaluator.NewEvalContext(prog)
}

func TestServiceEvaluateThenStepThenSnapshot(t *testing.T) {
	_, svc := startTestServer(t)
	ctx := context.Background()

	evalResp, err := svc.Evaluate(ctx, &EvaluateRequest{Program: countingProgram(), MaxSteps: 2})
	require.NoError(t, err)
	require.NotEmpty(t, evalResp.SessionID)
	require.False(t, evalResp.Done)

	stepResp, err := svc.Step(ctx, &StepRequest{SessionID: evalResp.SessionID, MaxSteps: 10000})
	require.NoError(t, err)
	require.True(t, stepResp.Done)
	require.Equal(t, []string{"int_val: 1", "int_val: 2"}, stepResp.Output)

	snap, err := svc.Snapshot(ctx, &SnapshotRequest{SessionID: evalResp.SessionID})
	require.NoError(t, err)
	require.True(t, snap.Done)
	require.Equal(t, stepResp.Output, snap.Output)
}

func TestServiceStepUnknownSessionErrors(t *testing.T) {
	_, svc := startTestServer(t)
	_, err := svc.Step(context.Background(), &StepRequest{SessionID: "missing", MaxSteps: 10})
	require.Error(t, err)
}

func TestServiceEvaluateRequiresProgram(t *testing.T) {
	_, svc := startTestServer(t)
	_, err := svc.Evaluate(context.Background(), &EvaluateRequest{MaxSteps: 10})
	require.Error(t, err)
}

func TestWireCodecRoundTripsEvalResponse(t *testing.T) {
	codec := wireCodec{}
	resp := &EvalResponse{SessionID: "abc", Steps: 5, Output: []string{"int_val: 1"}, Done: true}

	data, err := codec.Marshal(resp)
	require.NoError(t, err)

	var decoded EvalResponse
	require.NoError(t, codec.Unmarshal(data, &decoded))
	require.Equal(t, *resp, decoded)
}
