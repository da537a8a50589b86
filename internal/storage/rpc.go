package storage

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/funvibe/steinlang/internal/evaluator"
)

// wireCodec is steinlang's own grpc wire codec: every request/response
// message below marshals itself with the same protowire primitives
// record.go uses for persisted EvalContext blobs, so there is one wire
// format for "a steinlang machine state" whether it is sitting in sqlite or
// in flight over grpc. Registered under a private codec name rather than
// "proto" — these messages do not implement proto.Message, and nothing
// forces them to (spec.md §6: the storage collaborator is a thin boundary
// around the core, not a proto-reflection consumer).
const codecName = "steinlang-wire"

type wireMessage interface {
	marshal() []byte
	unmarshal([]byte) error
}

type wireCodec struct{}

func (wireCodec) Name() string { return codecName }

func (wireCodec) Marshal(v interface{}) ([]byte, error) {
	m, ok := v.(wireMessage)
	if !ok {
		return nil, fmt.Errorf("storage: %T does not implement wireMessage", v)
	}
	return m.marshal(), nil
}

func (wireCodec) Unmarshal(data []byte, v interface{}) error {
	m, ok := v.(wireMessage)
	if !ok {
		return fmt.Errorf("storage: %T does not implement wireMessage", v)
	}
	return m.unmarshal(data)
}

func init() {
	encoding.RegisterCodec(wireCodec{})
}

const (
	fReqSessionID = 1
	fReqProgram   = 2
	fReqMaxSteps  = 3

	fRespSessionID = 1
	fRespSteps     = 2
	fRespOutput    = 3
	fRespDone      = 4
	fRespErr       = 5
)

// EvaluateRequest starts a fresh session from a program and steps it.
type EvaluateRequest struct {
	Program  *evaluator.EvalContext // caller-constructed initial state (evaluator.NewEvalContext)
	MaxSteps int
}

func (r *EvaluateRequest) marshal() []byte {
	var b []byte
	if r.Program != nil {
		b = appendBytesField(b, fReqProgram, EncodeEvalContext(r.Program))
	}
	b = appendVarintField(b, fReqMaxSteps, uint64(r.MaxSteps))
	return b
}

func (r *EvaluateRequest) unmarshal(data []byte) error {
	return decodeRequestFields(data, r)
}

// StepRequest resumes an existing session by id.
type StepRequest struct {
	SessionID string
	MaxSteps  int
}

func (r *StepRequest) marshal() []byte {
	var b []byte
	b = appendStringField(b, fReqSessionID, r.SessionID)
	b = appendVarintField(b, fReqMaxSteps, uint64(r.MaxSteps))
	return b
}

func (r *StepRequest) unmarshal(data []byte) error {
	return decodeRequestFields(data, r)
}

// SnapshotRequest asks for the current persisted state of a session,
// without advancing it.
type SnapshotRequest struct {
	SessionID string
}

func (r *SnapshotRequest) marshal() []byte {
	return appendStringField(nil, fReqSessionID, r.SessionID)
}

func (r *SnapshotRequest) unmarshal(data []byte) error {
	return decodeRequestFields(data, r)
}

func decodeRequestFields(data []byte, dst interface{}) error {
	var sessionID string
	var maxSteps int
	var program *evaluator.EvalContext

	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("storage: rpc request: bad tag")
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("storage: rpc request: bad varint")
			}
			b = b[n:]
			if num == fReqMaxSteps {
				maxSteps = int(v)
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("storage: rpc request: bad bytes")
			}
			b = b[n:]
			switch num {
			case fReqSessionID:
				sessionID = string(v)
			case fReqProgram:
				ec, err := DecodeEvalContext(v)
				if err != nil {
					return err
				}
				program = ec
			}
		default:
			return fmt.Errorf("storage: rpc request: unsupported wire type %v", typ)
		}
	}

	switch d := dst.(type) {
	case *EvaluateRequest:
		d.Program = program
		d.MaxSteps = maxSteps
	case *StepRequest:
		d.SessionID = sessionID
		d.MaxSteps = maxSteps
	case *SnapshotRequest:
		d.SessionID = sessionID
	}
	return nil
}

// EvalResponse reports the outcome of a session after it was started or
// stepped: the session id it now lives under, the number of steps actually
// taken, any output printed so far, whether the machine has fully returned,
// and a textual error (populated when stepping failed: the machine's
// evalerrors.ArityError, or a failure to persist the stepped state).
type EvalResponse struct {
	SessionID string
	Steps     int
	Output    []string
	Done      bool
	Err       string
}

func (r *EvalResponse) marshal() []byte {
	var b []byte
	b = appendStringField(b, fRespSessionID, r.SessionID)
	b = appendVarintField(b, fRespSteps, uint64(r.Steps))
	for _, o := range r.Output {
		b = appendStringField(b, fRespOutput, o)
	}
	done := uint64(0)
	if r.Done {
		done = 1
	}
	b = appendVarintField(b, fRespDone, done)
	if r.Err != "" {
		b = appendStringField(b, fRespErr, r.Err)
	}
	return b
}

func (r *EvalResponse) unmarshal(data []byte) error {
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("storage: rpc response: bad tag")
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("storage: rpc response: bad varint")
			}
			b = b[n:]
			switch num {
			case fRespSteps:
				r.Steps = int(v)
			case fRespDone:
				r.Done = v != 0
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("storage: rpc response: bad bytes")
			}
			b = b[n:]
			switch num {
			case fRespSessionID:
				r.SessionID = string(v)
			case fRespOutput:
				r.Output = append(r.Output, string(v))
			case fRespErr:
				r.Err = string(v)
			}
		default:
			return fmt.Errorf("storage: rpc response: unsupported wire type %v", typ)
		}
	}
	return nil
}

// Service implements the three unary RPCs over a *Store: Evaluate (start a
// session), Step (resume one), Snapshot (read without advancing).
type Service struct {
	Store    *Store
	MaxSteps int // ceiling applied on top of whatever the caller requests
}

func (s *Service) clamp(requested int) int {
	if requested <= 0 || requested > s.MaxSteps {
		return s.MaxSteps
	}
	return requested
}

// Evaluate persists req.Program under a new session id and steps it.
func (s *Service) Evaluate(ctx context.Context, req *EvaluateRequest) (*EvalResponse, error) {
	if req.Program == nil {
		return nil, status.Error(codes.InvalidArgument, "storage: Evaluate requires a program")
	}
	id, err := s.Store.Create(ctx, req.Program)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return s.runAndRespond(ctx, id, s.clamp(req.MaxSteps))
}

// Step resumes an existing session for up to req.MaxSteps steps.
func (s *Service) Step(ctx context.Context, req *StepRequest) (*EvalResponse, error) {
	if req.SessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "storage: Step requires a session_id")
	}
	return s.runAndRespond(ctx, req.SessionID, s.clamp(req.MaxSteps))
}

func (s *Service) runAndRespond(ctx context.Context, id string, maxSteps int) (*EvalResponse, error) {
	steps, stepErr := s.Store.Step(ctx, id, maxSteps)
	ec, loadErr := s.Store.Load(ctx, id)
	if loadErr != nil {
		return nil, status.Error(codes.Internal, loadErr.Error())
	}
	resp := &EvalResponse{
		SessionID: id,
		Steps:     steps,
		Output:    ec.Output,
		Done:      ec.Done(),
	}
	if stepErr != nil {
		resp.Err = stepErr.Error()
	}
	return resp, nil
}

// Snapshot reports a session's current state without advancing it.
func (s *Service) Snapshot(ctx context.Context, req *SnapshotRequest) (*EvalResponse, error) {
	if req.SessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "storage: Snapshot requires a session_id")
	}
	ec, err := s.Store.Load(ctx, req.SessionID)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &EvalResponse{
		SessionID: req.SessionID,
		Output:    ec.Output,
		Done:      ec.Done(),
	}, nil
}

func evaluateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := &EvaluateRequest{}
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Service).Evaluate(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/steinlang.storage.Evaluator/Evaluate"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*Service).Evaluate(ctx, req.(*EvaluateRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func stepHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := &StepRequest{}
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Service).Step(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/steinlang.storage.Evaluator/Step"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*Service).Step(ctx, req.(*StepRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func snapshotHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := &SnapshotRequest{}
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Service).Snapshot(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/steinlang.storage.Evaluator/Snapshot"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*Service).Snapshot(ctx, req.(*SnapshotRequest))
	}
	return interceptor(ctx, req, info, handler)
}

// ServiceDesc is a hand-built grpc.ServiceDesc — no .proto file and no
// generated _grpc.pb.go stub exist for this service; the method table is
// written out directly, the way grpc-go itself documents doing when you
// don't want to run protoc (spec.md §6). HandlerType must point at an
// interface, not the concrete *Service — RegisterService calls
// reflect.TypeOf(sd.HandlerType).Elem() and passes the result to
// reflect.Type.Implements, which panics given a non-interface type.
// internal/evaluator/builtins_grpc.go uses the same (*interface{})(nil)
// placeholder in the teacher for exactly this reason.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "steinlang.storage.Evaluator",
	HandlerType: (*interface{})(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: evaluateHandler},
		{MethodName: "Step", Handler: stepHandler},
		{MethodName: "Snapshot", Handler: snapshotHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "internal/storage/rpc.go",
}

// NewServer builds a grpc.Server with the Evaluator service registered and
// forced onto the private wire codec declared above.
func NewServer(svc *Service) *grpc.Server {
	srv := grpc.NewServer(grpc.ForceServerCodec(wireCodec{}))
	srv.RegisterService(&ServiceDesc, svc)
	return srv
}

// DialOptions returns the grpc.DialOption a client needs to talk to a
// NewServer-built server: the same forced wire codec.
func DialOptions() []grpc.DialOption {
	return []grpc.DialOption{grpc.WithDefaultCallOptions(grpc.ForceCodec(wireCodec{}))}
}

