package judgeservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"

	"github.com/traojudge/core/ids"
	"github.com/traojudge/core/runner"
	"github.com/traojudge/core/schema/registered"
	"github.com/traojudge/core/xerr"
)

// codecName matches jobapi/remote's: no protoc is invoked in this module
// (see jobapi/remote/codec.go), so JudgeService also carries plain JSON
// structs over grpc's content-subtype extension point instead of a
// generated protobuf codec. Registering a second encoding.Codec under the
// same name as jobapi/remote's is harmless (both marshal/unmarshal via
// encoding/json identically); keeping a local copy here means this package
// does not need to import jobapi/remote just for its codec.
const codecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return codecName }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("judgeservice: marshal %T: %w", v, err)
	}
	return b, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("judgeservice: unmarshal into %T: %w", v, err)
	}
	return nil
}

const (
	serviceName = "traojudge.v1.JudgeService"
	methodJudge = "Judge"
)

func fullMethod(name string) string {
	return "/" + serviceName + "/" + name
}

// JudgeRequestWire mirrors api/proto/judgeservice.proto's JudgeRequestWire:
// the registered procedure and runtime texts travel as opaque JSON rather
// than a structured message, since registered.Procedure already has a
// stable JSON shape (every id type implements MarshalText/UnmarshalText)
// and doubling that up as protobuf fields would just be the same data
// twice.
type JudgeRequestWire struct {
	RegisteredProcedureJSON []byte            `json:"registered_procedure_json"`
	RuntimeTexts            map[string]string `json:"runtime_texts,omitempty"`
	Language                string            `json:"language,omitempty"`
	TimeLimitMs             int64             `json:"time_limit_ms,omitempty"`
	MemoryLimitKiB          int64             `json:"memory_limit_kib,omitempty"`
}

// JudgeResponseWire mirrors the proto's JudgeResponseWire.
type JudgeResponseWire struct {
	ResultsJSON []byte `json:"results_json"`
}

func (r JudgeRequestWire) toRequest() (JudgeRequest, error) {
	var proc registered.Procedure
	if err := json.Unmarshal(r.RegisteredProcedureJSON, &proc); err != nil {
		return JudgeRequest{}, fmt.Errorf("judgeservice: decode registered procedure: %w", err)
	}
	req := JudgeRequest{Procedure: proc, RuntimeTexts: r.RuntimeTexts, Language: r.Language}
	if r.TimeLimitMs > 0 || r.MemoryLimitKiB > 0 {
		req.Limits = &Limits{TimeMs: r.TimeLimitMs, MemoryKiB: r.MemoryLimitKiB}
	}
	return req, nil
}

func fromRequest(req JudgeRequest) (JudgeRequestWire, error) {
	b, err := json.Marshal(req.Procedure)
	if err != nil {
		return JudgeRequestWire{}, fmt.Errorf("judgeservice: encode registered procedure: %w", err)
	}
	wire := JudgeRequestWire{RegisteredProcedureJSON: b, RuntimeTexts: req.RuntimeTexts, Language: req.Language}
	if req.Limits != nil {
		wire.TimeLimitMs = req.Limits.TimeMs
		wire.MemoryLimitKiB = req.Limits.MemoryKiB
	}
	return wire, nil
}

func (r JudgeResponseWire) toResponse() (JudgeResponse, error) {
	var results map[ids.DepId]runner.ExecutionJobResult
	if err := json.Unmarshal(r.ResultsJSON, &results); err != nil {
		return JudgeResponse{}, fmt.Errorf("judgeservice: decode results: %w", err)
	}
	return JudgeResponse{Results: results}, nil
}

func fromResponse(resp JudgeResponse) (JudgeResponseWire, error) {
	b, err := json.Marshal(resp.Results)
	if err != nil {
		return JudgeResponseWire{}, fmt.Errorf("judgeservice: encode results: %w", err)
	}
	return JudgeResponseWire{ResultsJSON: b}, nil
}

// serviceDesc is the hand-built equivalent of what protoc-gen-go-grpc would
// emit for JudgeService in judgeservice.proto.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: methodJudge, Handler: judgeHandler},
	},
	Streams:  nil,
	Metadata: "judgeservice.proto",
}

func judgeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(JudgeRequestWire)
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(*Server)
	if interceptor == nil {
		return s.judge(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: s, FullMethod: fullMethod(methodJudge)}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.judge(ctx, req.(*JudgeRequestWire))
	}
	return interceptor(ctx, req, info, handler)
}

// Server adapts a JudgeApi to the traojudge.v1.JudgeService gRPC service.
type Server struct {
	api JudgeApi
}

// NewServer wraps api for remote access.
func NewServer(api JudgeApi) *Server {
	return &Server{api: api}
}

// Register attaches this Server to grpcServer under the hand-built service
// descriptor, the way a generated RegisterJudgeServiceServer function
// would.
func (s *Server) Register(grpcServer *grpc.Server) {
	grpcServer.RegisterService(&serviceDesc, s)
}

func (s *Server) judge(ctx context.Context, req *JudgeRequestWire) (*JudgeResponseWire, error) {
	domainReq, err := req.toRequest()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	resp, err := s.api.Judge(ctx, domainReq)
	if err != nil {
		return nil, grpcStatusErr(err)
	}

	wire, err := fromResponse(resp)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &wire, nil
}

// grpcStatusErr classifies a Judge error per spec.md §7: InvalidSchemaError
// (a malformed or unvalidatable procedure) is the caller's fault and maps to
// codes.InvalidArgument; anything else (registry fetch failure, reservation/
// placement failure, a backend InternalError) is this server's fault and
// maps to codes.Internal.
func grpcStatusErr(err error) error {
	var schemaErr xerr.InvalidSchemaError
	if errors.As(err, &schemaErr) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// Client implements JudgeApi against a remote Server over an existing
// grpc.ClientConn.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient wraps conn for use as a JudgeApi.
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

var _ JudgeApi = (*Client)(nil)

// DialOptions returns the dial options a caller must pass to grpc.NewClient
// so requests and responses are carried by this package's JSON codec
// instead of the default protobuf codec.
func DialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}
}

func (c *Client) Judge(ctx context.Context, req JudgeRequest) (JudgeResponse, error) {
	wireReq, err := fromRequest(req)
	if err != nil {
		return JudgeResponse{}, err
	}

	resp := new(JudgeResponseWire)
	if err := c.conn.Invoke(ctx, fullMethod(methodJudge), &wireReq, resp, grpc.CallContentSubtype(codecName)); err != nil {
		return JudgeResponse{}, err
	}

	return resp.toResponse()
}
