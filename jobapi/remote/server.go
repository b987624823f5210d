package remote

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/grpc"

	"github.com/traojudge/core/jobapi"
	"github.com/traojudge/core/xerr"
)

// Server adapts a local jobapi.JobAPI (typically a jobapi/local.Backend
// running on a worker machine) to the traojudge.v1.JudgeWorker gRPC
// service. It owns the mapping from opaque wire ids back to the real
// ReservationToken/OutcomeToken values so a remote Client never needs to
// see or serialize them.
type Server struct {
	backend jobapi.JobAPI

	mu           sync.Mutex
	reservations map[string]jobapi.ReservationToken
	outcomes     map[string]jobapi.OutcomeToken
}

// NewServer wraps backend for remote access.
func NewServer(backend jobapi.JobAPI) *Server {
	return &Server{
		backend:      backend,
		reservations: make(map[string]jobapi.ReservationToken),
		outcomes:     make(map[string]jobapi.OutcomeToken),
	}
}

// Register attaches this Server to grpcServer under the hand-built service
// descriptor, the way a generated RegisterXxxServer function would.
func (s *Server) Register(grpcServer *grpc.Server) {
	grpcServer.RegisterService(&serviceDesc, s)
}

func (s *Server) reserveExecution(ctx context.Context, req *ReserveExecutionRequest) (*ReserveExecutionResponse, error) {
	tokens, err := s.backend.ReserveExecution(ctx, req.Count)
	if err != nil {
		return nil, grpcStatusErr(err)
	}

	ids := make([]string, len(tokens))
	s.mu.Lock()
	for i, t := range tokens {
		id := uuid.NewString()
		s.reservations[id] = t
		ids[i] = id
	}
	s.mu.Unlock()

	return &ReserveExecutionResponse{ReservationIds: ids}, nil
}

func (s *Server) releaseReservation(_ context.Context, req *ReleaseReservationRequest) (*ReleaseReservationResponse, error) {
	s.mu.Lock()
	token, ok := s.reservations[req.ReservationId]
	delete(s.reservations, req.ReservationId)
	s.mu.Unlock()

	if !ok {
		return nil, grpcStatusErr(xerr.ErrNotFound("reservation " + req.ReservationId))
	}
	token.Release()
	return &ReleaseReservationResponse{}, nil
}

func (s *Server) placeFile(ctx context.Context, req *PlaceFileRequest) (*PlaceFileResponse, error) {
	conf, err := wireToFileConf(req)
	if err != nil {
		return nil, grpcStatusErr(err)
	}

	outcome, err := s.backend.PlaceFile(ctx, conf)
	if err != nil {
		return nil, grpcStatusErr(err)
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.outcomes[id] = outcome
	s.mu.Unlock()

	return &PlaceFileResponse{OutcomeId: id}, nil
}

func (s *Server) cloneOutcome(_ context.Context, req *CloneOutcomeRequest) (*CloneOutcomeResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	outcome, ok := s.outcomes[req.OutcomeId]
	if !ok {
		return nil, grpcStatusErr(xerr.ErrNotFound("outcome " + req.OutcomeId))
	}
	outcome.Clone()
	return &CloneOutcomeResponse{OutcomeId: req.OutcomeId}, nil
}

func (s *Server) releaseOutcome(_ context.Context, req *ReleaseOutcomeRequest) (*ReleaseOutcomeResponse, error) {
	s.mu.Lock()
	outcome, ok := s.outcomes[req.OutcomeId]
	s.mu.Unlock()
	if !ok {
		return nil, grpcStatusErr(xerr.ErrNotFound("outcome " + req.OutcomeId))
	}
	outcome.Release()
	return &ReleaseOutcomeResponse{}, nil
}

func (s *Server) execute(ctx context.Context, req *ExecuteRequest) (*ExecuteResponse, error) {
	s.mu.Lock()
	token, ok := s.reservations[req.ReservationId]
	if ok {
		delete(s.reservations, req.ReservationId)
	}

	deps := make([]jobapi.Dependency, 0, len(req.Dependencies))
	var missing string
	for _, d := range req.Dependencies {
		outcome, found := s.outcomes[d.OutcomeId]
		if !found {
			missing = d.OutcomeId
			break
		}
		deps = append(deps, jobapi.Dependency{Envvar: d.Envvar, Outcome: outcome})
	}
	s.mu.Unlock()

	if !ok {
		return nil, grpcStatusErr(xerr.ErrNotFound("reservation " + req.ReservationId))
	}
	if missing != "" {
		return nil, grpcStatusErr(xerr.ErrNotFound("outcome " + missing))
	}

	outcome, output, err := s.backend.Execute(ctx, token, req.Env, deps)
	if err != nil {
		return nil, grpcStatusErr(err)
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.outcomes[id] = outcome
	s.mu.Unlock()

	return &ExecuteResponse{
		OutcomeId:  id,
		Stdout:     output.Stdout,
		Stderr:     output.Stderr,
		ExitStatus: output.ExitStatus,
	}, nil
}

func wireToFileConf(req *PlaceFileRequest) (jobapi.FileConf, error) {
	switch req.Kind {
	case "empty_directory":
		return jobapi.FileConf{Kind: jobapi.FileConfEmptyDirectory}, nil
	case "text":
		rid, err := parseResourceId(req.ResourceId)
		if err != nil {
			return jobapi.FileConf{}, err
		}
		return jobapi.FileConf{Kind: jobapi.FileConfText, ResourceId: rid, Content: req.Content}, nil
	case "runtime_text":
		return jobapi.FileConf{Kind: jobapi.FileConfRuntimeText, Content: req.Content}, nil
	default:
		return jobapi.FileConf{}, xerr.ErrInvalidSchema("unrecognized place_file kind %q", req.Kind)
	}
}
