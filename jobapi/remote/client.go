package remote

import (
	"context"

	"google.golang.org/grpc"

	"github.com/traojudge/core/jobapi"
	"github.com/traojudge/core/xerr"
)

// Client implements jobapi.JobAPI against a remote Server over an existing
// grpc.ClientConn. Dial conn with DialOptions so the connection negotiates
// the "json" content-subtype this package's codec registers.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient wraps conn for use as a jobapi.JobAPI.
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

// DialOptions returns the dial options a caller must pass to grpc.NewClient
// so requests and responses are carried by this package's JSON codec
// instead of the default protobuf codec.
func DialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}
}

var _ jobapi.JobAPI = (*Client)(nil)

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	return c.conn.Invoke(ctx, fullMethod(method), req, resp, grpc.CallContentSubtype(codecName))
}

func (c *Client) ReserveExecution(ctx context.Context, count int) ([]jobapi.ReservationToken, error) {
	resp := new(ReserveExecutionResponse)
	if err := c.invoke(ctx, methodReserveExecution, &ReserveExecutionRequest{Count: count}, resp); err != nil {
		return nil, xerr.ErrReserveFailed(err.Error())
	}

	tokens := make([]jobapi.ReservationToken, len(resp.ReservationIds))
	for i, id := range resp.ReservationIds {
		tokens[i] = &remoteReservationToken{client: c, id: id}
	}
	return tokens, nil
}

func (c *Client) PlaceFile(ctx context.Context, conf jobapi.FileConf) (jobapi.OutcomeToken, error) {
	req, err := fileConfToWire(conf)
	if err != nil {
		return nil, err
	}

	resp := new(PlaceFileResponse)
	if err := c.invoke(ctx, methodPlaceFile, req, resp); err != nil {
		return nil, xerr.ErrPlaceFailed(err.Error())
	}
	return &remoteOutcomeToken{client: c, id: resp.OutcomeId}, nil
}

func (c *Client) Execute(ctx context.Context, reservation jobapi.ReservationToken, env map[string]string, dependencies []jobapi.Dependency) (jobapi.OutcomeToken, jobapi.Output, error) {
	token, ok := reservation.(*remoteReservationToken)
	if !ok {
		return nil, jobapi.Output{}, xerr.ErrInternal("reservation token not issued by this client")
	}

	deps := make([]DependencyWire, len(dependencies))
	for i, d := range dependencies {
		outcome, ok := d.Outcome.(*remoteOutcomeToken)
		if !ok {
			return nil, jobapi.Output{}, xerr.ErrInternal("dependency outcome token not issued by this client")
		}
		deps[i] = DependencyWire{Envvar: d.Envvar, OutcomeId: outcome.id}
	}

	resp := new(ExecuteResponse)
	req := &ExecuteRequest{ReservationId: token.id, Env: env, Dependencies: deps}
	if err := c.invoke(ctx, methodExecute, req, resp); err != nil {
		return nil, jobapi.Output{}, xerr.ErrExecutionFailed(err.Error())
	}

	return &remoteOutcomeToken{client: c, id: resp.OutcomeId},
		jobapi.Output{Stdout: resp.Stdout, Stderr: resp.Stderr, ExitStatus: resp.ExitStatus},
		nil
}

func fileConfToWire(conf jobapi.FileConf) (*PlaceFileRequest, error) {
	switch conf.Kind {
	case jobapi.FileConfEmptyDirectory:
		return &PlaceFileRequest{Kind: "empty_directory"}, nil
	case jobapi.FileConfText:
		return &PlaceFileRequest{Kind: "text", ResourceId: conf.ResourceId.String(), Content: conf.Content}, nil
	case jobapi.FileConfRuntimeText:
		return &PlaceFileRequest{Kind: "runtime_text", Content: conf.Content}, nil
	default:
		return nil, xerr.ErrInvalidSchema("unrecognized file conf kind")
	}
}

type remoteReservationToken struct {
	client *Client
	id     string
}

func (t *remoteReservationToken) Release() {
	_ = t.client.invoke(context.Background(), methodReleaseReservation, &ReleaseReservationRequest{ReservationId: t.id}, new(ReleaseReservationResponse))
}

type remoteOutcomeToken struct {
	client *Client
	id     string
}

func (o *remoteOutcomeToken) Clone() jobapi.OutcomeToken {
	_ = o.client.invoke(context.Background(), methodCloneOutcome, &CloneOutcomeRequest{OutcomeId: o.id}, new(CloneOutcomeResponse))
	return &remoteOutcomeToken{client: o.client, id: o.id}
}

func (o *remoteOutcomeToken) Release() {
	_ = o.client.invoke(context.Background(), methodReleaseOutcome, &ReleaseOutcomeRequest{OutcomeId: o.id}, new(ReleaseOutcomeResponse))
}
