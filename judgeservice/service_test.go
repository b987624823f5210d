package judgeservice

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/traojudge/core/ids"
	"github.com/traojudge/core/jobapi/local"
	"github.com/traojudge/core/registry"
	"github.com/traojudge/core/runner"
	"github.com/traojudge/core/schema/registered"
)

func buildEchoProcedure(t *testing.T, reg *registry.InMemory) (registered.Procedure, ids.DepId) {
	t.Helper()

	scriptId := ids.NewDepId()
	execId := ids.NewDepId()

	scriptRid, err := reg.Register(context.Background(), "#!/bin/sh\necho '{\"status\":\"Accepted\",\"score\":1,\"exec_time_ms\":1,\"memory_kib\":1}'\n")
	require.NoError(t, err)

	proc := registered.Procedure{
		Texts: []registered.Text{{ResourceId: scriptRid, Id: scriptId}},
		Executions: []registered.Execution{{
			Id:         execId,
			Dependency: []registered.Dependency{{Id: scriptId, EnvvarName: registered.TraojudgeExecScriptEnvvar}},
		}},
	}
	return proc, execId
}

func TestServiceJudgeEndToEnd(t *testing.T) {
	reg := registry.NewInMemory()
	proc, execId := buildEchoProcedure(t, reg)

	svc := NewService(registry.NewClient(reg), local.New(t.TempDir(), 2))

	resp, err := svc.Judge(context.Background(), JudgeRequest{Procedure: proc, Language: "go"})
	require.NoError(t, err)

	res := resp.Results[execId]
	assert.Equal(t, runner.Succeeded, res.Kind)
	assert.Equal(t, float64(1), res.Result.Displayable.Score)
}

func TestServiceJudgeStaticEnvPropagates(t *testing.T) {
	reg := registry.NewInMemory()

	scriptId := ids.NewDepId()
	execId := ids.NewDepId()
	scriptRid, err := reg.Register(context.Background(),
		`#!/bin/sh
echo "{\"status\":\"Accepted\",\"score\":1,\"exec_time_ms\":1,\"memory_kib\":1,\"text\":\"$TRAOJUDGE_EXEC_LANGUAGE/$TRAOJUDGE_EXEC_TIME_LIMIT_MS\"}"
`)
	require.NoError(t, err)

	proc := registered.Procedure{
		Texts: []registered.Text{{ResourceId: scriptRid, Id: scriptId}},
		Executions: []registered.Execution{{
			Id:         execId,
			Dependency: []registered.Dependency{{Id: scriptId, EnvvarName: registered.TraojudgeExecScriptEnvvar}},
		}},
	}

	svc := NewService(registry.NewClient(reg), local.New(t.TempDir(), 2))
	resp, err := svc.Judge(context.Background(), JudgeRequest{
		Procedure: proc,
		Language:  "cpp17",
		Limits:    &Limits{TimeMs: 2000, MemoryKiB: 65536},
	})
	require.NoError(t, err)

	res := resp.Results[execId]
	require.Equal(t, runner.Succeeded, res.Kind)
	require.NotNil(t, res.Result.Displayable)
	assert.Equal(t, "cpp17/2000", *res.Result.Displayable.Text)
}

func dialBufconn(t *testing.T, api JudgeApi) *Client {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	grpcServer := grpc.NewServer()
	NewServer(api).Register(grpcServer)
	go func() {
		_ = grpcServer.Serve(lis)
	}()
	t.Cleanup(grpcServer.Stop)

	dialer := func(context.Context, string) (net.Conn, error) { return lis.Dial() }
	opts := append([]grpc.DialOption{
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, DialOptions()...)

	conn, err := grpc.NewClient("passthrough:///bufnet", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewClient(conn)
}

func TestGRPCJudgeRoundTrip(t *testing.T) {
	reg := registry.NewInMemory()
	proc, execId := buildEchoProcedure(t, reg)

	svc := NewService(registry.NewClient(reg), local.New(t.TempDir(), 2))
	client := dialBufconn(t, svc)

	resp, err := client.Judge(context.Background(), JudgeRequest{Procedure: proc})
	require.NoError(t, err)

	res := resp.Results[execId]
	assert.Equal(t, runner.Succeeded, res.Kind)
}
