package remote

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/traojudge/core/jobapi"
	"github.com/traojudge/core/jobapi/local"
)

func dialBufconn(t *testing.T, backend jobapi.JobAPI) *Client {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	grpcServer := grpc.NewServer()
	NewServer(backend).Register(grpcServer)
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

func TestRemoteReserveAndRelease(t *testing.T) {
	backend := local.New(t.TempDir(), 2)
	client := dialBufconn(t, backend)

	tokens, err := client.ReserveExecution(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	for _, tok := range tokens {
		tok.Release()
	}
}

func TestRemotePlaceFileAndExecute(t *testing.T) {
	backend := local.New(t.TempDir(), 1)
	client := dialBufconn(t, backend)
	ctx := context.Background()

	script, err := client.PlaceFile(ctx, jobapi.FileConf{Kind: jobapi.FileConfText, Content: "#!/bin/sh\necho remote-hi\n"})
	require.NoError(t, err)
	defer script.Release()

	tokens, err := client.ReserveExecution(ctx, 1)
	require.NoError(t, err)

	outcome, out, err := client.Execute(ctx, tokens[0], nil, []jobapi.Dependency{
		{Envvar: "TRAOJUDGE_EXEC_SCRIPT", Outcome: script},
	})
	require.NoError(t, err)
	defer outcome.Release()

	assert.Equal(t, 0, out.ExitStatus)
	assert.Contains(t, out.Stdout, "remote-hi")
}

func TestRemoteCloneOutcome(t *testing.T) {
	backend := local.New(t.TempDir(), 1)
	client := dialBufconn(t, backend)
	ctx := context.Background()

	outcome, err := client.PlaceFile(ctx, jobapi.FileConf{Kind: jobapi.FileConfEmptyDirectory})
	require.NoError(t, err)

	clone := outcome.Clone()
	outcome.Release()
	clone.Release()
}
