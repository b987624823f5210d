package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traojudge/core/ids"
)

func TestRegisterThenFetchViaClient(t *testing.T) {
	ctx := context.Background()
	server := NewInMemory()
	client := NewClient(server)

	id, err := server.Register(ctx, "hello world")
	require.NoError(t, err)

	got, err := client.Fetch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
}

func TestFetchUnknownResourceFails(t *testing.T) {
	ctx := context.Background()
	server := NewInMemory()
	client := NewClient(server)

	_, err := client.Fetch(ctx, ids.NewResourceId())
	assert.Error(t, err)
}

func TestRemoveIsRefcounted(t *testing.T) {
	ctx := context.Background()
	server := NewInMemory()

	id, err := server.Register(ctx, "shared")
	require.NoError(t, err)
	require.NoError(t, server.Retain(ctx, id))

	require.NoError(t, server.Remove(ctx, id))
	// One reference remains; the blob must still be fetchable.
	got, err := server.fetch(id)
	require.NoError(t, err)
	assert.Equal(t, "shared", got)

	require.NoError(t, server.Remove(ctx, id))
	_, err = server.fetch(id)
	assert.Error(t, err)
}

func TestRemoveUnknownResourceFails(t *testing.T) {
	err := NewInMemory().Remove(context.Background(), ids.NewResourceId())
	assert.Error(t, err)
}
