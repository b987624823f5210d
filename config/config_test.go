package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFindsConfigInParentDirectory(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	contents := `
schema_version = "1"

[server]
listen = ["network"]
port = 9999

[worker]
capacity = 8
`
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(contents), 0o644))

	cfg, err := Load(context.Background(), nested)
	require.NoError(t, err)
	assert.Equal(t, []string{"network"}, cfg.Server.Listen)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.EqualValues(t, 8, cfg.Worker.Capacity)
	assert.Equal(t, root, cfg.Location)
}

func TestLoadFallsBackToDefaultWhenAbsent(t *testing.T) {
	cfg, err := Load(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
