package cmd

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/meetwise/internal/config"
)

func TestWriteConfig(t *testing.T) {
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "meetwise.yaml")

	c := config.DefaultConfig()
	c.OwnerPhone = "919876543210"
	require.NoError(t, writeConfig(path, c, false))

	loaded, err := config.Load(path, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "919876543210", loaded.OwnerPhone)

	err = writeConfig(path, c, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	c.OwnerPhone = "15550100"
	require.NoError(t, writeConfig(path, c, true))
	loaded, err = config.Load(path, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "15550100", loaded.OwnerPhone)
}
