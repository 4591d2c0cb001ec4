package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextVersion(t *testing.T) {
	dir := t.TempDir()

	v, err := nextVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	for _, name := range []string{
		"000001_create_delivery_log.up.sql",
		"000001_create_delivery_log.down.sql",
		"000004_add_index.up.sql",
		"000004_add_index.down.sql",
		"migrations.go",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	v, err = nextVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestRunCreate(t *testing.T) {
	migrationsDir = t.TempDir()

	require.NoError(t, runCreate(createCmd, []string{"Add Channel Index"}))

	_, err := os.Stat(filepath.Join(migrationsDir, "000001_add_channel_index.up.sql"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(migrationsDir, "000001_add_channel_index.down.sql"))
	assert.NoError(t, err)
}
