package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vippsas/piqued/internal/config"
)

func TestLoad_GitBoundaryWithNoConfigFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))

	_, err := config.Load(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfigNotFound)
}

func TestLoad_FindsFileInParentDirectory(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	toml := "[postgres]\nuri = \"postgresql://u@h/db\"\nschema = \"app\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "piqued.toml"), []byte(toml), 0o644))

	cfg, err := config.Load(sub)
	require.NoError(t, err)

	assert.Equal(t, "postgresql://u@h/db", cfg.Postgres.URI)
	assert.Equal(t, "app", cfg.Postgres.Schema)
	assert.Equal(t, filepath.Join(root, "piqued.toml"), cfg.ConfigFilePath)
	assert.Equal(t, root, cfg.Workspace.Root)
}

func TestLoad_RejectsUnknownModuleType(t *testing.T) {
	dir := t.TempDir()
	toml := "[emit]\nmoduleType = \"AMD\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "piqued.toml"), []byte(toml), 0o644))

	_, err := config.Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moduleType")
}
