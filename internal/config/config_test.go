package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "huishoudboek.db", cfg.Database.Path)
	assert.Equal(t, 1, cfg.Budget.CutoffDay)
	assert.Equal(t, 0.05, cfg.Budget.DefaultTolerance)
	assert.Equal(t, 4, cfg.Sweep.Parallelism)
	assert.Equal(t, ".", cfg.Sweep.DataRoot)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huishoudboek.yaml")
	want := Default()
	want.Budget.CutoffDay = 25
	want.Sweep.DataRoot = "/var/lib/huishoudboek"

	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huishoudboek.yaml")
	raw := `database:
  path: data/test.db
budget:
  cutoff_day: 23
  default_tolerance: 0.1
sweep:
  parallelism: 2
  data_root: data
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data/test.db", cfg.Database.Path)
	assert.Equal(t, 23, cfg.Budget.CutoffDay)
	assert.Equal(t, 0.1, cfg.Budget.DefaultTolerance)
	assert.Equal(t, 2, cfg.Sweep.Parallelism)
	assert.Equal(t, "data", cfg.Sweep.DataRoot)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huishoudboek.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [broken"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
