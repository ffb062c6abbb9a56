package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".larchfix.kdl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.kdl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
workdir "/tmp/fixup-state"
jobs 6
keep-going true
verbose true
replace false
clean true
exclude-labels "scratch-*" "tmp-*"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/fixup-state", cfg.Workdir)
	assert.Equal(t, 6, cfg.Jobs)
	assert.True(t, cfg.KeepGoing)
	assert.True(t, cfg.Verbose)
	assert.False(t, cfg.Replace)
	assert.True(t, cfg.CleanWorkdir)
	assert.Equal(t, []string{"scratch-*", "tmp-*"}, cfg.ExcludeLabels)
}

func TestLoad_UnknownNodeIsAnError(t *testing.T) {
	path := writeConfig(t, `workdirr "/typo"`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MalformedKDL(t *testing.T) {
	path := writeConfig(t, `jobs "unclosed`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_NegativeJobs(t *testing.T) {
	cfg := &Config{Jobs: -1}
	assert.Error(t, cfg.Validate())
}
