package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWhenNothingOverrides(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, ModuleHFDL, cfg.Module)
	assert.Equal(t, "127.0.0.1", cfg.ListenHost)
	assert.Equal(t, uint16(8080), cfg.ListenPort)
	assert.Equal(t, "xng_acars_db", cfg.ElasticIndex)
	assert.Equal(t, 60*time.Second, cfg.InactiveTimeout)
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	cfg, err := Load("", []string{
		"--module", "vdl2",
		"--bin", "/usr/local/bin/dumpvdl2",
		"--sample-rate", "8000",
		"--listen-port", "9090",
	})
	require.NoError(t, err)

	assert.Equal(t, ModuleVDL2, cfg.Module)
	assert.Equal(t, "/usr/local/bin/dumpvdl2", cfg.Bin)
	assert.Equal(t, 8000, cfg.SampleRateHz)
	assert.Equal(t, uint16(9090), cfg.ListenPort)
}

func TestLoadReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xng.yaml")
	require.NoError(t, os.WriteFile(path, []byte("module: vdl2\nbin: /opt/dumpvdl2\nsample_rate: 2400\n"), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, ModuleVDL2, cfg.Module)
	assert.Equal(t, "/opt/dumpvdl2", cfg.Bin)
	assert.Equal(t, 2400, cfg.SampleRateHz)
}

func TestLoadFlagsOverrideYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xng.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bin: /opt/dumphfdl\n"), 0o644))

	cfg, err := Load(path, []string{"--bin", "/override/dumphfdl"})
	require.NoError(t, err)

	assert.Equal(t, "/override/dumphfdl", cfg.Bin)
}

func TestLoadEnvOverridesYAMLButNotFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xng.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bin: /opt/dumphfdl\n"), 0o644))

	t.Setenv("XNG_BIN", "/env/dumphfdl")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "/env/dumphfdl", cfg.Bin)

	cfg, err = Load(path, []string{"--bin", "/flag/dumphfdl"})
	require.NoError(t, err)
	assert.Equal(t, "/flag/dumphfdl", cfg.Bin)
}

func TestLoadRejectsUnknownModule(t *testing.T) {
	_, err := Load("", []string{"--module", "bogus"})
	require.Error(t, err)
}

func TestLoadRejectsSwarmAndElasticTogether(t *testing.T) {
	_, err := Load("", []string{"--swarm", "127.0.0.1:9000", "--elastic", "http://localhost:9200"})
	require.Error(t, err)
}
