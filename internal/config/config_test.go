package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultConfigPassesValidation(t *testing.T) {
	cfg := GetDefaultConfig()
	assert.NoError(t, Validate(cfg))
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "TRACE"
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsBadListenAddr(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.RPC.ListenAddr = ""
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsPortOutOfRange(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Port = 70000
	assert.Error(t, Validate(cfg))
}

func TestApplyDefaultsNormalizesLogLevelCase(t *testing.T) {
	cfg := &Config{}
	cfg.Logging.Level = "debug"
	ApplyDefaults(cfg)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
}

func TestApplyDefaultsFillsRetryCacheAndAudit(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	assert.Positive(t, cfg.RetryCache.Capacity)
	assert.Positive(t, cfg.RetryCache.TTL)
	assert.Equal(t, "log", cfg.Audit.Sink)
	assert.Equal(t, "curvine-master", cfg.Auth.Issuer)
	require.NotNil(t, cfg.Leader.Active)
	assert.True(t, *cfg.Leader.Active)
}

func TestLoadWithNoFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.NotEmpty(t, cfg.RPC.ListenAddr)
}

func TestLoadReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("logging:\n  level: warn\n  format: json\n  output: stderr\nshutdown_timeout: 15s\nrpc:\n  listen_addr: \"127.0.0.1:9000\"\nstore:\n  namespace_path: \"/tmp/ns.db\"\n  worker_table_path: \"/tmp/workers\"\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "WARN", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "127.0.0.1:9000", cfg.RPC.ListenAddr)
}

func TestSaveConfigThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.RPC.ListenAddr = "10.0.0.1:8995"
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:8995", loaded.RPC.ListenAddr)
}

func TestMustLoadFailsWithoutConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	_, err := MustLoad("")
	assert.Error(t, err)
}
