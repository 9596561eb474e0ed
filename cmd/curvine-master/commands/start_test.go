package commands

import (
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curviron/master/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.GetDefaultConfig()
	cfg.Store.NamespacePath = filepath.Join(dir, "namespace.db")
	cfg.Store.WorkerTablePath = filepath.Join(dir, "workers")
	return cfg
}

func TestBuildDispatcherWithDefaultsWiresEverything(t *testing.T) {
	cfg := testConfig(t)

	d, closeAll, err := buildDispatcher(cfg, prometheus.NewRegistry())
	require.NoError(t, err)
	defer closeAll()

	assert.NotNil(t, d.Namespace)
	assert.NotNil(t, d.Workers)
	assert.NotNil(t, d.Mounts)
	assert.NotNil(t, d.Retry)
	assert.NotNil(t, d.Metrics)
	assert.NotNil(t, d.Audit)
	assert.Nil(t, d.Load, "no load service endpoint configured")
	assert.Nil(t, d.Auth, "no auth secret configured")
	require.NotNil(t, d.IsLeader)
	assert.True(t, d.IsLeader())
}

func TestBuildDispatcherRespectsLeaderConfig(t *testing.T) {
	cfg := testConfig(t)
	inactive := false
	cfg.Leader.Active = &inactive

	d, closeAll, err := buildDispatcher(cfg, prometheus.NewRegistry())
	require.NoError(t, err)
	defer closeAll()

	assert.False(t, d.IsLeader())
}

func TestBuildDispatcherWithAuthSecretBuildsVerifier(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.Secret = "a-secret-at-least-32-bytes-long!!"

	d, closeAll, err := buildDispatcher(cfg, prometheus.NewRegistry())
	require.NoError(t, err)
	defer closeAll()

	assert.NotNil(t, d.Auth)
}
