package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "armgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  host: 127.0.0.1
  port: 9090
rpc:
  endpoint: http://robot:8081/RPC2
  timeout: 3s
  retries: 2
session:
  secret: sekrit
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.ListenAddr())
	assert.Equal(t, "http://robot:8081/RPC2", cfg.RPC.Endpoint)
	assert.Equal(t, 3*time.Second, cfg.RPC.Timeout)
	assert.Equal(t, 2, cfg.RPC.Retries)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvFallbacks(t *testing.T) {
	t.Setenv("ARMGATE_SESSION_SECRET", "from-env")
	t.Setenv("ARMGATE_MOCK_BACKEND", "1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Session.Secret)
	assert.True(t, cfg.Backend.Mock)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Session.Secret = "s"
	require.NoError(t, cfg.Validate())

	bad := *cfg
	bad.Server.Port = 0
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.RPC.Endpoint = ""
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.RPC.Endpoint = ""
	bad.Backend.Mock = true
	assert.NoError(t, bad.Validate())

	bad = *cfg
	bad.Session.Secret = ""
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Logging.Level = "verbose"
	assert.Error(t, bad.Validate())
}
