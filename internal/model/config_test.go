package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultAppConfig(), cfg)
	assert.Equal(t, time.Second, cfg.Simulation.LoginDelay())
	assert.Equal(t, 500*time.Millisecond, cfg.Simulation.TaskDelay())
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "storage:\n  path: /tmp/x.db\nidentity:\n  backend: keyring\nsimulation:\n  login_delay_ms: 0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.Storage.Path)
	assert.Equal(t, IdentityBackendKeyring, cfg.Identity.Backend)
	assert.Zero(t, cfg.Simulation.LoginDelayMs)
	assert.Equal(t, 500, cfg.Simulation.TaskDelayMs, "unset keys keep defaults")
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("TASKSTATE_SIMULATION_TASK_DELAY_MS", "42")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Simulation.TaskDelayMs)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("identity:\n  backend: vault\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, `unknown identity backend "vault"`)
}

func TestValidate(t *testing.T) {
	cfg := DefaultAppConfig()
	require.NoError(t, cfg.Validate())

	neg := DefaultAppConfig()
	neg.Simulation.TaskDelayMs = -1
	assert.Error(t, neg.Validate())

	level := DefaultAppConfig()
	level.Log.Level = "loud"
	assert.Error(t, level.Validate())
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultAppConfig()
	cfg.Storage.Path = ":memory:"
	cfg.Simulation.LoginDelayMs = 7
	cfg.Log.File = "/tmp/taskstate.log"

	require.NoError(t, SaveConfig(path, cfg))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "data", "x.db"), ExpandPath("~/data/x.db"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, "/abs/x.db", ExpandPath("/abs/x.db"))
	assert.Equal(t, "~other/x", ExpandPath("~other/x"))
	assert.Equal(t, ":memory:", ExpandPath(":memory:"))
}
