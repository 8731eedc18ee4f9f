package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/open-teleop/keyboard-teleop/pkg/config"
)

func loadWithArgs(t *testing.T, args ...string) (*config.Config, bool, error) {
	t.Helper()
	var (
		cfg   *config.Config
		found bool
	)
	app := newApp()
	app.Action = func(c *cli.Context) error {
		var err error
		cfg, found, err = loadConfig(c)
		return err
	}
	err := app.Run(append([]string{"keyboard_teleop"}, args...))
	return cfg, found, err
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, found, err := loadWithArgs(t, "--config-dir", t.TempDir())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, config.Default(), cfg)
}

func TestFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	content := "params:\n  speed: 0.8\n  turn: 2.0\nlogging:\n  level: warn\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(content), 0644))

	cfg, found, err := loadWithArgs(t, "--config-dir", dir, "--speed", "0.3", "--log-level", "debug", "--no-server")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 0.3, cfg.Params.Speed)
	assert.Equal(t, 2.0, cfg.Params.Turn)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Server.Enabled)
}

func TestEnvOverridesTurn(t *testing.T) {
	t.Setenv("TELEOP_TURN", "1.5")
	cfg, _, err := loadWithArgs(t, "--config-dir", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 1.5, cfg.Params.Turn)
}

func TestInvalidSpeedFlag(t *testing.T) {
	_, _, err := loadWithArgs(t, "--config-dir", t.TempDir(), "--speed", "-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "params.speed")
}
