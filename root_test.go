package main

import (
	"testing"

	"serverbot/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunFlagsOverrideConfig(t *testing.T) {
	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"/"}, cfg.Disk.MountPoints)
	assert.Equal(t, 85.0, cfg.Disk.WarningThreshold)

	flags := runCmd.Flags()
	require.NoError(t, flags.Set("mount-point", "/bar"))
	require.NoError(t, flags.Set("mount-point", "/scratch"))
	require.NoError(t, flags.Set("threshold", "90"))
	require.NoError(t, flags.Set("alert-channel", "#ops"))
	require.NoError(t, flags.Set("http", "false"))
	require.NoError(t, flags.Set("http-addr", ":9090"))

	cfg, err = config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"/bar", "/scratch"}, cfg.Disk.MountPoints)
	assert.Equal(t, 90.0, cfg.Disk.WarningThreshold)
	assert.Equal(t, "ops", cfg.Alerts.Channel)
	assert.False(t, cfg.HTTP.Enabled)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
}

func TestAboutMessage(t *testing.T) {
	assert.Contains(t, aboutMessage("Jane"), "Contact Jane for maintenance issues.")
}
