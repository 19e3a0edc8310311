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
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"bridge": {"host": "192.168.1.10", "username": "abc123"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Empty(t, cfg.Server.WebSocketAddr)
	assert.Equal(t, 10.0, cfg.Bridge.RateLimit)
	assert.Equal(t, 10, cfg.Bridge.RateBurst)
	assert.Equal(t, "patterns", cfg.PatternsDir)
	assert.Equal(t, "schedules.json", cfg.SchedulesFile)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "huelink", cfg.MQTT.ClientID)
	assert.Equal(t, "huelink", cfg.MQTT.TopicPrefix)
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, `{
		"server": {"port": "4000", "websocket_addr": ":4001"},
		"bridge": {"host": "hue.local", "username": "user-1", "command_rate_limit": 5, "command_rate_burst": 2},
		"mqtt": {"enabled": true, "broker": "tcp://broker:1883", "topic_prefix": "lights"},
		"patterns_dir": "/var/lib/huelink/patterns",
		"schedules_file": "/var/lib/huelink/schedules.json"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, ":4001", cfg.Server.WebSocketAddr)
	assert.Equal(t, "hue.local", cfg.Bridge.Host)
	assert.Equal(t, 5.0, cfg.Bridge.RateLimit)
	assert.Equal(t, 2, cfg.Bridge.RateBurst)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "lights", cfg.MQTT.TopicPrefix)
	assert.Equal(t, "/var/lib/huelink/patterns", cfg.PatternsDir)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `{
		"server": {"port": "4000"},
		"bridge": {"host": "from-file", "username": "from-file"}
	}`)

	t.Setenv("HUE_BRIDGE_HOST", "10.0.0.2")
	t.Setenv("HUE_BRIDGE_USER", "env-user")
	t.Setenv("HUELINK_PORT", "5000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.2", cfg.Bridge.Host)
	assert.Equal(t, "env-user", cfg.Bridge.Username)
	assert.Equal(t, "5000", cfg.Server.Port)
}

func TestMissingFileWithEnvCredentials(t *testing.T) {
	t.Setenv("HUE_BRIDGE_HOST", "10.0.0.2")
	t.Setenv("HUE_BRIDGE_USER", "env-user")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", cfg.Bridge.Host)
	assert.Equal(t, "3000", cfg.Server.Port)
}

func TestMissingCredentialsRejected(t *testing.T) {
	t.Setenv("HUE_BRIDGE_HOST", "")
	t.Setenv("HUE_BRIDGE_USER", "")

	path := writeConfig(t, `{"bridge": {"host": "192.168.1.10"}}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HUE_BRIDGE_USER")

	path = writeConfig(t, `{"bridge": {"username": "abc"}}`)
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HUE_BRIDGE_HOST")
}

func TestBrokenJSONRejected(t *testing.T) {
	path := writeConfig(t, "{broken")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode config json")
}

func TestSanitizeTrimsWhitespace(t *testing.T) {
	path := writeConfig(t, `{
		"server": {"port": " 4000 "},
		"bridge": {"host": " hue.local ", "username": " u "}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, "hue.local", cfg.Bridge.Host)
	assert.Equal(t, "u", cfg.Bridge.Username)
}
