// Package config loads the agent configuration from a JSON file with
// environment-variable overrides for the bridge connection settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ServerConfig holds the socket transports.
type ServerConfig struct {
	Port string `json:"port"`
	// WebSocketAddr enables the optional WebSocket endpoint when set,
	// e.g. ":3001". Empty disables it.
	WebSocketAddr string `json:"websocket_addr"`
}

// BridgeConfig holds the Hue bridge session settings.
type BridgeConfig struct {
	Host      string  `json:"host"`
	Username  string  `json:"username"`
	RateLimit float64 `json:"command_rate_limit"`
	RateBurst int     `json:"command_rate_burst"`
}

// MQTTConfig holds the optional MQTT transport settings.
type MQTTConfig struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"` // tcp://IP:PORT
	Username    string `json:"username"`
	Password    string `json:"password"`
	ClientID    string `json:"client_id"`
	TopicPrefix string `json:"topic_prefix"`
}

// Config is the root configuration.
type Config struct {
	Server ServerConfig `json:"server"`
	Bridge BridgeConfig `json:"bridge"`
	MQTT   MQTTConfig   `json:"mqtt"`

	PatternsDir   string `json:"patterns_dir"`
	SchedulesFile string `json:"schedules_file"`
}

// Load reads the file, applies env overrides, defaults and validation.
// A missing file is not an error; env vars alone can carry the required
// bridge settings.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	file, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to open config file '%s': %w", path, err)
		}
	} else {
		defer file.Close()
		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config json: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.sanitize()
	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv lets the environment override the bridge session and port,
// which is how container deployments inject credentials.
func (c *Config) applyEnv() {
	if v := os.Getenv("HUE_BRIDGE_HOST"); v != "" {
		c.Bridge.Host = v
	}
	if v := os.Getenv("HUE_BRIDGE_USER"); v != "" {
		c.Bridge.Username = v
	}
	if v := os.Getenv("HUELINK_PORT"); v != "" {
		c.Server.Port = v
	}
}

func (c *Config) sanitize() {
	c.Server.Port = strings.TrimSpace(c.Server.Port)
	c.Server.WebSocketAddr = strings.TrimSpace(c.Server.WebSocketAddr)
	c.Bridge.Host = strings.TrimSpace(c.Bridge.Host)
	c.Bridge.Username = strings.TrimSpace(c.Bridge.Username)
	c.PatternsDir = strings.TrimSpace(c.PatternsDir)
	c.SchedulesFile = strings.TrimSpace(c.SchedulesFile)
}

func (c *Config) setDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "3000"
	}

	if c.Bridge.RateLimit <= 0 {
		c.Bridge.RateLimit = 10.0
	}
	if c.Bridge.RateBurst <= 0 {
		c.Bridge.RateBurst = 10
	}

	if c.PatternsDir == "" {
		c.PatternsDir = "patterns"
	}
	if c.SchedulesFile == "" {
		c.SchedulesFile = "schedules.json"
	}

	if c.MQTT.Broker == "" {
		c.MQTT.Broker = "tcp://localhost:1883"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "huelink"
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "huelink"
	}
}

func (c *Config) validate() error {
	if c.Bridge.Host == "" {
		return fmt.Errorf("config error: bridge host is required (set bridge.host or HUE_BRIDGE_HOST)")
	}
	if c.Bridge.Username == "" {
		return fmt.Errorf("config error: bridge credential is required (set bridge.username or HUE_BRIDGE_USER)")
	}
	return nil
}
