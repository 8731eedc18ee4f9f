package config

import (
	"fmt"
	"math"
)

// ConfigFileName is looked up inside the configuration directory.
const ConfigFileName = "keyboard_teleop.yaml"

// Config represents the keyboard teleop configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Params  ParamsConfig  `yaml:"params" json:"params"`
	ZeroMQ  ZeroMQConfig  `yaml:"zeromq" json:"zeromq"`
	Server  ServerConfig  `yaml:"server" json:"server"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	LogPath string `yaml:"log_path,omitempty" json:"log_path,omitempty"`
}

// ParamsConfig holds the teleop parameters read once at startup.
type ParamsConfig struct {
	Speed float64 `yaml:"speed" json:"speed"`
	Turn  float64 `yaml:"turn" json:"turn"`
	// ForceStopKey binds s to the zero direction. Off by default so s stays
	// a no-op key.
	ForceStopKey bool `yaml:"force_stop_key" json:"force_stop_key"`
}

// ZeroMQConfig holds the cmd_vel publisher settings
type ZeroMQConfig struct {
	PublishBindAddress string `yaml:"publish_bind_address" json:"publish_bind_address"`
	Topic              string `yaml:"topic" json:"topic"`
	SendHWM            int    `yaml:"send_hwm" json:"send_hwm"`
	LingerMs           int    `yaml:"linger_ms" json:"linger_ms"`
}

// ServerConfig holds the monitor HTTP server settings
type ServerConfig struct {
	Enabled  bool `yaml:"enabled" json:"enabled"`
	HTTPPort int  `yaml:"http_port" json:"http_port"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Params:  ParamsConfig{Speed: 0.5, Turn: 1.0},
		ZeroMQ: ZeroMQConfig{
			PublishBindAddress: "tcp://*:5556",
			Topic:              "cmd_vel",
			SendHWM:            1,
			LingerMs:           500,
		},
		Server: ServerConfig{Enabled: true, HTTPPort: 8081},
	}
}

// Validate checks the fields the teleop loop depends on.
func (c *Config) Validate() error {
	if !positive(c.Params.Speed) {
		return fmt.Errorf("invalid params.speed %v: must be a positive number", c.Params.Speed)
	}
	if !positive(c.Params.Turn) {
		return fmt.Errorf("invalid params.turn %v: must be a positive number", c.Params.Turn)
	}
	if c.ZeroMQ.PublishBindAddress == "" {
		return fmt.Errorf("missing required field in config: zeromq.publish_bind_address")
	}
	if c.ZeroMQ.Topic == "" {
		return fmt.Errorf("missing required field in config: zeromq.topic")
	}
	if c.ZeroMQ.SendHWM < 0 {
		return fmt.Errorf("invalid zeromq.send_hwm %d: must not be negative", c.ZeroMQ.SendHWM)
	}
	if c.ZeroMQ.LingerMs < 0 {
		return fmt.Errorf("invalid zeromq.linger_ms %d: must not be negative", c.ZeroMQ.LingerMs)
	}
	if c.Server.Enabled && (c.Server.HTTPPort < 1 || c.Server.HTTPPort > 65535) {
		return fmt.Errorf("invalid server.http_port %d", c.Server.HTTPPort)
	}
	return nil
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}
