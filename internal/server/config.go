package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the server configuration, loaded from an HCL file.
type Config struct {
	Server Settings `hcl:"server,block"`
}

// Settings contains server-level configuration.
type Settings struct {
	Address            string `hcl:"address,optional"`
	Port               int    `hcl:"port,optional"`
	LogLevel           string `hcl:"log_level,optional"`
	LogFile            string `hcl:"log_file,optional"`
	DatabasePath       string `hcl:"database_path,optional"`
	Seed               int64  `hcl:"seed,optional"`
	SessionIdleMinutes int    `hcl:"session_idle_minutes,optional"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: Settings{
			Address:            "localhost",
			Port:               8765,
			LogLevel:           "info",
			DatabasePath:       "bluffpoker.db",
			SessionIdleMinutes: 120,
		},
	}
}

// LoadConfig reads configuration from an HCL file, falling back to defaults
// when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultConfig().Server
	if config.Server.Address == "" {
		config.Server.Address = defaults.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.LogLevel
	}
	if config.Server.DatabasePath == "" {
		config.Server.DatabasePath = defaults.DatabasePath
	}
	if config.Server.SessionIdleMinutes == 0 {
		config.Server.SessionIdleMinutes = defaults.SessionIdleMinutes
	}

	return &config, nil
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.SessionIdleMinutes < 0 {
		return fmt.Errorf("session idle minutes cannot be negative: %d", c.Server.SessionIdleMinutes)
	}
	return nil
}

// ListenAddress returns the host:port to bind.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// SessionIdleTimeout returns the idle expiry as a duration.
func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.Server.SessionIdleMinutes) * time.Minute
}
