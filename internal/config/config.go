// Package config loads the armgate service configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	RPC     RPCConfig     `yaml:"rpc"`
	Backend BackendConfig `yaml:"backend"`
	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// RPCConfig holds the control-server transport settings.
type RPCConfig struct {
	// Endpoint is the XML-RPC URL, e.g. "http://localhost:8081/RPC2".
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
	// Retries re-issues transport failures; domain rejections are final.
	Retries int `yaml:"retries"`
}

// BackendConfig selects the facade implementation once at startup.
type BackendConfig struct {
	Mock bool `yaml:"mock"`
}

// SessionConfig holds web-session settings.
type SessionConfig struct {
	// Secret signs session cookies. Falls back to ARMGATE_SESSION_SECRET.
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Host: "0.0.0.0", Port: 8080},
		RPC:     RPCConfig{Endpoint: "http://localhost:8081/RPC2", Timeout: 10 * time.Second},
		Session: SessionConfig{TTL: 12 * time.Hour},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML configuration file over the defaults and applies
// environment fallbacks.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if c.Session.Secret == "" {
		c.Session.Secret = os.Getenv("ARMGATE_SESSION_SECRET")
	}
	switch os.Getenv("ARMGATE_MOCK_BACKEND") {
	case "1", "true":
		c.Backend.Mock = true
	}
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if !c.Backend.Mock && c.RPC.Endpoint == "" {
		return fmt.Errorf("rpc.endpoint is required unless backend.mock is set")
	}
	if c.RPC.Timeout < 0 {
		return fmt.Errorf("rpc.timeout must not be negative")
	}
	if c.RPC.Retries < 0 {
		return fmt.Errorf("rpc.retries must not be negative")
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("session.secret is required (or set ARMGATE_SESSION_SECRET)")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}

// ListenAddr returns the HTTP bind address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
