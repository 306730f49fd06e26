// Package config loads settings from an optional YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string         `yaml:"env" env:"APP_ENV" env-default:"local"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	WS       WSConfig       `yaml:"websocket"`
}

// HTTPConfig covers the shared HTTP server. WriteTimeout defaults to 0
// because the push stream endpoint holds its response open indefinitely.
type HTTPConfig struct {
	Host         string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port         int           `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"0s"`
}

type DatabaseConfig struct {
	Path        string        `yaml:"path" env:"DATABASE_PATH" env-default:"./classhub.db"`
	BusyTimeout time.Duration `yaml:"busy_timeout" env:"DATABASE_BUSY_TIMEOUT" env-default:"5s"`
}

type WSConfig struct {
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"WS_READ_TIMEOUT" env-default:"60s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WS_WRITE_TIMEOUT" env-default:"10s"`
	PingInterval    time.Duration `yaml:"ping_interval" env:"WS_PING_INTERVAL" env-default:"30s"`
	SendBuffer      int           `yaml:"send_buffer" env:"WS_SEND_BUFFER" env-default:"100"`
	EventsPerMinute int           `yaml:"events_per_minute" env:"WS_EVENTS_PER_MINUTE" env-default:"600"`
}

// Load reads configuration from path (optional; environment only when
// empty) and validates it.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read config from env: %w", err)
		}
	} else {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http port must be 1-65535, got %d", c.HTTP.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.WS.ReadTimeout <= c.WS.PingInterval {
		return fmt.Errorf("websocket read timeout must exceed ping interval")
	}
	if c.WS.SendBuffer < 1 {
		return fmt.Errorf("websocket send buffer must be positive")
	}
	if c.WS.EventsPerMinute < 1 {
		return fmt.Errorf("websocket events per minute must be positive")
	}
	return nil
}
