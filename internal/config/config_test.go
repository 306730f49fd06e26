package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsFromEnvOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "local", cfg.Env)
	require.Equal(t, 8080, cfg.HTTP.Port)
	require.Equal(t, time.Duration(0), cfg.HTTP.WriteTimeout)
	require.Equal(t, "./classhub.db", cfg.Database.Path)
	require.Equal(t, 60*time.Second, cfg.WS.ReadTimeout)
	require.Equal(t, 100, cfg.WS.SendBuffer)
	require.Equal(t, 600, cfg.WS.EventsPerMinute)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("WS_SEND_BUFFER", "25")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, 9000, cfg.HTTP.Port)
	require.Equal(t, 25, cfg.WS.SendBuffer)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `env: prod
http:
  host: 127.0.0.1
  port: 9090
database:
  path: /tmp/classhub.db
websocket:
  read_timeout: 90s
  ping_interval: 45s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "127.0.0.1", cfg.HTTP.Host)
	require.Equal(t, 9090, cfg.HTTP.Port)
	require.Equal(t, "/tmp/classhub.db", cfg.Database.Path)
	require.Equal(t, 90*time.Second, cfg.WS.ReadTimeout)
	require.Equal(t, 45*time.Second, cfg.WS.PingInterval)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTP:     HTTPConfig{Port: 8080},
			Database: DatabaseConfig{Path: "./test.db"},
			WS: WSConfig{
				ReadTimeout:     60 * time.Second,
				PingInterval:    30 * time.Second,
				SendBuffer:      100,
				EventsPerMinute: 600,
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"port zero", func(c *Config) { c.HTTP.Port = 0 }, false},
		{"port too large", func(c *Config) { c.HTTP.Port = 70000 }, false},
		{"empty database path", func(c *Config) { c.Database.Path = "" }, false},
		{"read timeout below ping", func(c *Config) { c.WS.ReadTimeout = 10 * time.Second }, false},
		{"zero send buffer", func(c *Config) { c.WS.SendBuffer = 0 }, false},
		{"zero rate limit", func(c *Config) { c.WS.EventsPerMinute = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}
