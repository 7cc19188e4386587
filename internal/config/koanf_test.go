// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setRequiredEnv sets the minimum environment for a valid configuration.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("RACETIME_CLIENT_ID", "bot-client")
	t.Setenv("RACETIME_CLIENT_SECRET", "bot-secret")
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Racetime.BaseURL != "https://racetime.gg" {
		t.Errorf("Racetime.BaseURL = %q, want https://racetime.gg", cfg.Racetime.BaseURL)
	}
	if cfg.Racetime.WebsocketURL != "wss://racetime.gg" {
		t.Errorf("Racetime.WebsocketURL = %q, want wss://racetime.gg", cfg.Racetime.WebsocketURL)
	}
	if cfg.Racetime.SnapshotTTL != 30*time.Second {
		t.Errorf("Racetime.SnapshotTTL = %v, want 30s", cfg.Racetime.SnapshotTTL)
	}
	if cfg.Racetime.JoinTimeout != 30*time.Second {
		t.Errorf("Racetime.JoinTimeout = %v, want 30s", cfg.Racetime.JoinTimeout)
	}
	if cfg.Racetime.ReconnectDelay != time.Second || cfg.Racetime.ReconnectMaxDelay != 32*time.Second {
		t.Errorf("reconnect backoff = %v..%v, want 1s..32s", cfg.Racetime.ReconnectDelay, cfg.Racetime.ReconnectMaxDelay)
	}
	if cfg.Racetime.OutboundQueueLimit != 0 {
		t.Errorf("Racetime.OutboundQueueLimit = %d, want 0 (unbounded)", cfg.Racetime.OutboundQueueLimit)
	}
	if cfg.Relay.Enabled {
		t.Error("Relay.Enabled should be false by default")
	}
	if cfg.Server.Port != 9464 {
		t.Errorf("Server.Port = %d, want 9464", cfg.Server.Port)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json", cfg.Logging)
	}
}

func TestLoadWithKoanf_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadWithKoanf("")
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Racetime.ClientID != "bot-client" {
		t.Errorf("Racetime.ClientID = %q, want bot-client", cfg.Racetime.ClientID)
	}
	if got := cfg.Racetime.Scopes(); len(got) != 3 || got[0] != "read" {
		t.Errorf("Scopes() = %v, want [read chat_message race_action]", got)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RACETIME_CATEGORY", "ootr")
	t.Setenv("RACETIME_SNAPSHOT_TTL", "45s")
	t.Setenv("RACETIME_OUTBOUND_QUEUE_LIMIT", "64")
	t.Setenv("RACETIME_CIRCUIT_BREAKER", "false")
	t.Setenv("WATCH_ROOMS", "/ootr/a-1, /ootr/b-2 ,")
	t.Setenv("SERVER_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadWithKoanf("")
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Racetime.Category != "ootr" {
		t.Errorf("Racetime.Category = %q, want ootr", cfg.Racetime.Category)
	}
	if cfg.Racetime.SnapshotTTL != 45*time.Second {
		t.Errorf("Racetime.SnapshotTTL = %v, want 45s", cfg.Racetime.SnapshotTTL)
	}
	if cfg.Racetime.OutboundQueueLimit != 64 {
		t.Errorf("Racetime.OutboundQueueLimit = %d, want 64", cfg.Racetime.OutboundQueueLimit)
	}
	if cfg.Racetime.CircuitBreaker {
		t.Error("Racetime.CircuitBreaker should be disabled by env")
	}
	if len(cfg.Watch.Rooms) != 2 || cfg.Watch.Rooms[1] != "/ootr/b-2" {
		t.Errorf("Watch.Rooms = %v, want [/ootr/a-1 /ootr/b-2]", cfg.Watch.Rooms)
	}
	if len(cfg.Server.CORSOrigins) != 2 {
		t.Errorf("Server.CORSOrigins = %v, want 2 entries", cfg.Server.CORSOrigins)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadWithKoanf_ConfigFile(t *testing.T) {
	setRequiredEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
racetime:
  category: smr
  join_timeout: 5s
watch:
  rooms:
    - /smr/first-race-0001
relay:
  enabled: true
  driver: nats
  nats_url: nats://nats.local:4222
server:
  enabled: true
  port: 8080
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	// Environment still wins over the file
	t.Setenv("SERVER_PORT", "8181")

	cfg, err := LoadWithKoanf(path)
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Racetime.Category != "smr" {
		t.Errorf("Racetime.Category = %q, want smr", cfg.Racetime.Category)
	}
	if cfg.Racetime.JoinTimeout != 5*time.Second {
		t.Errorf("Racetime.JoinTimeout = %v, want 5s", cfg.Racetime.JoinTimeout)
	}
	if len(cfg.Watch.Rooms) != 1 || cfg.Watch.Rooms[0] != "/smr/first-race-0001" {
		t.Errorf("Watch.Rooms = %v", cfg.Watch.Rooms)
	}
	if !cfg.Relay.Enabled || cfg.Relay.Driver != "nats" {
		t.Errorf("Relay = %+v, want enabled nats", cfg.Relay)
	}
	if cfg.Server.Port != 8181 {
		t.Errorf("Server.Port = %d, want 8181 from env", cfg.Server.Port)
	}
}

func TestLoadWithKoanf_ConfigPathEnv(t *testing.T) {
	setRequiredEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("racetime:\n  category: alttpr\n"), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf("")
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Racetime.Category != "alttpr" {
		t.Errorf("Racetime.Category = %q, want alttpr", cfg.Racetime.Category)
	}
}

func TestLoadWithKoanf_MissingFile(t *testing.T) {
	setRequiredEnv(t)

	_, err := LoadWithKoanf(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for explicitly named missing config file")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"RACETIME_CLIENT_ID", "racetime.client_id"},
		{"RACETIME_MAX_RECONNECT_ATTEMPTS", "racetime.max_reconnect_attempts"},
		{"NATS_URL", "relay.nats_url"},
		{"HTTP_PORT", "server.port"},
		{"LOG_FORMAT", "logging.format"},
		{"HOME", ""},
		{"PATH", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Racetime.ClientID = "id"
		cfg.Racetime.ClientSecret = "secret"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"missing client id", func(c *Config) { c.Racetime.ClientID = "" }, "RACETIME_CLIENT_ID"},
		{"missing client secret", func(c *Config) { c.Racetime.ClientSecret = "" }, "RACETIME_CLIENT_SECRET"},
		{"base url with path", func(c *Config) { c.Racetime.BaseURL = "https://racetime.gg/api" }, "RACETIME_BASE_URL"},
		{"websocket url scheme", func(c *Config) { c.Racetime.WebsocketURL = "https://racetime.gg" }, "RACETIME_WEBSOCKET_URL"},
		{"bad category", func(c *Config) { c.Racetime.Category = "Bad Slug" }, "RACETIME_CATEGORY"},
		{"zero snapshot ttl", func(c *Config) { c.Racetime.SnapshotTTL = 0 }, "RACETIME_SNAPSHOT_TTL"},
		{"max delay below delay", func(c *Config) { c.Racetime.ReconnectMaxDelay = 500 * time.Millisecond }, "RACETIME_RECONNECT_MAX_DELAY"},
		{"read timeout below ping", func(c *Config) { c.Racetime.ReadTimeout = 10 * time.Second }, "RACETIME_READ_TIMEOUT"},
		{"negative queue limit", func(c *Config) { c.Racetime.OutboundQueueLimit = -1 }, "RACETIME_OUTBOUND_QUEUE_LIMIT"},
		{"rate limit without burst", func(c *Config) { c.Racetime.RateLimit = 5; c.Racetime.RateBurst = 0 }, "RACETIME_RATE_BURST"},
		{"unknown relay driver", func(c *Config) { c.Relay.Enabled = true; c.Relay.Driver = "kafka" }, "RELAY_DRIVER"},
		{"bad nats url", func(c *Config) { c.Relay.Enabled = true; c.Relay.Driver = "nats"; c.Relay.NATSURL = "http://x" }, "RELAY_NATS_URL"},
		{"wildcard topic prefix", func(c *Config) { c.Relay.Enabled = true; c.Relay.TopicPrefix = "race.>" }, "RELAY_TOPIC_PREFIX"},
		{"disabled server ignores port", func(c *Config) { c.Server.Port = 0 }, ""},
		{"enabled server bad port", func(c *Config) { c.Server.Enabled = true; c.Server.Port = 70000 }, "SERVER_PORT"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfigString_MasksSecret(t *testing.T) {
	cfg := defaultConfig()
	cfg.Racetime.ClientSecret = "super-secret-value"

	s := cfg.String()
	if strings.Contains(s, "super-secret-value") {
		t.Errorf("String() leaked the client secret: %s", s)
	}
	if !strings.Contains(s, "client_secret=****") {
		t.Errorf("String() = %s, want masked secret", s)
	}
}

func TestServerConfigAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 9464}
	if got := s.Addr(); got != "127.0.0.1:9464" {
		t.Errorf("Addr() = %q, want 127.0.0.1:9464", got)
	}
}
