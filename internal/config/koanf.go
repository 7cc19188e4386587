// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/raceroom/config.yaml",
	"/etc/raceroom/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Racetime: RacetimeConfig{
			BaseURL:              "https://racetime.gg",
			WebsocketURL:         "wss://racetime.gg",
			Category:             "",
			ClientID:             "",
			ClientSecret:         "",
			Scope:                "read chat_message race_action",
			RequestTimeout:       30 * time.Second,
			SnapshotTTL:          30 * time.Second,
			JoinTimeout:          30 * time.Second,
			ReconnectDelay:       1 * time.Second,
			ReconnectMaxDelay:    32 * time.Second,
			MaxReconnectAttempts: 0, // Unlimited
			OutboundQueueLimit:   0, // Unbounded
			PingInterval:         30 * time.Second,
			ReadTimeout:          60 * time.Second,
			RateLimit:            0, // Unlimited
			RateBurst:            1,
			CircuitBreaker:       true,
		},
		Watch: WatchConfig{
			Rooms: []string{},
		},
		Relay: RelayConfig{
			Enabled:     false,
			Driver:      "gochannel",
			NATSURL:     "nats://127.0.0.1:4222",
			TopicPrefix: "raceroom",
		},
		Server: ServerConfig{
			Enabled:         false,
			Host:            "127.0.0.1",
			Port:            9464,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// DefaultRacetimeConfig returns the built-in racetime section. Category and
// client credentials are left empty.
func DefaultRacetimeConfig() RacetimeConfig {
	return defaultConfig().Racetime
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: path if non-empty, otherwise the first of CONFIG_PATH and DefaultConfigPaths that exists
//  3. Environment Variables: Override any setting
//
// The result is validated before it is returned.
func LoadWithKoanf(path string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional unless named explicitly)
	configPath := path
	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// RACETIME_CLIENT_ID -> racetime.client_id
	// SERVER_PORT -> server.port
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"watch.rooms",
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings, YAML lists are left untouched.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	"racetime_base_url":               "racetime.base_url",
	"racetime_websocket_url":          "racetime.websocket_url",
	"racetime_category":               "racetime.category",
	"racetime_client_id":              "racetime.client_id",
	"racetime_client_secret":          "racetime.client_secret",
	"racetime_scope":                  "racetime.scope",
	"racetime_request_timeout":        "racetime.request_timeout",
	"racetime_snapshot_ttl":           "racetime.snapshot_ttl",
	"racetime_join_timeout":           "racetime.join_timeout",
	"racetime_reconnect_delay":        "racetime.reconnect_delay",
	"racetime_reconnect_max_delay":    "racetime.reconnect_max_delay",
	"racetime_max_reconnect_attempts": "racetime.max_reconnect_attempts",
	"racetime_outbound_queue_limit":   "racetime.outbound_queue_limit",
	"racetime_ping_interval":          "racetime.ping_interval",
	"racetime_read_timeout":           "racetime.read_timeout",
	"racetime_rate_limit":             "racetime.rate_limit",
	"racetime_rate_burst":             "racetime.rate_burst",
	"racetime_circuit_breaker":        "racetime.circuit_breaker",

	"watch_rooms": "watch.rooms",

	"relay_enabled":      "relay.enabled",
	"relay_driver":       "relay.driver",
	"relay_nats_url":     "relay.nats_url",
	"nats_url":           "relay.nats_url",
	"relay_topic_prefix": "relay.topic_prefix",

	"server_enabled":           "server.enabled",
	"server_host":              "server.host",
	"server_port":              "server.port",
	"http_port":                "server.port",
	"server_cors_origins":      "server.cors_origins",
	"server_rate_limit_reqs":   "server.rate_limit_reqs",
	"server_rate_limit_window": "server.rate_limit_window",
	"server_shutdown_timeout":  "server.shutdown_timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - RACETIME_CLIENT_ID -> racetime.client_id
//   - WATCH_ROOMS -> watch.rooms
//   - HTTP_PORT -> server.port
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// Unmapped keys are skipped so unrelated environment variables never reach the config.
	return ""
}
