// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for every setting
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Race service:
//     - Racetime: REST/OAuth endpoints, bot credentials, room socket tuning
//
//  2. Daemon:
//     - Watch: rooms joined by `raceroom watch`
//     - Relay: event forwarding to an in-memory or NATS publisher
//     - Server: ops HTTP server (health, metrics, sessions)
//
//  3. Observability:
//     - Logging: Log levels and output formats
//
// Example:
//
//	cfg, err := config.LoadWithKoanf("")
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load config")
//	}
//	client, err := racetime.NewClient(&cfg.Racetime)
//
// Config is immutable after loading and safe for concurrent reads.
type Config struct {
	Racetime RacetimeConfig `koanf:"racetime"`
	Watch    WatchConfig    `koanf:"watch"`
	Relay    RelayConfig    `koanf:"relay"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// RacetimeConfig holds the race service connection settings.
//
// Environment Variables:
//   - RACETIME_BASE_URL: REST/OAuth base URL (default: https://racetime.gg)
//   - RACETIME_WEBSOCKET_URL: room socket base URL (default: wss://racetime.gg)
//   - RACETIME_CATEGORY: category slug used for race creation and listing
//   - RACETIME_CLIENT_ID / RACETIME_CLIENT_SECRET: bot OAuth2 credentials
//   - RACETIME_SCOPE: space-separated OAuth2 scopes
//
// Example:
//
//	cfg := RacetimeConfig{
//	    BaseURL:      "https://racetime.gg",
//	    WebsocketURL: "wss://racetime.gg",
//	    Category:     "ootr",
//	    ClientID:     "bot-client-id",
//	    ClientSecret: "bot-client-secret",
//	}
type RacetimeConfig struct {
	BaseURL      string `koanf:"base_url"`
	WebsocketURL string `koanf:"websocket_url"`
	Category     string `koanf:"category"`
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	Scope        string `koanf:"scope"`

	RequestTimeout time.Duration `koanf:"request_timeout"` // HTTP client timeout for REST and token calls
	SnapshotTTL    time.Duration `koanf:"snapshot_ttl"`    // Freshness window of cached race snapshots
	JoinTimeout    time.Duration `koanf:"join_timeout"`    // Upper bound for a room join or reconnect dial

	ReconnectDelay       time.Duration `koanf:"reconnect_delay"`        // First reconnect backoff
	ReconnectMaxDelay    time.Duration `koanf:"reconnect_max_delay"`    // Backoff ceiling
	MaxReconnectAttempts int           `koanf:"max_reconnect_attempts"` // Consecutive failed attempts before giving up (0 = unlimited)
	OutboundQueueLimit   int           `koanf:"outbound_queue_limit"`   // Actions queued while not ready (0 = unbounded)
	PingInterval         time.Duration `koanf:"ping_interval"`
	ReadTimeout          time.Duration `koanf:"read_timeout"`

	RateLimit      float64 `koanf:"rate_limit"` // REST requests per second (0 = unlimited)
	RateBurst      int     `koanf:"rate_burst"`
	CircuitBreaker bool    `koanf:"circuit_breaker"`
}

// Scopes splits Scope into individual OAuth2 scopes.
func (c *RacetimeConfig) Scopes() []string {
	return strings.Fields(c.Scope)
}

// WatchConfig lists the rooms the watch daemon joins at startup.
//
// Rooms are race URLs ("/ootr/lucky-link-1234") or room socket paths
// ("/ws/o/bot/lucky-link-1234").
type WatchConfig struct {
	Rooms []string `koanf:"rooms"`
}

// RelayConfig controls forwarding of room events to a message broker.
//
// Driver "gochannel" keeps events in-process (useful for tests and local
// subscribers); "nats" publishes to a NATS server at NATSURL. Topics are
// "{TopicPrefix}.{event kind}".
type RelayConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Driver      string `koanf:"driver"`
	NATSURL     string `koanf:"nats_url"`
	TopicPrefix string `koanf:"topic_prefix"`
}

// ServerConfig holds the ops HTTP server settings.
type ServerConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"` // Requests per window per client IP (0 = disabled)
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// String renders the configuration with secrets masked.
func (c *Config) String() string {
	secret := ""
	if c.Racetime.ClientSecret != "" {
		secret = "****"
	}
	return fmt.Sprintf("racetime{base=%s ws=%s category=%s client_id=%s client_secret=%s} relay{enabled=%t driver=%s} server{enabled=%t addr=%s} watch=%v",
		c.Racetime.BaseURL, c.Racetime.WebsocketURL, c.Racetime.Category, c.Racetime.ClientID, secret,
		c.Relay.Enabled, c.Relay.Driver, c.Server.Enabled, c.Server.Addr(), c.Watch.Rooms)
}
