// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.Racetime.Validate(); err != nil {
		return err
	}

	if err := c.validateRelay(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateLogging()
}

// categorySlug matches category slugs as they appear in race URLs.
var categorySlug = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Validate checks the race service settings. Credentials are required
// because every REST call and room dial is authorized with a bot token.
func (c *RacetimeConfig) Validate() error {
	if err := validateHTTPURL(c.BaseURL, "RACETIME_BASE_URL"); err != nil {
		return fmt.Errorf("RACETIME_BASE_URL is invalid: %w", err)
	}
	if err := validateWebsocketURL(c.WebsocketURL, "RACETIME_WEBSOCKET_URL"); err != nil {
		return fmt.Errorf("RACETIME_WEBSOCKET_URL is invalid: %w", err)
	}
	if c.ClientID == "" {
		return fmt.Errorf("RACETIME_CLIENT_ID is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("RACETIME_CLIENT_SECRET is required")
	}
	if c.Category != "" && !categorySlug.MatchString(c.Category) {
		return fmt.Errorf("RACETIME_CATEGORY must be a category slug (e.g. ootr), got: %q", c.Category)
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"RACETIME_REQUEST_TIMEOUT", c.RequestTimeout},
		{"RACETIME_SNAPSHOT_TTL", c.SnapshotTTL},
		{"RACETIME_JOIN_TIMEOUT", c.JoinTimeout},
		{"RACETIME_RECONNECT_DELAY", c.ReconnectDelay},
		{"RACETIME_RECONNECT_MAX_DELAY", c.ReconnectMaxDelay},
		{"RACETIME_PING_INTERVAL", c.PingInterval},
		{"RACETIME_READ_TIMEOUT", c.ReadTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got: %v", d.name, d.value)
		}
	}

	if c.ReconnectMaxDelay < c.ReconnectDelay {
		return fmt.Errorf("RACETIME_RECONNECT_MAX_DELAY (%v) must not be below RACETIME_RECONNECT_DELAY (%v)", c.ReconnectMaxDelay, c.ReconnectDelay)
	}
	if c.ReadTimeout <= c.PingInterval {
		return fmt.Errorf("RACETIME_READ_TIMEOUT (%v) must exceed RACETIME_PING_INTERVAL (%v)", c.ReadTimeout, c.PingInterval)
	}
	if c.MaxReconnectAttempts < 0 {
		return fmt.Errorf("RACETIME_MAX_RECONNECT_ATTEMPTS must be 0 (unlimited) or positive")
	}
	if c.OutboundQueueLimit < 0 {
		return fmt.Errorf("RACETIME_OUTBOUND_QUEUE_LIMIT must be 0 (unbounded) or positive")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("RACETIME_RATE_LIMIT must be 0 (unlimited) or positive")
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("RACETIME_RATE_BURST must be at least 1 when RACETIME_RATE_LIMIT is set")
	}
	return nil
}

// validateRelay validates relay configuration (only if enabled)
func (c *Config) validateRelay() error {
	if !c.Relay.Enabled {
		return nil
	}

	switch c.Relay.Driver {
	case "gochannel":
	case "nats":
		if err := validateNATSURL(c.Relay.NATSURL); err != nil {
			return fmt.Errorf("RELAY_NATS_URL is invalid: %w", err)
		}
	default:
		return fmt.Errorf("RELAY_DRIVER must be 'gochannel' or 'nats', got: %s", c.Relay.Driver)
	}

	if c.Relay.TopicPrefix == "" || strings.ContainsAny(c.Relay.TopicPrefix, " *>") {
		return fmt.Errorf("RELAY_TOPIC_PREFIX must be non-empty and contain no spaces or wildcards, got: %q", c.Relay.TopicPrefix)
	}
	return nil
}

// validateServer validates the ops server configuration (only if enabled)
func (c *Config) validateServer() error {
	if !c.Server.Enabled {
		return nil
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got: %d", c.Server.Port)
	}
	if c.Server.RateLimitReqs < 0 {
		return fmt.Errorf("SERVER_RATE_LIMIT_REQS must be 0 (disabled) or positive")
	}
	if c.Server.RateLimitReqs > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("SERVER_RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if err := c.validateLogLevel(); err != nil {
		return err
	}
	return c.validateLogFormat()
}

func (c *Config) validateLogLevel() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got: %s", c.Logging.Level)
	}
}

func (c *Config) validateLogFormat() error {
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be 'json' or 'console', got: %s", c.Logging.Format)
	}
}
