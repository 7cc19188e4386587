// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

/*
Package config provides layered configuration for raceroom.

Configuration is assembled with Koanf v2 from three layers, later layers
overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: the path passed to LoadWithKoanf, else
    $CONFIG_PATH, else the first of DefaultConfigPaths that exists
 3. Environment variables (see envMappings)

# Environment Variables

Race service (RacetimeConfig):
  - RACETIME_BASE_URL: REST and OAuth base URL (default: https://racetime.gg)
  - RACETIME_WEBSOCKET_URL: room socket base URL (default: wss://racetime.gg)
  - RACETIME_CATEGORY: category slug for race creation and listing
  - RACETIME_CLIENT_ID, RACETIME_CLIENT_SECRET: bot credentials (required)
  - RACETIME_SCOPE: OAuth2 scopes (default: "read chat_message race_action")
  - RACETIME_SNAPSHOT_TTL: race snapshot freshness window (default: 30s)
  - RACETIME_JOIN_TIMEOUT: room join bound (default: 30s)
  - RACETIME_RECONNECT_DELAY, RACETIME_RECONNECT_MAX_DELAY: backoff (1s, 32s)
  - RACETIME_MAX_RECONNECT_ATTEMPTS: 0 = unlimited
  - RACETIME_OUTBOUND_QUEUE_LIMIT: 0 = unbounded
  - RACETIME_RATE_LIMIT, RACETIME_RATE_BURST: REST rate limit (0 = off)
  - RACETIME_CIRCUIT_BREAKER: wrap REST calls in a circuit breaker (default: true)

Watch daemon:
  - WATCH_ROOMS: comma-separated race URLs or room socket paths

Relay (RelayConfig):
  - RELAY_ENABLED, RELAY_DRIVER (gochannel|nats), RELAY_NATS_URL, RELAY_TOPIC_PREFIX

Ops server (ServerConfig):
  - SERVER_ENABLED, SERVER_HOST, SERVER_PORT (default: 9464), SERVER_CORS_ORIGINS
  - SERVER_RATE_LIMIT_REQS, SERVER_RATE_LIMIT_WINDOW, SERVER_SHUTDOWN_TIMEOUT

Logging (LoggingConfig):
  - LOG_LEVEL, LOG_FORMAT (json|console), LOG_CALLER

# Example YAML

	racetime:
	  category: ootr
	  client_id: my-bot
	  client_secret: s3cret
	watch:
	  rooms:
	    - /ootr/lucky-link-1234
	server:
	  enabled: true
*/
package config
