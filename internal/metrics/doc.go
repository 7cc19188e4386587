// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

/*
Package metrics provides Prometheus metrics for the race room client.

All collectors are registered with the default registry through promauto and
are exported by the ops server at /metrics:

	curl http://localhost:9464/metrics

# Available Metrics

Credentials:
  - racetime_token_exchanges_total{result}

Snapshots:
  - racetime_snapshot_cache_lookups_total{result}
  - racetime_snapshot_fetches_total{outcome}
  - racetime_rest_request_duration_seconds{operation,status_code}

Race rooms:
  - racetime_room_sessions_active
  - racetime_room_connects_total{result}
  - racetime_room_reconnects_total
  - racetime_room_closes_total{kind}
  - racetime_room_frames_received_total{type}
  - racetime_room_frame_errors_total{reason}
  - racetime_room_actions_sent_total{action}
  - racetime_room_actions_queued

Resilience and relay:
  - circuit_breaker_state{name}
  - circuit_breaker_requests_total{name,result}
  - circuit_breaker_state_transitions_total{name,from_state,to_state}
  - raceroom_relay_published_total{result}
*/
package metrics
