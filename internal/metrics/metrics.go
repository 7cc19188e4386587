// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the race room client:
// - OAuth token exchanges
// - Race snapshot cache efficiency and fetches
// - REST request latency
// - Race room socket sessions, frames and actions
// - Circuit breaker state
// - Event relay publishing

var (
	// Credential Metrics
	TokenExchanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "racetime_token_exchanges_total",
			Help: "Total number of OAuth client-credentials exchanges",
		},
		[]string{"result"}, // "success", "failure"
	)

	// Snapshot Cache Metrics
	SnapshotCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "racetime_snapshot_cache_lookups_total",
			Help: "Total number of race snapshot cache lookups",
		},
		[]string{"result"}, // "hit", "miss"
	)

	SnapshotFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "racetime_snapshot_fetches_total",
			Help: "Total number of race snapshot fetches by outcome",
		},
		[]string{"outcome"}, // "ok", "absent", "decode_error", "error"
	)

	// REST Metrics
	RESTRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "racetime_rest_request_duration_seconds",
			Help:    "Duration of racetime REST requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status_code"},
	)

	// Room Session Metrics
	RoomSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "racetime_room_sessions_active",
			Help: "Current number of registered race room sessions",
		},
	)

	RoomConnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "racetime_room_connects_total",
			Help: "Total number of race room socket connection attempts",
		},
		[]string{"result"}, // "success", "failure"
	)

	RoomReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "racetime_room_reconnects_total",
			Help: "Total number of reconnections scheduled after abnormal closure",
		},
	)

	RoomCloses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "racetime_room_closes_total",
			Help: "Total number of race room socket closures",
		},
		[]string{"kind"}, // "normal", "abnormal", "fault"
	)

	RoomFramesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "racetime_room_frames_received_total",
			Help: "Total number of inbound race room frames by message type",
		},
		[]string{"type"},
	)

	RoomFrameErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "racetime_room_frame_errors_total",
			Help: "Total number of inbound frames that failed to decode",
		},
		[]string{"reason"}, // "malformed", "unknown_type"
	)

	RoomActionsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "racetime_room_actions_sent_total",
			Help: "Total number of outbound race room actions written to the socket",
		},
		[]string{"action"},
	)

	RoomActionsQueued = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "racetime_room_actions_queued",
			Help: "Current number of outbound actions waiting for a ready connection",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Relay Metrics
	RelayPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raceroom_relay_published_total",
			Help: "Total number of room events forwarded to the event relay",
		},
		[]string{"result"}, // "success", "failure"
	)
)

// RecordTokenExchange records the outcome of an OAuth token exchange.
func RecordTokenExchange(err error) {
	TokenExchanges.WithLabelValues(resultLabel(err)).Inc()
}

// RecordSnapshotLookup records a snapshot cache hit or miss.
func RecordSnapshotLookup(hit bool) {
	if hit {
		SnapshotCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	SnapshotCacheLookups.WithLabelValues("miss").Inc()
}

// RecordRESTRequest records the latency of a REST call.
// statusCode is 0 when the request failed before a response arrived.
func RecordRESTRequest(operation string, statusCode int, duration time.Duration) {
	RESTRequestDuration.WithLabelValues(operation, strconv.Itoa(statusCode)).Observe(duration.Seconds())
}

// RecordRoomConnect records a race room dial attempt.
func RecordRoomConnect(err error) {
	RoomConnects.WithLabelValues(resultLabel(err)).Inc()
}

// RecordRoomClose records a race room closure by kind.
func RecordRoomClose(kind string) {
	RoomCloses.WithLabelValues(kind).Inc()
}

// RecordRelayPublish records the outcome of an event relay publish.
func RecordRelayPublish(err error) {
	RelayPublished.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
