// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package racetime

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by sessions and the client.
var (
	// ErrSessionClosed is returned when sending on, or joining through, a closed session.
	ErrSessionClosed = errors.New("race room session closed")

	// ErrQueueFull is returned when the outbound queue of a not-yet-ready session is at its limit.
	ErrQueueFull = errors.New("race room outbound queue full")

	// ErrJoinTimeout is returned when a room does not become ready within the join timeout.
	ErrJoinTimeout = errors.New("race room join timed out")

	// ErrNoSocketURL is returned when a race snapshot carries no bot socket URL.
	ErrNoSocketURL = errors.New("race has no bot websocket url")

	// ErrRaceNotFound is returned when a race snapshot is unavailable.
	ErrRaceNotFound = errors.New("race snapshot unavailable")

	// ErrCircuitOpen is returned when the REST circuit breaker rejects a request.
	ErrCircuitOpen = errors.New("race service circuit breaker open")
)

// AuthError reports a failed client-credentials token exchange.
type AuthError struct {
	StatusCode int    // 0 when the token endpoint was unreachable
	Body       string // response body, sanitized
	Err        error
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("token exchange failed with status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("token exchange failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransportError reports a race room socket failure.
type TransportError struct {
	Endpoint   string
	Op         string // "authorize", "dial", "write"
	StatusCode int    // handshake HTTP status, when the server answered
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("race room %s %s failed (status %d): %v", e.Endpoint, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("race room %s %s failed: %v", e.Endpoint, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is an error frame sent by the server. It is surfaced as a
// ServerErrorEvent and never terminates the session.
type ProtocolError struct {
	Endpoint string
	Errors   []string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("race room %s reported errors: %v", e.Endpoint, e.Errors)
}

// DecodeError reports a payload whose shape could not be decoded.
type DecodeError struct {
	Source string // race URL or room endpoint
	Kind   string // what was being decoded: "race", "category", frame type
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s from %s: %v", e.Kind, e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UnknownMessageKindError reports an inbound frame type this client does not
// understand. The session that received it is terminated.
type UnknownMessageKindError struct {
	Endpoint string
	Type     string
}

func (e *UnknownMessageKindError) Error() string {
	return fmt.Sprintf("race room %s sent unknown message type %q", e.Endpoint, e.Type)
}

// CreateError reports a rejected race creation request.
type CreateError struct {
	StatusCode int
	Body       string
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("race creation returned status %d: %s", e.StatusCode, e.Body)
}

// RequestError reports a REST call that returned an unexpected status.
type RequestError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Operation, e.StatusCode, e.Body)
}
