// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package services

import (
	"context"

	"github.com/tomtom215/raceroom/internal/racetime"
)

// EventSource delivers client events to subscribers.
type EventSource interface {
	Subscribe(fn func(racetime.Event)) (unsubscribe func())
}

// RelayService subscribes handle to source for as long as it is served.
// The relay itself outlives restarts of this service and is closed by its
// owner.
type RelayService struct {
	source EventSource
	handle func(racetime.Event)
}

// NewRelayService creates the service. handle is usually (*relay.Relay).Handle.
func NewRelayService(source EventSource, handle func(racetime.Event)) *RelayService {
	return &RelayService{source: source, handle: handle}
}

// Serve implements suture.Service.
func (s *RelayService) Serve(ctx context.Context) error {
	unsubscribe := s.source.Subscribe(s.handle)
	defer unsubscribe()

	<-ctx.Done()
	return ctx.Err()
}

func (s *RelayService) String() string {
	return "event-relay"
}
