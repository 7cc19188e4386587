// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/raceroom/internal/logging"
	"github.com/tomtom215/raceroom/internal/models"
	"github.com/tomtom215/raceroom/internal/racetime"
)

// RoomClient is the part of *racetime.Client the room watcher uses.
type RoomClient interface {
	Subscribe(fn func(racetime.Event)) (unsubscribe func())
	FetchRaceDetails(ctx context.Context, raceURL string) (*models.RaceDetails, error)
	JoinRoom(ctx context.Context, endpoint string) error
	LeaveRoom(endpoint string) bool
}

// RoomWatcherService joins a fixed set of rooms and logs every event they
// produce. Rooms are race URLs or room socket paths.
//
// Serve fails, and is restarted by its supervisor, when no configured room
// could be joined. Rooms joined by the service are left when it stops.
type RoomWatcherService struct {
	client RoomClient
	rooms  []string
	logger zerolog.Logger

	mu     sync.Mutex
	joined []string
}

// NewRoomWatcherService creates a watcher for rooms.
func NewRoomWatcherService(client RoomClient, rooms []string) *RoomWatcherService {
	return &RoomWatcherService{
		client: client,
		rooms:  append([]string(nil), rooms...),
		logger: logging.WithComponent("room-watcher"),
	}
}

// Serve implements suture.Service.
func (s *RoomWatcherService) Serve(ctx context.Context) error {
	unsubscribe := s.client.Subscribe(s.logEvent)
	defer unsubscribe()
	defer s.leaveAll()

	var failures []error
	for _, room := range s.rooms {
		endpoint, err := s.join(ctx, room)
		if err != nil {
			s.logger.Warn().Err(err).Str("room", room).Msg("Failed to join race room")
			failures = append(failures, err)
			continue
		}
		s.mu.Lock()
		s.joined = append(s.joined, endpoint)
		s.mu.Unlock()
	}

	if len(s.rooms) > 0 && len(failures) == len(s.rooms) {
		return fmt.Errorf("no race room could be joined: %w", errors.Join(failures...))
	}

	s.logger.Info().Int("rooms", len(s.rooms)-len(failures)).Msg("Watching race rooms")
	<-ctx.Done()
	return ctx.Err()
}

// join resolves room to a socket endpoint and joins it.
func (s *RoomWatcherService) join(ctx context.Context, room string) (string, error) {
	endpoint := room
	if !isSocketEndpoint(room) {
		race, err := s.client.FetchRaceDetails(ctx, room)
		if err != nil {
			return "", err
		}
		if race == nil {
			return "", fmt.Errorf("%s: %w", room, racetime.ErrRaceNotFound)
		}
		if race.WebsocketBotURL == "" {
			return "", fmt.Errorf("%s: %w", room, racetime.ErrNoSocketURL)
		}
		endpoint = race.WebsocketBotURL
	}

	if err := s.client.JoinRoom(ctx, endpoint); err != nil {
		return "", err
	}
	return endpoint, nil
}

func (s *RoomWatcherService) leaveAll() {
	s.mu.Lock()
	joined := s.joined
	s.joined = nil
	s.mu.Unlock()

	for _, endpoint := range joined {
		s.client.LeaveRoom(endpoint)
	}
}

// Joined returns the endpoints joined by the current Serve call.
func (s *RoomWatcherService) Joined() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.joined...)
}

func isSocketEndpoint(room string) bool {
	return strings.HasPrefix(room, "ws://") ||
		strings.HasPrefix(room, "wss://") ||
		strings.HasPrefix(strings.TrimLeft(room, "/"), "ws/")
}

func (s *RoomWatcherService) logEvent(ev racetime.Event) {
	meta := ev.Metadata()
	log := s.logger.With().Str("kind", string(ev.Kind())).Str("endpoint", meta.Endpoint).Logger()

	switch e := ev.(type) {
	case racetime.ReadyEvent:
		log.Info().Msg("Room ready")
	case racetime.CloseEvent:
		log.Info().Int("code", e.Code).Str("reason", e.Reason).Bool("reconnect", e.Reconnect).Msg("Room closed")
	case racetime.SocketErrorEvent:
		log.Warn().Str("error", e.Message).Msg("Room socket error")
	case racetime.AuthErrorEvent:
		log.Error().Str("error", e.Message).Msg("Authorization failed")
	case racetime.ServerErrorEvent:
		log.Warn().Strs("errors", e.Errors).Msg("Room reported errors")
	case racetime.ChatHistoryEvent:
		log.Info().Int("messages", len(e.Messages)).Msg("Chat history")
	case racetime.ChatMessageEvent:
		log.Info().Str("author", e.Message.Author()).Str("message", e.Message.MessagePlain).Msg("Chat message")
	case racetime.ChatPinEvent:
		log.Info().Str("id", e.Message.ID).Bool("ambiguous", e.Ambiguous).Msg("Message pinned")
	case racetime.ChatUnpinEvent:
		log.Info().Str("id", e.Message.ID).Msg("Message unpinned")
	case racetime.ChatDeleteEvent:
		log.Info().Msg("Message deleted")
	case racetime.ChatPurgeEvent:
		log.Info().Msg("Messages purged")
	case racetime.RaceDataEvent:
		log.Info().Str("race", e.Race.Name).Str("status", e.Race.Status.Value).Int("entrants", len(e.Race.Entrants)).Msg("Race updated")
	default:
		log.Debug().Msg("Room event")
	}
}

func (s *RoomWatcherService) String() string {
	return "room-watcher"
}
