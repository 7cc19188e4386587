// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package racetime

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newTestSession builds a session for the mock's bot room outside of any
// registry, recording its events.
func newTestSession(t *testing.T, m *mockService, queueLimit int) (*Session, *eventRecorder) {
	t.Helper()
	cfg := newTestConfig(m)
	cfg.OutboundQueueLimit = queueLimit
	client := newTestClient(t, m, cfg)

	rec := newEventRecorder()
	client.Subscribe(rec.record)

	s := newSession(client.sessionConfig(m.wsURL() + "/ws/o/bot/lucky-link-1234"))
	t.Cleanup(func() { _ = s.Close() })
	return s, rec
}

// joinTestRoom joins the bot room through a client and returns the server side.
func joinTestRoom(t *testing.T, m *mockService, client *Client) *serverConn {
	t.Helper()
	checkNoError(t, "JoinRoom", client.JoinRoom(context.Background(), "/ws/o/bot/lucky-link-1234"))
	return m.acceptConn(t)
}

// ============================================================================
// State and Queueing
// ============================================================================

func TestSessionState_String(t *testing.T) {
	checkStringEqual(t, "not ready", StateNotReady.String(), "not_ready")
	checkStringEqual(t, "ready", StateReady.String(), "ready")
	checkStringEqual(t, "closed", StateClosed.String(), "closed")
	checkStringEqual(t, "unknown", SessionState(42).String(), "unknown")
}

func TestSession_QueuedActionsFlushInOrder(t *testing.T) {
	m := newMockService(t)
	s, rec := newTestSession(t, m, 0)
	ctx := context.Background()

	checkNoError(t, "Send 1", s.Send(ctx, Action{Action: ActionGetRace}))
	checkNoError(t, "Send 2", s.Send(ctx, NewMessageAction("first", false)))
	checkNoError(t, "Send 3", s.Send(ctx, Action{Action: ActionGetHistory}))
	checkIntEqual(t, "queued before connect", s.Info().Queued, 3)
	checkStringEqual(t, "state before connect", s.State().String(), "not_ready")

	checkNoError(t, "connect", s.connect(ctx))
	conn := m.acceptConn(t)
	rec.waitFor(t, KindReady)

	checkNoError(t, "Send after ready", s.Send(ctx, Action{Action: ActionPing}))

	want := []string{ActionGetRace, ActionMessage, ActionGetHistory, ActionPing}
	for i, name := range want {
		got := readAction(t, conn)
		checkStringEqual(t, fmt.Sprintf("action %d", i), got.Action, name)
	}
	checkIntEqual(t, "queued after flush", s.Info().Queued, 0)
	checkStringEqual(t, "state after connect", s.State().String(), "ready")
}

func TestSession_QueueLimit(t *testing.T) {
	m := newMockService(t)
	s, _ := newTestSession(t, m, 2)
	ctx := context.Background()

	checkNoError(t, "Send 1", s.Send(ctx, Action{Action: ActionPing}))
	checkNoError(t, "Send 2", s.Send(ctx, Action{Action: ActionPing}))

	err := s.Send(ctx, Action{Action: ActionPing})
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	checkIntEqual(t, "queued", s.Info().Queued, 2)
}

func TestSession_SendAfterCloseFails(t *testing.T) {
	m := newMockService(t)
	s, rec := newTestSession(t, m, 0)

	checkNoError(t, "Send", s.Send(context.Background(), Action{Action: ActionPing}))
	checkNoError(t, "Close", s.Close())

	err := s.Send(context.Background(), Action{Action: ActionPing})
	if !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	checkIntEqual(t, "queue dropped", s.Info().Queued, 0)

	closeEv := rec.waitFor(t, KindClose).(CloseEvent)
	checkIntEqual(t, "close code", closeEv.Code, websocket.CloseNormalClosure)
	checkTrue(t, "no reconnect after Close", !closeEv.Reconnect)

	if err := s.connect(context.Background()); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("connect after Close: expected ErrSessionClosed, got %v", err)
	}
}

func TestSession_SendsBearerToken(t *testing.T) {
	m := newMockService(t)
	client := newTestClient(t, m, nil)
	joinTestRoom(t, m, client)

	m.mu.Lock()
	auth := m.socketAuth[0]
	m.mu.Unlock()
	checkStringEqual(t, "Authorization", auth, "Bearer token-1")
}

func TestSession_Info(t *testing.T) {
	m := newMockService(t)
	client := newTestClient(t, m, nil)
	joinTestRoom(t, m, client)

	infos := client.Sessions()
	if len(infos) != 1 {
		t.Fatalf("expected 1 session, got %d", len(infos))
	}
	checkStringEqual(t, "Endpoint", infos[0].Endpoint, m.wsURL()+"/ws/o/bot/lucky-link-1234")
	checkStringEqual(t, "State", infos[0].State, "ready")
	checkTrue(t, "ConnectedAt set", infos[0].ConnectedAt != nil)
}

// ============================================================================
// Inbound Frames
// ============================================================================

func TestSession_ChatMessageEmitsExactlyOneEvent(t *testing.T) {
	m := newMockService(t)
	client := newTestClient(t, m, nil)
	rec := newEventRecorder()
	client.Subscribe(rec.record)
	conn := joinTestRoom(t, m, client)

	sendFrame(t, conn, chatMessageFrame)
	sendFrame(t, conn, `{"type":"pong"}`)

	ev := rec.waitFor(t, KindChatMessage).(ChatMessageEvent)
	checkStringEqual(t, "Message.ID", ev.Message.ID, "Rb7qZxX3")
	checkStringEqual(t, "Message.MessagePlain", ev.Message.MessagePlain, "glhf")
	checkStringEqual(t, "Endpoint", ev.Endpoint, m.wsURL()+"/ws/o/bot/lucky-link-1234")

	// Give the pong time to be processed before counting.
	time.Sleep(50 * time.Millisecond)
	checkIntEqual(t, "chat message events", rec.count(KindChatMessage), 1)
}

func TestSession_HandleFrameUnknownKind(t *testing.T) {
	m := newMockService(t)
	s, rec := newTestSession(t, m, 0)

	err := s.HandleFrame([]byte(`{"type":"bogus.kind"}`))

	var unknown *UnknownMessageKindError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownMessageKindError, got %v", err)
	}
	checkIntEqual(t, "events", rec.total(), 0)
}

func TestSession_UnknownKindTerminatesWithoutReconnect(t *testing.T) {
	m := newMockService(t)
	client := newTestClient(t, m, nil)
	rec := newEventRecorder()
	client.Subscribe(rec.record)
	conn := joinTestRoom(t, m, client)

	sendFrame(t, conn, `{"type":"bogus.kind"}`)

	checkIntEqual(t, "close code sent by client", readCloseCode(t, conn), websocket.CloseUnsupportedData)

	closeEv := rec.waitFor(t, KindClose).(CloseEvent)
	checkIntEqual(t, "CloseEvent.Code", closeEv.Code, websocket.CloseUnsupportedData)
	checkTrue(t, "no reconnect", !closeEv.Reconnect)

	m.expectNoConn(t, 150*time.Millisecond)
	checkIntEqual(t, "socket attempts", int(m.socketAttempts.Load()), 1)
	checkIntEqual(t, "registered sessions", len(client.Sessions()), 0)
}

func TestSession_HandleFrameMalformedEmitsSocketError(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{"truncated json", `{"type":"chat.message"`},
		{"missing message payload", `{"type":"chat.message"}`},
		{"race data without race", `{"type":"race.data"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockService(t)
			s, rec := newTestSession(t, m, 0)

			err := s.HandleFrame([]byte(tt.frame))

			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected *DecodeError, got %v", err)
			}
			checkIntEqual(t, "socket error events", rec.count(KindSocketError), 1)
			checkIntEqual(t, "events", rec.total(), 1)
		})
	}
}

func TestSession_MalformedFrameIsReportedAndSessionStaysOpen(t *testing.T) {
	m := newMockService(t)
	client := newTestClient(t, m, nil)
	rec := newEventRecorder()
	client.Subscribe(rec.record)
	conn := joinTestRoom(t, m, client)

	sendFrame(t, conn, `{"type":"chat.message"`)
	sendFrame(t, conn, chatMessageFrame)

	ev := rec.waitFor(t, KindSocketError).(SocketErrorEvent)
	var decodeErr *DecodeError
	if !errors.As(ev.Err, &decodeErr) {
		t.Fatalf("SocketErrorEvent.Err = %v, want *DecodeError", ev.Err)
	}
	rec.waitFor(t, KindChatMessage)
	checkStringEqual(t, "state", client.Sessions()[0].State, "ready")
	checkIntEqual(t, "socket attempts", int(m.socketAttempts.Load()), 1)
}

func TestSession_ServerErrorIsNonFatal(t *testing.T) {
	m := newMockService(t)
	client := newTestClient(t, m, nil)
	rec := newEventRecorder()
	client.Subscribe(rec.record)
	conn := joinTestRoom(t, m, client)

	sendFrame(t, conn, `{"type":"error","errors":["You cannot do that."]}`)

	ev := rec.waitFor(t, KindServerError).(ServerErrorEvent)
	if len(ev.Errors) != 1 || ev.Errors[0] != "You cannot do that." {
		t.Errorf("Errors = %v", ev.Errors)
	}
	checkStringEqual(t, "state", client.Sessions()[0].State, "ready")
}

func TestSession_RaceDataUpdatesSnapshotCache(t *testing.T) {
	m := newMockService(t)
	client := newTestClient(t, m, nil)
	rec := newEventRecorder()
	client.Subscribe(rec.record)
	conn := joinTestRoom(t, m, client)

	sendFrame(t, conn, `{"type":"race.data","race":{"name":"ootr/lucky-link-1234","status":{"value":"in_progress"},"url":"/ootr/lucky-link-1234"}}`)
	rec.waitFor(t, KindRaceData)

	race, err := client.FetchRaceDetails(context.Background(), testRace)
	checkNoError(t, "FetchRaceDetails", err)
	if race == nil {
		t.Fatal("expected the pushed snapshot")
	}
	checkStringEqual(t, "status", race.Status.Value, "in_progress")
	checkIntEqual(t, "REST fetches", m.fetchCount(testRace), 0)
}
