// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package racetime

import (
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/raceroom/internal/models"
)

// EventKind identifies an application event.
type EventKind string

// Event kinds. Room message kinds reuse the wire type names.
const (
	KindReady       EventKind = "ready"
	KindClose       EventKind = "close"
	KindSocketError EventKind = "socket_error"
	KindAuthError   EventKind = "auth_error"
	KindServerError EventKind = "server_error"
	KindChatHistory EventKind = "chat.history"
	KindChatMessage EventKind = "chat.message"
	KindChatPin     EventKind = "chat.pin"
	KindChatUnpin   EventKind = "chat.unpin"
	KindChatDelete  EventKind = "chat.delete"
	KindChatPurge   EventKind = "chat.purge"
	KindRaceData    EventKind = "race.data"
)

// Event is a typed notification delivered to subscribers.
type Event interface {
	Kind() EventKind
	Metadata() Meta
}

// Meta is carried by every event. Endpoint is empty for events that do not
// belong to a room (authorization failures).
type Meta struct {
	Endpoint string    `json:"endpoint,omitempty"`
	At       time.Time `json:"at"`
}

// Metadata returns m.
func (m Meta) Metadata() Meta { return m }

// ReadyEvent is emitted when a room socket opens and its queue is flushed.
type ReadyEvent struct {
	Meta
}

// CloseEvent is emitted when a room socket terminates. Reconnect reports
// whether a reconnect will be attempted.
type CloseEvent struct {
	Meta
	Code      int    `json:"code"`
	Reason    string `json:"reason,omitempty"`
	Reconnect bool   `json:"reconnect"`
}

// SocketErrorEvent is emitted when a room dial or transport fails, and when
// an inbound frame cannot be decoded (Err is then a *DecodeError and the
// session stays open).
type SocketErrorEvent struct {
	Meta
	Err     error  `json:"-"`
	Message string `json:"error"`
}

// AuthErrorEvent is emitted when a token exchange fails.
type AuthErrorEvent struct {
	Meta
	Err     error  `json:"-"`
	Message string `json:"error"`
}

// ServerErrorEvent carries the errors of a server error frame.
type ServerErrorEvent struct {
	Meta
	Errors []string `json:"errors"`
}

// ChatHistoryEvent carries the backlog sent in reply to gethistory.
type ChatHistoryEvent struct {
	Meta
	Messages []models.ChatMessage `json:"messages"`
}

// ChatMessageEvent carries one new chat message.
type ChatMessageEvent struct {
	Meta
	Message models.ChatMessage `json:"message"`
}

// ChatPinEvent reports a pinned message. Ambiguous is set when the frame did
// not state the pin state of the message.
type ChatPinEvent struct {
	Meta
	Message   models.ChatMessage `json:"message"`
	Ambiguous bool               `json:"ambiguous,omitempty"`
}

// ChatUnpinEvent reports an unpinned message.
type ChatUnpinEvent struct {
	Meta
	Message models.ChatMessage `json:"message"`
}

// ChatDeleteEvent reports a deleted message.
type ChatDeleteEvent struct {
	Meta
	Delete models.ChatDelete `json:"delete"`
}

// ChatPurgeEvent reports that all messages of a user were removed.
type ChatPurgeEvent struct {
	Meta
	Purge models.ChatPurge `json:"purge"`
}

// RaceDataEvent carries a full race snapshot pushed by the room.
type RaceDataEvent struct {
	Meta
	Race models.RaceDetails `json:"race"`
}

func (ReadyEvent) Kind() EventKind       { return KindReady }
func (CloseEvent) Kind() EventKind       { return KindClose }
func (SocketErrorEvent) Kind() EventKind { return KindSocketError }
func (AuthErrorEvent) Kind() EventKind   { return KindAuthError }
func (ServerErrorEvent) Kind() EventKind { return KindServerError }
func (ChatHistoryEvent) Kind() EventKind { return KindChatHistory }
func (ChatMessageEvent) Kind() EventKind { return KindChatMessage }
func (ChatPinEvent) Kind() EventKind     { return KindChatPin }
func (ChatUnpinEvent) Kind() EventKind   { return KindChatUnpin }
func (ChatDeleteEvent) Kind() EventKind  { return KindChatDelete }
func (ChatPurgeEvent) Kind() EventKind   { return KindChatPurge }
func (RaceDataEvent) Kind() EventKind    { return KindRaceData }

// Emitter fans events out to subscribers synchronously, in subscription order.
// Handlers run on the emitting goroutine (a room's read loop) and must not block.
type Emitter struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]func(Event)
}

// NewEmitter creates an emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{subs: make(map[uint64]func(Event))}
}

// Subscribe registers fn and returns a function that removes it.
func (e *Emitter) Subscribe(fn func(Event)) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.subs[id] = fn
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subs, id)
			e.mu.Unlock()
		})
	}
}

// Emit delivers ev to every current subscriber.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	ids := make([]uint64, 0, len(e.subs))
	for id := range e.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]func(Event), len(ids))
	for i, id := range ids {
		handlers[i] = e.subs[id]
	}
	e.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}
