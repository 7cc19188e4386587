// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package models

import "time"

// ============================================================================
// Race Room Chat Models
// ============================================================================
// Payloads nested inside chat.* frames of the race room socket.

// ChatMessage is one chat line in a race room.
//
// IsPinned is a pointer because pin and unpin notifications share a wire
// discriminator; a nil value means the server did not say which it was.
type ChatMessage struct {
	ID           string         `json:"id"`
	User         *User          `json:"user,omitempty"`
	Bot          string         `json:"bot,omitempty"`
	DirectTo     *User          `json:"direct_to,omitempty"`
	PostedAt     time.Time      `json:"posted_at"`
	Message      string         `json:"message"`
	MessagePlain string         `json:"message_plain"`
	Highlight    bool           `json:"highlight"`
	IsDM         bool           `json:"is_dm"`
	IsBot        bool           `json:"is_bot"`
	IsMonitor    bool           `json:"is_monitor"`
	IsSystem     bool           `json:"is_system"`
	IsPinned     *bool          `json:"is_pinned,omitempty"`
	Delay        string         `json:"delay,omitempty"` // ISO 8601 duration
	Actions      map[string]any `json:"actions,omitempty"`
}

// Author returns a display name for the message sender.
func (m *ChatMessage) Author() string {
	switch {
	case m.User != nil && m.User.Name != "":
		return m.User.Name
	case m.Bot != "":
		return m.Bot
	case m.IsSystem:
		return "system"
	default:
		return ""
	}
}

// ChatDelete is the payload of a chat.delete frame.
type ChatDelete struct {
	ID        string `json:"id"`
	User      *User  `json:"user,omitempty"`
	Bot       string `json:"bot,omitempty"`
	IsBot     bool   `json:"is_bot"`
	DeletedBy *User  `json:"deleted_by,omitempty"`
}

// ChatPurge is the payload of a chat.purge frame: every message of User was removed.
type ChatPurge struct {
	User     *User `json:"user,omitempty"`
	PurgedBy *User `json:"purged_by,omitempty"`
}
