// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package models

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/raceroom/internal/validation"
)

const sampleRace = `{
	"version": 7,
	"name": "ootr/lucky-link-1234",
	"slug": "lucky-link-1234",
	"status": {"value": "in_progress", "verbose_value": "In progress", "help_text": "Race is in progress"},
	"url": "/ootr/lucky-link-1234",
	"data_url": "/ootr/lucky-link-1234/data",
	"websocket_url": "/ws/race/lucky-link-1234",
	"websocket_bot_url": "/ws/o/bot/lucky-link-1234",
	"category": {"name": "Ocarina of Time Randomizer", "short_name": "OoTR", "slug": "ootr"},
	"goal": {"name": "Beat the game", "custom": false},
	"entrants_count": 2,
	"entrants": [
		{"user": {"id": "u1", "name": "Alice"}, "status": {"value": "in_progress"}},
		{"user": {"id": "u2", "name": "Bob"}, "status": {"value": "done"}, "place": 1}
	],
	"started_at": "2026-03-01T18:00:00Z",
	"time_limit": "P1DT00H00M00S"
}`

func TestRaceDetails_Decode(t *testing.T) {
	var race RaceDetails
	if err := json.Unmarshal([]byte(sampleRace), &race); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if race.State() != RaceInProgress {
		t.Errorf("State() = %q, want %q", race.State(), RaceInProgress)
	}
	if race.WebsocketBotURL != "/ws/o/bot/lucky-link-1234" {
		t.Errorf("WebsocketBotURL = %q", race.WebsocketBotURL)
	}
	if race.Category.Slug != "ootr" {
		t.Errorf("Category.Slug = %q, want ootr", race.Category.Slug)
	}
	if race.StartedAt == nil || race.StartedAt.Hour() != 18 {
		t.Errorf("StartedAt = %v, want 18:00", race.StartedAt)
	}
	if !race.LastUpdated.IsZero() {
		t.Error("LastUpdated must not be decoded from the wire")
	}

	bob := race.Entrant("u2")
	if bob == nil || bob.Place != 1 {
		t.Errorf("Entrant(u2) = %+v, want place 1", bob)
	}
	if race.Entrant("missing") != nil {
		t.Error("Entrant(missing) should be nil")
	}
}

func TestRaceDetails_States(t *testing.T) {
	tests := []struct {
		status    RaceStatus
		cancelled bool
		done      bool
	}{
		{RaceOpen, false, false},
		{RaceInvitational, false, false},
		{RacePending, false, false},
		{RaceInProgress, false, false},
		{RaceFinished, false, true},
		{RaceCancelled, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			race := RaceDetails{Status: Status{Value: string(tt.status)}}
			if got := race.IsCancelled(); got != tt.cancelled {
				t.Errorf("IsCancelled() = %v, want %v", got, tt.cancelled)
			}
			if got := race.IsDone(); got != tt.done {
				t.Errorf("IsDone() = %v, want %v", got, tt.done)
			}
		})
	}
}

func TestChatMessage_PinState(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    *bool
	}{
		{"pinned", `{"id":"m1","message":"hi","is_pinned":true}`, boolPtr(true)},
		{"unpinned", `{"id":"m1","message":"hi","is_pinned":false}`, boolPtr(false)},
		{"absent", `{"id":"m1","message":"hi"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg ChatMessage
			if err := json.Unmarshal([]byte(tt.payload), &msg); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			switch {
			case tt.want == nil && msg.IsPinned != nil:
				t.Errorf("IsPinned = %v, want nil", *msg.IsPinned)
			case tt.want != nil && (msg.IsPinned == nil || *msg.IsPinned != *tt.want):
				t.Errorf("IsPinned = %v, want %v", msg.IsPinned, *tt.want)
			}
		})
	}
}

func TestChatMessage_Author(t *testing.T) {
	tests := []struct {
		name string
		msg  ChatMessage
		want string
	}{
		{"user", ChatMessage{User: &User{Name: "Alice"}}, "Alice"},
		{"bot", ChatMessage{Bot: "RaceBot"}, "RaceBot"},
		{"system", ChatMessage{IsSystem: true}, "system"},
		{"unknown", ChatMessage{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.Author(); got != tt.want {
				t.Errorf("Author() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRaceParams_Form(t *testing.T) {
	params := DefaultRaceParams()
	params.Goal = "Beat the game"
	params.InfoUser = "Weekly"

	values, err := params.Form()
	if err != nil {
		t.Fatalf("Form() error = %v", err)
	}

	expected := map[string]string{
		"goal":               "Beat the game",
		"info_user":          "Weekly",
		"start_delay":        "15",
		"time_limit":         "24",
		"chat_message_delay": "0",
		"auto_start":         "true",
	}
	for key, want := range expected {
		if got := values.Get(key); got != want {
			t.Errorf("values[%q] = %q, want %q", key, got, want)
		}
	}
	for _, key := range []string{"custom_goal", "team_race", "invitational", "info_bot"} {
		if values.Has(key) {
			t.Errorf("values should omit %q, got %q", key, values.Get(key))
		}
	}
}

func TestRaceParams_Validate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*RaceParams)
		field string
	}{
		{"goal missing", func(p *RaceParams) {}, "goal"},
		{"start delay too short", func(p *RaceParams) { p.Goal = "g"; p.StartDelay = 5 }, "start_delay"},
		{"time limit too long", func(p *RaceParams) { p.Goal = "g"; p.TimeLimit = 73 }, "time_limit"},
		{"chat delay too long", func(p *RaceParams) { p.Goal = "g"; p.ChatMessageDelay = 91 }, "chat_message_delay"},
		{"custom goal ok", func(p *RaceParams) { p.CustomGoal = "100%" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultRaceParams()
			tt.edit(&params)

			err := params.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			var verr *validation.Error
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want *validation.Error", err)
			}
			if !verr.Has(tt.field) {
				t.Errorf("expected %q to fail, got %v", tt.field, verr.Fields)
			}
			if _, ferr := params.Form(); ferr == nil {
				t.Error("Form() should reject invalid parameters")
			}
		})
	}
}

func boolPtr(b bool) *bool {
	return &b
}
