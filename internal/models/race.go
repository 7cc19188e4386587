// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package models

import "time"

// ============================================================================
// Race Models
// ============================================================================
// These structures mirror the race data endpoint ({race_url}/data) and the
// race object carried by race.data room frames.

// RaceStatus is the machine-readable race state.
type RaceStatus string

// Race states reported by the server.
const (
	RaceOpen         RaceStatus = "open"
	RaceInvitational RaceStatus = "invitational"
	RacePending      RaceStatus = "pending"
	RaceInProgress   RaceStatus = "in_progress"
	RaceFinished     RaceStatus = "finished"
	RaceCancelled    RaceStatus = "cancelled"
)

// Status is a server status triple.
type Status struct {
	Value        string `json:"value"`         // "open", "in_progress", "cancelled", ...
	VerboseValue string `json:"verbose_value"` // "Open", "In progress", ...
	HelpText     string `json:"help_text"`
}

// User is a racetime user as embedded in races, entrants and chat messages.
type User struct {
	ID                string `json:"id"`
	FullName          string `json:"full_name"`
	Name              string `json:"name"`
	Discriminator     string `json:"discriminator,omitempty"`
	URL               string `json:"url"`
	Avatar            string `json:"avatar,omitempty"`
	Pronouns          string `json:"pronouns,omitempty"`
	Flair             string `json:"flair,omitempty"`
	TwitchName        string `json:"twitch_name,omitempty"`
	TwitchDisplayName string `json:"twitch_display_name,omitempty"`
	TwitchChannel     string `json:"twitch_channel,omitempty"`
	CanModerate       bool   `json:"can_moderate"`
}

// Team is an entrant's team in a team race.
type Team struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Entrant is one participant of a race.
type Entrant struct {
	User           User       `json:"user"`
	Team           *Team      `json:"team,omitempty"`
	Status         Status     `json:"status"`                // requested, invited, declined, ready, not_ready, in_progress, done, dnf, dq
	FinishTime     string     `json:"finish_time,omitempty"` // ISO 8601 duration
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	Place          int        `json:"place,omitempty"`
	PlaceOrdinal   string     `json:"place_ordinal,omitempty"`
	Score          int        `json:"score,omitempty"`
	ScoreChange    int        `json:"score_change,omitempty"`
	Comment        string     `json:"comment,omitempty"`
	HasComment     bool       `json:"has_comment"`
	StreamLive     bool       `json:"stream_live"`
	StreamOverride bool       `json:"stream_override"`
	Actions        []string   `json:"actions,omitempty"`
}

// Goal is a race goal, either one of the category's goals or custom text.
type Goal struct {
	Name   string `json:"name"`
	Custom bool   `json:"custom"`
}

// CategoryRef is the short category reference embedded in a race.
type CategoryRef struct {
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Slug      string `json:"slug"`
	URL       string `json:"url"`
	DataURL   string `json:"data_url"`
	Image     string `json:"image,omitempty"`
}

// RaceDetails is a point-in-time snapshot of a race's full state.
//
// LastUpdated is never sent by the server; the snapshot cache stamps it when
// the snapshot is stored.
type RaceDetails struct {
	Version               int         `json:"version"`
	Name                  string      `json:"name"` // "{category}/{slug}"
	Slug                  string      `json:"slug"`
	Status                Status      `json:"status"`
	URL                   string      `json:"url"`
	DataURL               string      `json:"data_url"`
	WebsocketURL          string      `json:"websocket_url"`
	WebsocketBotURL       string      `json:"websocket_bot_url"`
	WebsocketOAuthURL     string      `json:"websocket_oauth_url"`
	Category              CategoryRef `json:"category"`
	Goal                  Goal        `json:"goal"`
	Info                  string      `json:"info"`
	InfoBot               string      `json:"info_bot,omitempty"`
	InfoUser              string      `json:"info_user,omitempty"`
	TeamRace              bool        `json:"team_race"`
	EntrantsCount         int         `json:"entrants_count"`
	EntrantsFinished      int         `json:"entrants_count_finished"`
	EntrantsInactive      int         `json:"entrants_count_inactive"`
	Entrants              []Entrant   `json:"entrants"`
	OpenedAt              *time.Time  `json:"opened_at,omitempty"`
	StartDelay            string      `json:"start_delay,omitempty"` // ISO 8601 duration
	StartedAt             *time.Time  `json:"started_at,omitempty"`
	EndedAt               *time.Time  `json:"ended_at,omitempty"`
	CancelledAt           *time.Time  `json:"cancelled_at,omitempty"`
	Unlisted              bool        `json:"unlisted"`
	TimeLimit             string      `json:"time_limit,omitempty"` // ISO 8601 duration
	TimeLimitAutoComplete bool        `json:"time_limit_auto_complete"`
	RequireEvenTeams      bool        `json:"require_even_teams"`
	StreamingRequired     bool        `json:"streaming_required"`
	AutoStart             bool        `json:"auto_start"`
	OpenedBy              *User       `json:"opened_by,omitempty"`
	Monitors              []User      `json:"monitors,omitempty"`
	Recordable            bool        `json:"recordable"`
	Recorded              bool        `json:"recorded"`
	AllowComments         bool        `json:"allow_comments"`
	HideComments          bool        `json:"hide_comments"`
	AllowPreraceChat      bool        `json:"allow_prerace_chat"`
	AllowMidraceChat      bool        `json:"allow_midrace_chat"`
	AllowNonEntrantChat   bool        `json:"allow_non_entrant_chat"`
	ChatMessageDelay      string      `json:"chat_message_delay,omitempty"` // ISO 8601 duration

	LastUpdated time.Time `json:"-"`
}

// State returns the typed race status.
func (r *RaceDetails) State() RaceStatus {
	return RaceStatus(r.Status.Value)
}

// IsCancelled reports whether the race has been cancelled.
func (r *RaceDetails) IsCancelled() bool {
	return r.State() == RaceCancelled
}

// IsDone reports whether the race reached a terminal state.
func (r *RaceDetails) IsDone() bool {
	switch r.State() {
	case RaceFinished, RaceCancelled:
		return true
	default:
		return false
	}
}

// Entrant returns the entrant with the given user ID, or nil.
func (r *RaceDetails) Entrant(userID string) *Entrant {
	for i := range r.Entrants {
		if r.Entrants[i].User.ID == userID {
			return &r.Entrants[i]
		}
	}
	return nil
}

// RaceSummary is one entry of a category's current_races listing.
type RaceSummary struct {
	Name             string     `json:"name"`
	Status           Status     `json:"status"`
	URL              string     `json:"url"`
	DataURL          string     `json:"data_url"`
	Goal             Goal       `json:"goal"`
	Info             string     `json:"info"`
	EntrantsCount    int        `json:"entrants_count"`
	EntrantsFinished int        `json:"entrants_count_finished"`
	EntrantsInactive int        `json:"entrants_count_inactive"`
	OpenedAt         *time.Time `json:"opened_at,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	TimeLimit        string     `json:"time_limit,omitempty"`
}

// CategoryData is the body of the category data endpoint ({base}/{category}/data).
type CategoryData struct {
	Name         string        `json:"name"`
	ShortName    string        `json:"short_name"`
	Slug         string        `json:"slug"`
	URL          string        `json:"url"`
	DataURL      string        `json:"data_url"`
	Image        string        `json:"image,omitempty"`
	Info         string        `json:"info,omitempty"`
	StreamsLive  int           `json:"streams_live,omitempty"`
	Owners       []User        `json:"owners,omitempty"`
	Moderators   []User        `json:"moderators,omitempty"`
	Goals        []string      `json:"goals,omitempty"`
	CurrentRaces []RaceSummary `json:"current_races"`
}
