// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package models

import (
	"fmt"
	"net/url"

	"github.com/google/go-querystring/query"

	"github.com/tomtom215/raceroom/internal/validation"
)

// RaceParams are the form fields of the race creation endpoint
// ({base}/o/{category}/startrace).
//
// Either Goal (one of the category's goals) or CustomGoal must be set.
// Durations are whole units: StartDelay in seconds, TimeLimit in hours,
// ChatMessageDelay in seconds.
type RaceParams struct {
	Goal                  string `url:"goal,omitempty" json:"goal,omitempty" validate:"required_without=CustomGoal"`
	CustomGoal            string `url:"custom_goal,omitempty" json:"custom_goal,omitempty" validate:"omitempty,max=200"`
	TeamRace              bool   `url:"team_race,omitempty" json:"team_race"`
	Invitational          bool   `url:"invitational,omitempty" json:"invitational"`
	Unlisted              bool   `url:"unlisted,omitempty" json:"unlisted"`
	InfoUser              string `url:"info_user,omitempty" json:"info_user,omitempty" validate:"omitempty,max=1000"`
	InfoBot               string `url:"info_bot,omitempty" json:"info_bot,omitempty" validate:"omitempty,max=1000"`
	RequireEvenTeams      bool   `url:"require_even_teams,omitempty" json:"require_even_teams"`
	StartDelay            int    `url:"start_delay" json:"start_delay" validate:"min=10,max=60"`
	TimeLimit             int    `url:"time_limit" json:"time_limit" validate:"min=1,max=72"`
	TimeLimitAutoComplete bool   `url:"time_limit_auto_complete,omitempty" json:"time_limit_auto_complete"`
	StreamingRequired     bool   `url:"streaming_required,omitempty" json:"streaming_required"`
	AutoStart             bool   `url:"auto_start,omitempty" json:"auto_start"`
	AllowComments         bool   `url:"allow_comments,omitempty" json:"allow_comments"`
	HideComments          bool   `url:"hide_comments,omitempty" json:"hide_comments"`
	AllowPreraceChat      bool   `url:"allow_prerace_chat,omitempty" json:"allow_prerace_chat"`
	AllowMidraceChat      bool   `url:"allow_midrace_chat,omitempty" json:"allow_midrace_chat"`
	AllowNonEntrantChat   bool   `url:"allow_non_entrant_chat,omitempty" json:"allow_non_entrant_chat"`
	ChatMessageDelay      int    `url:"chat_message_delay" json:"chat_message_delay" validate:"min=0,max=90"`
}

// DefaultRaceParams returns the parameters the race creation form starts with.
func DefaultRaceParams() RaceParams {
	return RaceParams{
		StartDelay:          15,
		TimeLimit:           24,
		AutoStart:           true,
		AllowComments:       true,
		AllowPreraceChat:    true,
		AllowMidraceChat:    true,
		AllowNonEntrantChat: true,
	}
}

// Validate checks field ranges and the goal requirement.
func (p *RaceParams) Validate() error {
	return validation.ValidateStruct(p)
}

// Form validates p and encodes it as form values.
func (p *RaceParams) Form() (url.Values, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid race parameters: %w", err)
	}

	values, err := query.Values(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode race parameters: %w", err)
	}
	return values, nil
}
