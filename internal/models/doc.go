// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

/*
Package models defines the passive records exchanged with the race service.

Model Categories:

1. Race Snapshots:
  - RaceDetails: full race state from {race_url}/data or a race.data frame
  - Entrant, User, Team, Goal, Status: embedded records
  - RaceSummary, CategoryData: the category listing ({category}/data)

2. Chat:
  - ChatMessage: one chat line; IsPinned is tri-state (nil = unknown)
  - ChatDelete, ChatPurge: moderation payloads

3. Requests:
  - RaceParams: race creation form, validated with go-playground/validator
    and encoded with go-querystring

JSON decoding uses github.com/goccy/go-json at the call sites; the struct
tags here are the wire names.
*/
package models
