// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

// Package logging provides centralized zerolog-based structured logging for raceroom.
//
// The package keeps one global zerolog.Logger configured from the logging
// section of the application config. Room sessions, the credential manager
// and the REST client log through the package-level accessors so every
// component shares level and format settings.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("endpoint", endpoint).Msg("Race room connected")
//	logging.Error().Err(err).Str("race", raceURL).Msg("Snapshot fetch failed")
//
// # Context
//
// Client operations attach a short correlation ID to their context so the
// REST call, the room join and the outbound action of one SendMessage call
// can be tied together:
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Info().Msg("Sending chat message")
//
// # slog
//
// NewSlogLogger returns an *slog.Logger backed by zerolog for libraries that
// only accept slog (sutureslog, Watermill).
//
// # Best Practices
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
package logging
