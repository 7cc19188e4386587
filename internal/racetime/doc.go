// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

/*
Package racetime is a client for a racetime-style live race coordination
service: OAuth2 client-credentials authorization, REST calls to create,
inspect and cancel races, and one persistent websocket per race room.

# Components

  - CredentialManager: holds the bot token and refreshes it on the calling
    path when it has expired; concurrent callers share one exchange
  - SnapshotCache: read-through cache of race snapshots with a freshness
    window (30s by default), kept current by race.data room frames
  - Session: one room socket with a FIFO queue for actions sent before the
    room is ready
  - Registry: at most one Session per endpoint, reconnecting abnormal
    closures with exponential backoff
  - Client: the facade tying the above together

# Events

Every inbound room frame becomes exactly one typed Event (ReadyEvent,
ChatMessageEvent, RaceDataEvent, ...) delivered synchronously to the
handlers registered with Client.Subscribe:

	client.Subscribe(func(ev racetime.Event) {
	    if msg, ok := ev.(racetime.ChatMessageEvent); ok {
	        logging.Info().Str("author", msg.Message.Author()).Msg(msg.Message.MessagePlain)
	    }
	})

An inbound frame of an unknown type terminates its session with close code
1003 and is not reconnected.

# Usage

	client, err := racetime.NewClient(&cfg.Racetime)
	if err != nil {
	    return err
	}
	defer client.Close()

	race, err := client.CreateRace(ctx, params, true)
	if err != nil {
	    return err
	}
	err = client.SendMessage(ctx, race.URL, "Good luck, have fun!", false)

# Errors

REST failures surface as *AuthError, *CreateError or *RequestError, room
failures as *TransportError. A race the server does not report, or whose
snapshot cannot be decoded, is returned as (nil, nil). REST calls are never
retried.
*/
package racetime
