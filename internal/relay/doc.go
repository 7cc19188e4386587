// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

/*
Package relay forwards race room events to a Watermill publisher.

Every event received from a racetime.Client subscription is wrapped in an
Envelope, encoded as JSON and published to the topic "{prefix}.{kind}",
for example "raceroom.chat.message". Two drivers are available:

  - gochannel: an in-process Watermill GoChannel. Subscribers in the same
    process read from Relay.Subscribe.
  - nats: core NATS through watermill-nats. The message UUID is sent as the
    Nats-Msg-Id header.

Usage:

	r, err := relay.New(cfg.Relay, watermill.NewSlogLogger(logging.NewSlogLogger()))
	if err != nil {
	    return err
	}
	defer r.Close()
	unsubscribe := client.Subscribe(r.Handle)
	defer unsubscribe()

Publish failures are logged and counted in the raceroom_relay_published_total
metric. They never affect the room session that produced the event.
*/
package relay
