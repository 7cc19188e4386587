// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

package racetime

import "context"

// Room actions forwarded without client-side handling. Each joins the race
// room first and is queued while the room is not ready.

// GetRace asks the room to push a race.data frame.
func (c *Client) GetRace(ctx context.Context, raceURL string) error {
	return c.SendAction(ctx, raceURL, Action{Action: ActionGetRace})
}

// GetHistory asks the room to push the chat backlog.
func (c *Client) GetHistory(ctx context.Context, raceURL string) error {
	return c.SendAction(ctx, raceURL, Action{Action: ActionGetHistory})
}

// Ping sends an application level ping; the room answers with pong.
func (c *Client) Ping(ctx context.Context, raceURL string) error {
	return c.SendAction(ctx, raceURL, Action{Action: ActionPing})
}

func (c *Client) PinMessage(ctx context.Context, raceURL, messageID string) error {
	return c.SendAction(ctx, raceURL, messageAction(ActionPinMessage, messageID))
}

func (c *Client) UnpinMessage(ctx context.Context, raceURL, messageID string) error {
	return c.SendAction(ctx, raceURL, messageAction(ActionUnpinMessage, messageID))
}

// SetInfo updates the bot and user info lines. A nil value is left as is.
func (c *Client) SetInfo(ctx context.Context, raceURL string, infoBot, infoUser *string) error {
	return c.SendAction(ctx, raceURL, NewSetInfoAction(infoBot, infoUser))
}

func (c *Client) MakeOpen(ctx context.Context, raceURL string) error {
	return c.SendAction(ctx, raceURL, Action{Action: ActionMakeOpen})
}

func (c *Client) MakeInvitational(ctx context.Context, raceURL string) error {
	return c.SendAction(ctx, raceURL, Action{Action: ActionMakeInvitational})
}

// BeginRace starts the countdown of a race that is not auto-started.
func (c *Client) BeginRace(ctx context.Context, raceURL string) error {
	return c.SendAction(ctx, raceURL, Action{Action: ActionBegin})
}

func (c *Client) InviteUser(ctx context.Context, raceURL, userID string) error {
	return c.SendAction(ctx, raceURL, userAction(ActionInviteToRace, userID))
}

func (c *Client) AcceptRequest(ctx context.Context, raceURL, userID string) error {
	return c.SendAction(ctx, raceURL, userAction(ActionAcceptRequest, userID))
}

func (c *Client) ForceUnready(ctx context.Context, raceURL, userID string) error {
	return c.SendAction(ctx, raceURL, userAction(ActionForceUnready, userID))
}

func (c *Client) RemoveEntrant(ctx context.Context, raceURL, userID string) error {
	return c.SendAction(ctx, raceURL, userAction(ActionRemoveEntrant, userID))
}

func (c *Client) AddMonitor(ctx context.Context, raceURL, userID string) error {
	return c.SendAction(ctx, raceURL, userAction(ActionAddMonitor, userID))
}

func (c *Client) RemoveMonitor(ctx context.Context, raceURL, userID string) error {
	return c.SendAction(ctx, raceURL, userAction(ActionRemoveMonitor, userID))
}

// OverrideStream waives the streaming requirement for an entrant.
func (c *Client) OverrideStream(ctx context.Context, raceURL, userID string) error {
	return c.SendAction(ctx, raceURL, userAction(ActionOverrideStream, userID))
}
