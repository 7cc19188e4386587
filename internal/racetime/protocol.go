// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

/*
protocol.go - Race Room Wire Protocol

Outbound frames are {"action": ..., "data": {...}} objects. Inbound frames are
discriminated by their "type" field:

	chat.history   {"messages": [...]}
	chat.message   {"message": {...}}
	chat.dm        direct message, decoded and dropped
	chat.pin       {"message": {...}}
	chat.unpin     {"message": {...}}
	chat.delete    {"delete": {...}}
	chat.purge     {"purge": {...}}
	error          {"errors": [...]}
	pong           reply to ping, dropped
	race.data      {"race": {...}}
	race.renders   render refresh hint, dropped

Any other type is rejected with *UnknownMessageKindError.
*/

//nolint:staticcheck // File documentation, not package doc
package racetime

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/raceroom/internal/models"
)

// Action is one outbound room command.
type Action struct {
	Action string `json:"action"`
	Data   any    `json:"data,omitempty"`
}

// Outbound action names.
const (
	ActionGetRace          = "getrace"
	ActionGetHistory       = "gethistory"
	ActionMessage          = "message"
	ActionPinMessage       = "pin_message"
	ActionUnpinMessage     = "unpin_message"
	ActionPing             = "ping"
	ActionSetInfo          = "setinfo"
	ActionMakeOpen         = "make_open"
	ActionMakeInvitational = "make_invitational"
	ActionBegin            = "begin"
	ActionCancelRace       = "cancel_race"
	ActionInviteToRace     = "invite_to_race"
	ActionAcceptRequest    = "accept_request"
	ActionForceUnready     = "force_unready"
	ActionRemoveEntrant    = "remove_entrant"
	ActionAddMonitor       = "add_monitor"
	ActionRemoveMonitor    = "remove_monitor"
	ActionOverrideStream   = "override_stream"
)

// Inbound message types.
const (
	typeChatHistory = "chat.history"
	typeChatMessage = "chat.message"
	typeChatDM      = "chat.dm"
	typeChatPin     = "chat.pin"
	typeChatUnpin   = "chat.unpin"
	typeChatDelete  = "chat.delete"
	typeChatPurge   = "chat.purge"
	typeError       = "error"
	typePong        = "pong"
	typeRaceData    = "race.data"
	typeRaceRenders = "race.renders"
)

type messageData struct {
	Message string `json:"message"`
	Pinned  bool   `json:"pinned"`
	GUID    string `json:"guid"`
}

type messageRef struct {
	Message string `json:"message"`
}

type userRef struct {
	User string `json:"user"`
}

type infoData struct {
	InfoBot  *string `json:"info_bot,omitempty"`
	InfoUser *string `json:"info_user,omitempty"`
}

// NewMessageAction builds a chat message action. Every call draws a fresh
// guid so the server can drop duplicate deliveries.
func NewMessageAction(text string, pinned bool) Action {
	return Action{Action: ActionMessage, Data: messageData{
		Message: text,
		Pinned:  pinned,
		GUID:    uuid.NewString(),
	}}
}

func messageAction(action, messageID string) Action {
	return Action{Action: action, Data: messageRef{Message: messageID}}
}

func userAction(action, userID string) Action {
	return Action{Action: action, Data: userRef{User: userID}}
}

// NewSetInfoAction builds a setinfo action. Nil fields are left unchanged on
// the server.
func NewSetInfoAction(infoBot, infoUser *string) Action {
	return Action{Action: ActionSetInfo, Data: infoData{InfoBot: infoBot, InfoUser: infoUser}}
}

// inboundFrame is the union of every inbound payload field. A frame is
// decoded once and dispatched on Type. Message stays raw because chat.dm
// frames carry it as plain text.
type inboundFrame struct {
	Type     string               `json:"type"`
	Messages []models.ChatMessage `json:"messages,omitempty"`
	Message  json.RawMessage      `json:"message,omitempty"`
	Delete   *models.ChatDelete   `json:"delete,omitempty"`
	Purge    *models.ChatPurge    `json:"purge,omitempty"`
	Errors   []string             `json:"errors,omitempty"`
	Race     *models.RaceDetails  `json:"race,omitempty"`
}

var errMissingPayload = errors.New("frame carries no payload")

// decodeFrame translates one inbound frame into its event. Frames that
// produce no event (chat.dm, race.renders, pong) return nil, nil.
func decodeFrame(endpoint string, at time.Time, data []byte) (Event, error) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, &DecodeError{Source: endpoint, Kind: "frame", Err: err}
	}

	meta := Meta{Endpoint: endpoint, At: at}

	switch frame.Type {
	case typeChatHistory:
		return ChatHistoryEvent{Meta: meta, Messages: frame.Messages}, nil

	case typeChatMessage:
		msg, err := frame.chatMessage(endpoint)
		if err != nil {
			return nil, err
		}
		return ChatMessageEvent{Meta: meta, Message: msg}, nil

	case typeChatPin, typeChatUnpin:
		msg, err := frame.chatMessage(endpoint)
		if err != nil {
			return nil, err
		}
		return pinEvent(meta, frame.Type, msg), nil

	case typeChatDelete:
		if frame.Delete == nil {
			return nil, &DecodeError{Source: endpoint, Kind: frame.Type, Err: errMissingPayload}
		}
		return ChatDeleteEvent{Meta: meta, Delete: *frame.Delete}, nil

	case typeChatPurge:
		if frame.Purge == nil {
			return nil, &DecodeError{Source: endpoint, Kind: frame.Type, Err: errMissingPayload}
		}
		return ChatPurgeEvent{Meta: meta, Purge: *frame.Purge}, nil

	case typeError:
		return ServerErrorEvent{Meta: meta, Errors: frame.Errors}, nil

	case typeRaceData:
		if frame.Race == nil {
			return nil, &DecodeError{Source: endpoint, Kind: frame.Type, Err: errMissingPayload}
		}
		return RaceDataEvent{Meta: meta, Race: *frame.Race}, nil

	case typeChatDM, typeRaceRenders, typePong:
		return nil, nil

	default:
		return nil, &UnknownMessageKindError{Endpoint: endpoint, Type: frame.Type}
	}
}

func (f *inboundFrame) chatMessage(endpoint string) (models.ChatMessage, error) {
	var msg models.ChatMessage
	if len(f.Message) == 0 || string(f.Message) == "null" {
		return msg, &DecodeError{Source: endpoint, Kind: f.Type, Err: errMissingPayload}
	}
	if err := json.Unmarshal(f.Message, &msg); err != nil {
		return msg, &DecodeError{Source: endpoint, Kind: f.Type, Err: err}
	}
	return msg, nil
}

// pinEvent resolves the pin direction. A chat.unpin frame is always an
// unpin. The server also sends chat.pin for unpinning, so for chat.pin the
// message's own is_pinned flag decides; without it the frame is reported as
// an ambiguous pin.
func pinEvent(meta Meta, frameType string, msg models.ChatMessage) Event {
	switch {
	case frameType == typeChatUnpin:
		return ChatUnpinEvent{Meta: meta, Message: msg}
	case msg.IsPinned != nil && *msg.IsPinned:
		return ChatPinEvent{Meta: meta, Message: msg}
	case msg.IsPinned != nil:
		return ChatUnpinEvent{Meta: meta, Message: msg}
	default:
		return ChatPinEvent{Meta: meta, Message: msg, Ambiguous: true}
	}
}
