// Package protocol defines the JSON event envelopes exchanged over the
// event channel.
package protocol

import (
	"errors"

	"github.com/parley-chat/parley/internal/model"
)

// Client-to-server event names
const (
	EventJoin      = "join"
	EventChat      = "chat"
	EventEnterRoom = "enter-room"
	EventLeaveRoom = "leave-room"
	EventLogout    = "logout"
)

// Server-to-client event names
const (
	EventJoined   = "joined"
	EventEntered  = "entered"
	EventUsers    = "users"
	EventLeft     = "left"
	EventLeftRoom = "left-r"
	EventError    = "error"
)

// ClientEvent is the envelope for events received from a client. Fields
// beyond Event are populated depending on the event name.
type ClientEvent struct {
	Event string `json:"event"`
	Token string `json:"token,omitempty"`
	Text  string `json:"text,omitempty"`
	Room  string `json:"room,omitempty"`
}

// ServerEvent is the envelope for events pushed to a client.
type ServerEvent struct {
	Event    string   `json:"event"`
	Username string   `json:"username,omitempty"`
	Room     string   `json:"room,omitempty"`
	Users    []string `json:"users,omitempty"`
	Text     string   `json:"text,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}

// Joined announces that a user came online.
func Joined(username model.Username) ServerEvent {
	return ServerEvent{Event: EventJoined, Username: string(username)}
}

// Entered announces that a user entered a room.
func Entered(username model.Username, room model.RoomName) ServerEvent {
	return ServerEvent{Event: EventEntered, Username: string(username), Room: string(room)}
}

// Users carries the current member list of a room.
func Users(room model.RoomName, users []model.Username) ServerEvent {
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = string(u)
	}
	return ServerEvent{Event: EventUsers, Room: string(room), Users: names}
}

// Chat carries a chat message.
func Chat(username model.Username, text string) ServerEvent {
	return ServerEvent{Event: EventChat, Username: string(username), Text: text}
}

// Left announces that a user went offline.
func Left(username model.Username) ServerEvent {
	return ServerEvent{Event: EventLeft, Username: string(username)}
}

// LeftRoom announces that a user left a room.
func LeftRoom(username model.Username, room model.RoomName) ServerEvent {
	return ServerEvent{Event: EventLeftRoom, Username: string(username), Room: string(room)}
}

// Error reports a rejected event back to its originating connection.
func Error(err error) ServerEvent {
	return ServerEvent{Event: EventError, Reason: Reason(err)}
}

// Reason maps an error to the wire-level reason string. Errors outside the
// protocol taxonomy are reported generically rather than leaking internals.
func Reason(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidToken),
		errors.Is(err, model.ErrAlreadyOnline),
		errors.Is(err, model.ErrNotAuthenticated),
		errors.Is(err, model.ErrAlreadyInRoom),
		errors.Is(err, model.ErrNotInRoom),
		errors.Is(err, model.ErrCannotLeaveDefaultRoom),
		errors.Is(err, model.ErrInvalidMessage):
		return err.Error()
	default:
		return "internal error"
	}
}
