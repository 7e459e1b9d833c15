package directory

import (
	"log/slog"

	"github.com/parley-chat/parley/internal/model"
)

// Enter adds the connection to a room, creating the room if it does not
// exist. It fails with model.ErrAlreadyInRoom if the connection is already a
// member.
func (d *Directory) Enter(connID model.ConnectionID, room model.RoomName) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.rooms.add(room, connID) {
		return model.ErrAlreadyInRoom
	}

	d.logger.Debug("entered room",
		slog.String("connection_id", string(connID)),
		slog.String("room", string(room)))
	return nil
}

// Leave removes the connection from a room. The default room cannot be left
// by member action; the room ceases to exist if its member set becomes
// empty.
func (d *Directory) Leave(connID model.ConnectionID, room model.RoomName) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if room == d.defaultRoom {
		return model.ErrCannotLeaveDefaultRoom
	}
	if !d.rooms.remove(room, connID) {
		return model.ErrNotInRoom
	}

	d.logger.Debug("left room",
		slog.String("connection_id", string(connID)),
		slog.String("room", string(room)))
	return nil
}

// LeaveAll removes the connection from every room it belongs to, including
// the default room, and returns the rooms it was removed from. Used during
// teardown so callers can notify remaining members.
func (d *Directory) LeaveAll(connID model.ConnectionID) []model.RoomName {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rooms.dropRight(connID)
}

// MembersOf returns the connections in a room, empty if the room does not
// exist.
func (d *Directory) MembersOf(room model.RoomName) []model.ConnectionID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rooms.rightsOf(room)
}

// UsersOf returns the usernames of the room's members, empty if the room
// does not exist.
func (d *Directory) UsersOf(room model.RoomName) []model.Username {
	d.mu.Lock()
	defer d.mu.Unlock()

	members := d.rooms.rightsOf(room)
	users := make([]model.Username, 0, len(members))
	for _, connID := range members {
		if username, ok := d.online.left(connID); ok {
			users = append(users, username)
		}
	}
	return users
}

// RoomsOf returns the rooms the connection belongs to.
func (d *Directory) RoomsOf(connID model.ConnectionID) []model.RoomName {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rooms.leftsOf(connID)
}

// RoomExists reports whether a room currently has any members.
func (d *Directory) RoomExists(room model.RoomName) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rooms.hasLeft(room)
}
