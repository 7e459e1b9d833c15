// Package chat sequences the per-connection protocol: join, chat,
// enter-room, leave-room, logout, and transport disconnect. A connection is
// Unauthenticated until a join succeeds; every other event requires an
// authenticated connection. The transport delivers one event at a time per
// connection, so handlers here never race with themselves.
package chat

import (
	"context"
	"log/slog"
	"sync"

	"github.com/parley-chat/parley/internal/model"
	"github.com/parley-chat/parley/internal/protocol"
	"github.com/parley-chat/parley/internal/services/directory"
	"github.com/parley-chat/parley/internal/services/token"
)

// Sender is the outbound half of a connection. Send must not block; the
// transport is expected to drop on a full buffer rather than stall the
// caller.
type Sender interface {
	ID() model.ConnectionID
	Send(ev protocol.ServerEvent)
}

// Config holds chat behavior settings.
type Config struct {
	// MaxMessageLength bounds a message after normalization.
	MaxMessageLength int
}

// Controller dispatches inbound events against the directory and token
// authority and fans resulting notifications out to room members.
// Notifications are best-effort: no acknowledgment, no retry, no ordering
// guarantee between different recipients.
type Controller struct {
	directory *directory.Directory
	authority *token.Authority
	cfg       Config
	logger    *slog.Logger

	mu    sync.RWMutex
	conns map[model.ConnectionID]Sender
}

// NewController creates a new chat controller.
func NewController(dir *directory.Directory, authority *token.Authority, cfg Config, logger *slog.Logger) *Controller {
	return &Controller{
		directory: dir,
		authority: authority,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "chat")),
		conns:     make(map[model.ConnectionID]Sender),
	}
}

// Connect registers a newly opened transport channel. The connection starts
// Unauthenticated.
func (c *Controller) Connect(s Sender) {
	c.mu.Lock()
	c.conns[s.ID()] = s
	c.mu.Unlock()

	c.logger.Info("connection opened", slog.String("connection_id", string(s.ID())))
}

// HandleEvent dispatches one inbound event for a connection. Rejections are
// reported to the originating connection only and never terminate it.
func (c *Controller) HandleEvent(ctx context.Context, connID model.ConnectionID, ev protocol.ClientEvent) {
	var err error
	switch ev.Event {
	case protocol.EventJoin:
		err = c.join(ctx, connID, ev.Token)
	case protocol.EventChat:
		err = c.chat(connID, ev.Text)
	case protocol.EventEnterRoom:
		err = c.enterRoom(connID, model.RoomName(ev.Room))
	case protocol.EventLeaveRoom:
		err = c.leaveRoom(connID, model.RoomName(ev.Room))
	case protocol.EventLogout:
		err = c.logout(connID)
	default:
		c.logger.Warn("unknown event",
			slog.String("connection_id", string(connID)),
			slog.String("event", ev.Event))
		return
	}

	if err != nil {
		c.logger.Debug("event rejected",
			slog.String("connection_id", string(connID)),
			slog.String("event", ev.Event),
			slog.String("reason", protocol.Reason(err)))
		c.sendTo(connID, protocol.Error(err))
	}
}

// Disconnect tears down a connection after its transport channel closed.
// The token is not revoked: the account simply reads as offline until a
// fresh join. Idempotent.
func (c *Controller) Disconnect(connID model.ConnectionID) {
	c.mu.Lock()
	_, registered := c.conns[connID]
	delete(c.conns, connID)
	c.mu.Unlock()

	if !registered {
		return
	}

	c.teardown(connID)
	c.logger.Info("connection closed", slog.String("connection_id", string(connID)))
}

func (c *Controller) join(ctx context.Context, connID model.ConnectionID, tok string) error {
	// A second join on an already-authenticated connection is an error, not
	// a no-op.
	if _, ok := c.directory.AccountOf(connID); ok {
		return model.ErrAlreadyOnline
	}

	username, err := c.directory.Attach(ctx, connID, tok)
	if err != nil {
		return err
	}

	general := c.directory.DefaultRoom()
	if err := c.directory.Enter(connID, general); err != nil {
		// The connection was just attached, so it cannot already be a
		// member; anything else is a defect.
		panic("default room entry failed: " + err.Error())
	}

	c.sendTo(connID, protocol.Joined(username))
	c.sendTo(connID, protocol.Users(general, c.directory.ListOnline()))
	c.broadcast(general, protocol.Joined(username), connID)
	return nil
}

func (c *Controller) chat(connID model.ConnectionID, text string) error {
	username, ok := c.directory.AccountOf(connID)
	if !ok {
		return model.ErrNotAuthenticated
	}

	normalized := Normalize(text)
	if normalized == "" || len(normalized) > c.cfg.MaxMessageLength {
		return model.ErrInvalidMessage
	}

	// The sender gets the echo too.
	c.broadcast(c.directory.DefaultRoom(), protocol.Chat(username, normalized), "")
	return nil
}

func (c *Controller) enterRoom(connID model.ConnectionID, room model.RoomName) error {
	username, ok := c.directory.AccountOf(connID)
	if !ok {
		return model.ErrNotAuthenticated
	}

	if err := c.directory.Enter(connID, room); err != nil {
		return err
	}

	c.broadcast(room, protocol.Entered(username, room), connID)
	c.sendTo(connID, protocol.Users(room, c.directory.UsersOf(room)))
	return nil
}

func (c *Controller) leaveRoom(connID model.ConnectionID, room model.RoomName) error {
	username, ok := c.directory.AccountOf(connID)
	if !ok {
		return model.ErrNotAuthenticated
	}

	if err := c.directory.Leave(connID, room); err != nil {
		return err
	}

	c.sendTo(connID, protocol.LeftRoom(username, room))
	c.broadcast(room, protocol.LeftRoom(username, room), connID)
	return nil
}

// logout ends the session: full teardown plus token revocation, with the
// transport channel left open. The connection returns to Unauthenticated.
func (c *Controller) logout(connID model.ConnectionID) error {
	tok, ok := c.directory.TokenOf(connID)
	if !ok {
		return model.ErrNotAuthenticated
	}

	c.teardown(connID)
	c.authority.Revoke(tok)
	return nil
}

// teardown removes the connection from every room and detaches its
// presence, notifying remaining members of each room. Safe to call on a
// connection that was never authenticated.
func (c *Controller) teardown(connID model.ConnectionID) {
	username, ok := c.directory.AccountOf(connID)
	if !ok {
		return
	}

	rooms := c.directory.LeaveAll(connID)
	c.directory.Detach(connID)

	general := c.directory.DefaultRoom()
	for _, room := range rooms {
		if room == general {
			c.broadcast(room, protocol.Left(username), connID)
		} else {
			c.broadcast(room, protocol.LeftRoom(username, room), connID)
		}
	}
}

// sendTo delivers an event to one connection, if still registered.
func (c *Controller) sendTo(connID model.ConnectionID, ev protocol.ServerEvent) {
	c.mu.RLock()
	s, ok := c.conns[connID]
	c.mu.RUnlock()
	if ok {
		s.Send(ev)
	}
}

// broadcast fans an event out to every member of a room except the excluded
// connection.
func (c *Controller) broadcast(room model.RoomName, ev protocol.ServerEvent, exclude model.ConnectionID) {
	members := c.directory.MembersOf(room)

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, connID := range members {
		if connID == exclude {
			continue
		}
		if s, ok := c.conns[connID]; ok {
			s.Send(ev)
		}
	}
}
