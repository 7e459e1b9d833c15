// Package directory tracks which connections are attached to which accounts
// and which rooms they occupy. Presence and room membership are mutated
// together during attach and teardown, so both indices live behind one
// mutex; every operation completes its read-modify-write before the caller
// does any network I/O.
package directory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/parley-chat/parley/internal/model"
	"github.com/parley-chat/parley/internal/services/token"
)

// Directory is the presence-and-room index for all live connections.
type Directory struct {
	authority   *token.Authority
	defaultRoom model.RoomName
	logger      *slog.Logger

	mu     sync.Mutex
	online *bimap[model.Username, model.ConnectionID]
	tokens map[model.ConnectionID]string
	rooms  *pairIndex[model.RoomName, model.ConnectionID]
}

// New creates a directory that validates tokens against authority.
func New(authority *token.Authority, defaultRoom model.RoomName, logger *slog.Logger) *Directory {
	return &Directory{
		authority:   authority,
		defaultRoom: defaultRoom,
		logger:      logger.With(slog.String("component", "directory")),
		online:      newBimap[model.Username, model.ConnectionID](),
		tokens:      make(map[model.ConnectionID]string),
		rooms:       newPairIndex[model.RoomName, model.ConnectionID](),
	}
}

// DefaultRoom returns the name of the room every authenticated connection
// belongs to.
func (d *Directory) DefaultRoom() model.RoomName {
	return d.defaultRoom
}

// Attach validates the token and records the connection↔token↔username
// mapping. It fails with model.ErrInvalidToken for an invalid token and
// model.ErrAlreadyOnline if the account already has a live connection.
func (d *Directory) Attach(ctx context.Context, connID model.ConnectionID, tok string) (model.Username, error) {
	account, err := d.authority.Validate(ctx, tok)
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.online.right(account.Username); ok {
		return "", model.ErrAlreadyOnline
	}

	d.online.put(account.Username, connID)
	d.tokens[connID] = tok

	d.logger.Info("connection attached",
		slog.String("connection_id", string(connID)),
		slog.String("username", string(account.Username)))
	return account.Username, nil
}

// Detach removes all presence entries for the connection. It is idempotent:
// detaching a connection that was never attached is a no-op.
func (d *Directory) Detach(connID model.ConnectionID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	username, ok := d.online.left(connID)
	if !ok {
		return
	}
	d.online.deleteLeft(username)
	delete(d.tokens, connID)

	d.logger.Info("connection detached",
		slog.String("connection_id", string(connID)),
		slog.String("username", string(username)))
}

// TokenOf returns the token the connection attached with.
func (d *Directory) TokenOf(connID model.ConnectionID) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	tok, ok := d.tokens[connID]
	return tok, ok
}

// AccountOf returns the username the connection is attached to.
func (d *Directory) AccountOf(connID model.ConnectionID) (model.Username, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.online.left(connID)
}

// ConnectionOf returns the live connection for a username.
func (d *Directory) ConnectionOf(username model.Username) (model.ConnectionID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.online.right(username)
}

// IsOnline reports whether the account has a live attached connection.
func (d *Directory) IsOnline(username model.Username) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.online.right(username)
	return ok
}

// ListOnline returns the usernames of all attached connections, in no
// particular order.
func (d *Directory) ListOnline() []model.Username {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.online.lefts()
}
