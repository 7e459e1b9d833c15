// Package token implements session token issuance and validation. Validity
// follows the epoch rule: a token is valid iff it is registered and its
// recorded epoch equals the account's current epoch, so issuing a new token
// for an account invalidates every older one without touching its registry
// entry.
package token

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parley-chat/parley/internal/dependencies/clock"
	"github.com/parley-chat/parley/internal/model"
	"github.com/parley-chat/parley/internal/storage"
)

// Session is one issued token and the epoch it was issued under.
type Session struct {
	Token    string
	Username model.Username
	Epoch    uint64
	IssuedAt time.Time
}

// Authority issues, validates, and revokes session tokens.
type Authority struct {
	storage storage.Storage
	clock   clock.Clock

	mu       sync.RWMutex
	sessions map[string]Session
	epochs   map[model.Username]uint64
}

// New creates a new token authority.
func New(storage storage.Storage, clock clock.Clock) *Authority {
	return &Authority{
		storage:  storage,
		clock:    clock,
		sessions: make(map[string]Session),
		epochs:   make(map[model.Username]uint64),
	}
}

// Issue creates a new opaque token for the account and bumps the account's
// epoch, invalidating any previously issued token for that account.
func (a *Authority) Issue(account *model.Account) Session {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.epochs[account.Username]++
	session := Session{
		Token:    uuid.NewString(),
		Username: account.Username,
		Epoch:    a.epochs[account.Username],
		IssuedAt: a.clock.Now(),
	}
	a.sessions[session.Token] = session
	return session
}

// Validate resolves a token to its account, or returns model.ErrInvalidToken
// if the token is unknown, issued under a stale epoch, or its account no
// longer exists.
func (a *Authority) Validate(ctx context.Context, token string) (*model.Account, error) {
	a.mu.RLock()
	session, ok := a.sessions[token]
	epoch := a.epochs[session.Username]
	a.mu.RUnlock()

	if !ok || session.Epoch != epoch {
		return nil, model.ErrInvalidToken
	}

	account, err := a.storage.GetAccount(ctx, session.Username)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return nil, model.ErrInvalidToken
		}
		return nil, err
	}
	return account, nil
}

// Revoke removes the token's registry entry. Validity is governed by the
// epoch rule, so this is a cleanup step used on explicit logout, not the
// sole invalidation mechanism.
func (a *Authority) Revoke(token string) {
	a.mu.Lock()
	delete(a.sessions, token)
	a.mu.Unlock()
}

// PruneStale removes registry entries whose epoch no longer matches their
// account's current epoch (call periodically).
func (a *Authority) PruneStale() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for token, session := range a.sessions {
		if session.Epoch != a.epochs[session.Username] {
			delete(a.sessions, token)
		}
	}
}
