package storage

import (
	"context"

	"github.com/parley-chat/parley/internal/model"
)

// Storage defines the interface for account persistence. Accounts are only
// ever created and read; there is no delete or rewrite.
type Storage interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account *model.Account) error

	// GetAccount returns the account for a username, or
	// model.ErrAccountNotFound.
	GetAccount(ctx context.Context, username model.Username) (*model.Account, error)

	// AccountExists reports whether an account with the username exists.
	AccountExists(ctx context.Context, username model.Username) (bool, error)
}
