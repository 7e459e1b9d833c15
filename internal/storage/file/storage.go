// Package file implements the account store as an append-only line-oriented
// file: one "username digest" pair per line. The whole file is loaded into
// memory at startup; registrations are appended, never rewritten.
package file

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/parley-chat/parley/internal/model"
	"github.com/parley-chat/parley/internal/storage"
)

// Storage is a file-backed implementation of the storage interface.
type Storage struct {
	mu       sync.RWMutex
	accounts map[model.Username]*model.Account
	file     *os.File
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Open loads all accounts from path, creating the file if it does not exist,
// and keeps it open for appends.
func Open(path string) (*Storage, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open account file: %w", err)
	}

	accounts := make(map[model.Username]*model.Account)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		username, digest, ok := strings.Cut(line, " ")
		if !ok || username == "" || digest == "" {
			// A malformed line means the file was edited by hand; skip it
			// rather than refusing to start.
			continue
		}
		accounts[model.Username(username)] = &model.Account{
			Username: model.Username(username),
			Digest:   digest,
		}
	}
	if err := scanner.Err(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read account file: %w", err)
	}

	// All subsequent writes are appends.
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("seek account file: %w", err)
	}

	return &Storage{
		accounts: accounts,
		file:     f,
	}, nil
}

// Close closes the underlying file.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := fmt.Sprintf("%s %s\n", account.Username, account.Digest)
	if _, err := s.file.WriteString(line); err != nil {
		return fmt.Errorf("append account: %w", err)
	}
	s.accounts[account.Username] = account
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, username model.Username) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[username]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return account, nil
}

func (s *Storage) AccountExists(ctx context.Context, username model.Username) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.accounts[username]
	return ok, nil
}
