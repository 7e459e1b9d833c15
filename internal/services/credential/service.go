// Package credential implements account registration and login validation
// against the persistent account store.
package credential

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"regexp"

	"github.com/parley-chat/parley/internal/model"
	"github.com/parley-chat/parley/internal/storage"
)

// usernamePattern is the allowed character shape: lowercase first character,
// then lowercase letters, digits, underscore or dash. Length bounds come from
// the policy, not the pattern.
var usernamePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Policy holds the externally-supplied account shape rules.
type Policy struct {
	MinUsernameLength  int
	MaxUsernameLength  int
	MinPasswordLength  int
	MaxPasswordLength  int
	ForbiddenUsernames []string
}

// Service validates and persists account credentials
type Service struct {
	storage   storage.Storage
	digest    DigestFunc
	policy    Policy
	forbidden map[string]struct{}
	logger    *slog.Logger
}

// New creates a new credential service. If digest is nil, DefaultDigest is
// used.
func New(storage storage.Storage, digest DigestFunc, policy Policy, logger *slog.Logger) *Service {
	if digest == nil {
		digest = DefaultDigest
	}
	forbidden := make(map[string]struct{}, len(policy.ForbiddenUsernames))
	for _, name := range policy.ForbiddenUsernames {
		forbidden[name] = struct{}{}
	}
	return &Service{
		storage:   storage,
		digest:    digest,
		policy:    policy,
		forbidden: forbidden,
		logger:    logger.With(slog.String("component", "credential")),
	}
}

// Register creates a new account
func (s *Service) Register(ctx context.Context, username, password string) (*model.Account, error) {
	if err := s.checkUsername(username); err != nil {
		return nil, err
	}
	if len(password) < s.policy.MinPasswordLength || len(password) > s.policy.MaxPasswordLength {
		return nil, model.ErrInvalidPassword
	}

	exists, err := s.storage.AccountExists(ctx, model.Username(username))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, model.ErrDuplicateUsername
	}

	account := &model.Account{
		Username: model.Username(username),
		Digest:   s.digest(username, password),
	}
	if err := s.storage.SaveAccount(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("account registered", slog.String("username", username))
	return account, nil
}

// Authenticate checks a login attempt against the stored digest. Unknown
// usernames and wrong passwords return distinct errors; callers facing
// untrusted clients should report both identically.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*model.Account, error) {
	account, err := s.storage.GetAccount(ctx, model.Username(username))
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return nil, model.ErrUnknownUsername
		}
		return nil, err
	}

	computed := s.digest(username, password)
	if subtle.ConstantTimeCompare([]byte(computed), []byte(account.Digest)) != 1 {
		return nil, model.ErrInvalidPassword
	}

	return account, nil
}

func (s *Service) checkUsername(username string) error {
	if len(username) < s.policy.MinUsernameLength || len(username) > s.policy.MaxUsernameLength {
		return model.ErrInvalidUsername
	}
	if !usernamePattern.MatchString(username) {
		return model.ErrInvalidUsername
	}
	if _, ok := s.forbidden[username]; ok {
		return model.ErrInvalidUsername
	}
	return nil
}
