package credential

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/parley-chat/parley/internal/model"
	"github.com/parley-chat/parley/internal/storage/memory"
	"github.com/parley-chat/parley/internal/testutil"
)

// testDigest is a cheap deterministic digest so the suite doesn't pay the
// Argon2 cost on every registration.
func testDigest(username, password string) string {
	return "digest:" + username + ":" + password
}

func testPolicy() Policy {
	return Policy{
		MinUsernameLength:  3,
		MaxUsernameLength:  20,
		MinPasswordLength:  6,
		MaxPasswordLength:  128,
		ForbiddenUsernames: []string{"admin", "root", "moderator"},
	}
}

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.service = New(s.storage, testDigest, testPolicy(), testutil.NopLogger())
	s.ctx = context.Background()
}

// Register tests

func (s *ServiceSuite) TestRegisterSucceeds() {
	account, err := s.service.Register(s.ctx, "alice", "secret123")
	s.Require().NoError(err)

	s.Equal(model.Username("alice"), account.Username)
	s.Equal(testDigest("alice", "secret123"), account.Digest)
}

func (s *ServiceSuite) TestRegisterPersistsAccount() {
	_, _ = s.service.Register(s.ctx, "alice", "secret123")

	stored, err := s.storage.GetAccount(s.ctx, "alice")
	s.Require().NoError(err)
	s.NotEmpty(stored.Digest)
	s.NotEqual("secret123", stored.Digest)
}

func (s *ServiceSuite) TestRegisterFailsIfUsernameExists() {
	_, _ = s.service.Register(s.ctx, "alice", "secret123")

	_, err := s.service.Register(s.ctx, "alice", "anything1")
	s.ErrorIs(err, model.ErrDuplicateUsername)
}

func (s *ServiceSuite) TestRegisterRejectsShortUsername() {
	_, err := s.service.Register(s.ctx, "al", "secret123")
	s.ErrorIs(err, model.ErrInvalidUsername)
}

func (s *ServiceSuite) TestRegisterRejectsLongUsername() {
	_, err := s.service.Register(s.ctx, "a123456789012345678901234", "secret123")
	s.ErrorIs(err, model.ErrInvalidUsername)
}

func (s *ServiceSuite) TestRegisterRejectsBadCharacters() {
	for _, username := range []string{"Alice", "1alice", "_alice", "al ice", "ali/ce"} {
		_, err := s.service.Register(s.ctx, username, "secret123")
		s.ErrorIs(err, model.ErrInvalidUsername, "username %q", username)
	}
}

func (s *ServiceSuite) TestRegisterRejectsForbiddenUsername() {
	_, err := s.service.Register(s.ctx, "admin", "secret123")
	s.ErrorIs(err, model.ErrInvalidUsername)
}

func (s *ServiceSuite) TestRegisterRejectsShortPassword() {
	_, err := s.service.Register(s.ctx, "alice", "nope")
	s.ErrorIs(err, model.ErrInvalidPassword)
}

// Authenticate tests

func (s *ServiceSuite) TestAuthenticateSucceeds() {
	_, _ = s.service.Register(s.ctx, "alice", "secret123")

	account, err := s.service.Authenticate(s.ctx, "alice", "secret123")
	s.Require().NoError(err)
	s.Equal(model.Username("alice"), account.Username)
}

func (s *ServiceSuite) TestAuthenticateFailsWithWrongPassword() {
	_, _ = s.service.Register(s.ctx, "alice", "secret123")

	_, err := s.service.Authenticate(s.ctx, "alice", "wrongpass")
	s.ErrorIs(err, model.ErrInvalidPassword)
}

func (s *ServiceSuite) TestAuthenticateFailsWithUnknownUsername() {
	_, err := s.service.Authenticate(s.ctx, "nobody", "secret123")
	s.ErrorIs(err, model.ErrUnknownUsername)
}

// Default digest

func TestDefaultDigestIsDeterministic(t *testing.T) {
	d1 := DefaultDigest("alice", "secret123")
	d2 := DefaultDigest("alice", "secret123")
	if d1 != d2 {
		t.Fatalf("digest not deterministic: %q != %q", d1, d2)
	}
	if d1 == DefaultDigest("alice", "other-pass") {
		t.Fatal("digest ignores the password")
	}
	if d1 == DefaultDigest("bob", "secret123") {
		t.Fatal("digest ignores the username")
	}
}
