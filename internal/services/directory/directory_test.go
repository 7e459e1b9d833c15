package directory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/parley-chat/parley/internal/dependencies/mocks"
	"github.com/parley-chat/parley/internal/model"
	"github.com/parley-chat/parley/internal/services/token"
	"github.com/parley-chat/parley/internal/storage/memory"
	"github.com/parley-chat/parley/internal/testutil"
)

type DirectorySuite struct {
	suite.Suite
	storage   *memory.Storage
	authority *token.Authority
	directory *Directory
	ctx       context.Context
}

func TestDirectorySuite(t *testing.T) {
	suite.Run(t, new(DirectorySuite))
}

func (s *DirectorySuite) SetupTest() {
	s.storage = memory.New()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.authority = token.New(s.storage, clk)
	s.directory = New(s.authority, "general", testutil.NopLogger())
	s.ctx = context.Background()
}

// issueFor registers an account and returns a fresh token for it.
func (s *DirectorySuite) issueFor(username model.Username) string {
	account := &model.Account{Username: username, Digest: "d"}
	s.Require().NoError(s.storage.SaveAccount(s.ctx, account))
	return s.authority.Issue(account).Token
}

// Presence tests

func (s *DirectorySuite) TestAttachRecordsMappings() {
	tok := s.issueFor("alice")

	username, err := s.directory.Attach(s.ctx, "conn-1", tok)
	s.Require().NoError(err)
	s.Equal(model.Username("alice"), username)

	gotTok, ok := s.directory.TokenOf("conn-1")
	s.True(ok)
	s.Equal(tok, gotTok)

	gotUser, ok := s.directory.AccountOf("conn-1")
	s.True(ok)
	s.Equal(model.Username("alice"), gotUser)

	gotConn, ok := s.directory.ConnectionOf("alice")
	s.True(ok)
	s.Equal(model.ConnectionID("conn-1"), gotConn)

	s.True(s.directory.IsOnline("alice"))
	s.ElementsMatch([]model.Username{"alice"}, s.directory.ListOnline())
}

func (s *DirectorySuite) TestAttachRejectsInvalidToken() {
	_, err := s.directory.Attach(s.ctx, "conn-1", "bogus")
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *DirectorySuite) TestAttachRejectsSecondConnectionForAccount() {
	tok := s.issueFor("alice")
	_, err := s.directory.Attach(s.ctx, "conn-1", tok)
	s.Require().NoError(err)

	_, err = s.directory.Attach(s.ctx, "conn-2", tok)
	s.ErrorIs(err, model.ErrAlreadyOnline)
}

func (s *DirectorySuite) TestAttachRejectsStaleToken() {
	t1 := s.issueFor("alice")
	account, err := s.storage.GetAccount(s.ctx, "alice")
	s.Require().NoError(err)
	s.authority.Issue(account) // bumps the epoch

	_, err = s.directory.Attach(s.ctx, "conn-1", t1)
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *DirectorySuite) TestDetachRemovesMappings() {
	tok := s.issueFor("alice")
	_, _ = s.directory.Attach(s.ctx, "conn-1", tok)

	s.directory.Detach("conn-1")

	s.False(s.directory.IsOnline("alice"))
	_, ok := s.directory.TokenOf("conn-1")
	s.False(ok)
	_, ok = s.directory.AccountOf("conn-1")
	s.False(ok)
	s.Empty(s.directory.ListOnline())
}

func (s *DirectorySuite) TestDetachIsIdempotent() {
	s.directory.Detach("never-attached")

	tok := s.issueFor("alice")
	_, _ = s.directory.Attach(s.ctx, "conn-1", tok)
	s.directory.Detach("conn-1")
	s.directory.Detach("conn-1")

	s.False(s.directory.IsOnline("alice"))
}

func (s *DirectorySuite) TestReattachAfterDetach() {
	tok := s.issueFor("alice")
	_, _ = s.directory.Attach(s.ctx, "conn-1", tok)
	s.directory.Detach("conn-1")

	// The token was not revoked, so a later connection may attach with it.
	_, err := s.directory.Attach(s.ctx, "conn-2", tok)
	s.NoError(err)
}

// Room tests

func (s *DirectorySuite) TestEnterCreatesRoom() {
	s.False(s.directory.RoomExists("dev"))

	err := s.directory.Enter("conn-1", "dev")
	s.Require().NoError(err)

	s.True(s.directory.RoomExists("dev"))
	s.ElementsMatch([]model.ConnectionID{"conn-1"}, s.directory.MembersOf("dev"))
	s.ElementsMatch([]model.RoomName{"dev"}, s.directory.RoomsOf("conn-1"))
}

func (s *DirectorySuite) TestEnterTwiceFails() {
	_ = s.directory.Enter("conn-1", "dev")

	err := s.directory.Enter("conn-1", "dev")
	s.ErrorIs(err, model.ErrAlreadyInRoom)
}

func (s *DirectorySuite) TestLeaveDefaultRoomFails() {
	_ = s.directory.Enter("conn-1", "general")

	err := s.directory.Leave("conn-1", "general")
	s.ErrorIs(err, model.ErrCannotLeaveDefaultRoom)
	s.True(s.directory.RoomExists("general"))
}

func (s *DirectorySuite) TestLeaveDefaultRoomFailsEvenWhenNotMember() {
	err := s.directory.Leave("conn-1", "general")
	s.ErrorIs(err, model.ErrCannotLeaveDefaultRoom)
}

func (s *DirectorySuite) TestLeaveNotMemberFails() {
	err := s.directory.Leave("conn-1", "dev")
	s.ErrorIs(err, model.ErrNotInRoom)
}

func (s *DirectorySuite) TestLeaveDeletesEmptyRoom() {
	_ = s.directory.Enter("conn-1", "dev")
	_ = s.directory.Enter("conn-2", "dev")

	s.Require().NoError(s.directory.Leave("conn-1", "dev"))
	s.True(s.directory.RoomExists("dev"))

	s.Require().NoError(s.directory.Leave("conn-2", "dev"))
	s.False(s.directory.RoomExists("dev"))
	s.Empty(s.directory.MembersOf("dev"))
}

func (s *DirectorySuite) TestLeaveAllRemovesEveryMembership() {
	_ = s.directory.Enter("conn-1", "general")
	_ = s.directory.Enter("conn-1", "dev")
	_ = s.directory.Enter("conn-2", "dev")

	rooms := s.directory.LeaveAll("conn-1")
	s.ElementsMatch([]model.RoomName{"general", "dev"}, rooms)

	s.Empty(s.directory.RoomsOf("conn-1"))
	s.False(s.directory.RoomExists("general"))
	s.True(s.directory.RoomExists("dev"))
	s.ElementsMatch([]model.ConnectionID{"conn-2"}, s.directory.MembersOf("dev"))
}

func (s *DirectorySuite) TestLeaveAllOnUnknownConnection() {
	s.Empty(s.directory.LeaveAll("conn-1"))
}

func (s *DirectorySuite) TestIndicesStayConsistent() {
	conns := []model.ConnectionID{"c1", "c2", "c3"}
	rooms := []model.RoomName{"general", "dev", "ops"}
	for _, c := range conns {
		for _, r := range rooms {
			s.Require().NoError(s.directory.Enter(c, r))
		}
	}

	_ = s.directory.Leave("c2", "dev")
	_ = s.directory.LeaveAll("c3")

	// Forward and reverse views must agree for every remaining pair.
	for _, r := range rooms {
		for _, c := range s.directory.MembersOf(r) {
			s.Contains(s.directory.RoomsOf(c), r)
		}
	}
	for _, c := range conns {
		for _, r := range s.directory.RoomsOf(c) {
			s.Contains(s.directory.MembersOf(r), c)
		}
	}
}

func (s *DirectorySuite) TestUsersOfResolvesUsernames() {
	tokA := s.issueFor("alice")
	tokB := s.issueFor("bob")
	_, _ = s.directory.Attach(s.ctx, "conn-1", tokA)
	_, _ = s.directory.Attach(s.ctx, "conn-2", tokB)
	_ = s.directory.Enter("conn-1", "dev")
	_ = s.directory.Enter("conn-2", "dev")

	s.ElementsMatch([]model.Username{"alice", "bob"}, s.directory.UsersOf("dev"))
}
