package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/parley-chat/parley/internal/api"
	"github.com/parley-chat/parley/internal/api/response"
	"github.com/parley-chat/parley/internal/dependencies/clock"
	"github.com/parley-chat/parley/internal/dependencies/random"
	"github.com/parley-chat/parley/internal/protocol"
	"github.com/parley-chat/parley/internal/services/chat"
	"github.com/parley-chat/parley/internal/services/credential"
	"github.com/parley-chat/parley/internal/services/directory"
	"github.com/parley-chat/parley/internal/services/token"
	"github.com/parley-chat/parley/internal/storage/memory"
	"github.com/parley-chat/parley/internal/testutil"
	"github.com/parley-chat/parley/internal/ws"
)

// testDigest keeps registration cheap in tests.
func testDigest(username, password string) string {
	return "digest:" + username + ":" + password
}

type APISuite struct {
	suite.Suite
	server    *httptest.Server
	authority *token.Authority
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	logger := testutil.NopLogger()
	store := memory.New()

	credentials := credential.New(store, testDigest, credential.Policy{
		MinUsernameLength:  3,
		MaxUsernameLength:  20,
		MinPasswordLength:  6,
		MaxPasswordLength:  128,
		ForbiddenUsernames: []string{"admin"},
	}, logger)
	s.authority = token.New(store, clock.New())
	dir := directory.New(s.authority, "general", logger)
	controller := chat.NewController(dir, s.authority, chat.Config{MaxMessageLength: 1000}, logger)
	wsHandler := ws.NewHandler(controller, random.New(), logger)

	router := api.NewRouter(api.RouterConfig{
		Logger:       logger,
		Credentials:  credentials,
		Authority:    s.authority,
		EventChannel: wsHandler,
	})
	s.server = httptest.NewServer(router)
}

func (s *APISuite) TearDownTest() {
	s.server.Close()
}

func (s *APISuite) postJSON(path string, body any) *http.Response {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)
	resp, err := http.Post(s.server.URL+path, "application/json", bytes.NewReader(payload))
	s.Require().NoError(err)
	return resp
}

func (s *APISuite) decode(resp *http.Response, out any) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
}

func (s *APISuite) errorCode(resp *http.Response) string {
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	s.decode(resp, &body)
	return body.Error.Code
}

func (s *APISuite) register(username, password string) *http.Response {
	return s.postJSON("/api/v1/auth/register", map[string]string{
		"username": username,
		"password": password,
	})
}

func (s *APISuite) login(username, password string) *http.Response {
	return s.postJSON("/api/v1/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
}

func (s *APISuite) TestHealth() {
	resp, err := http.Get(s.server.URL + "/api/v1/health")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *APISuite) TestRegister() {
	resp := s.register("alice", "password123")
	s.Equal(http.StatusCreated, resp.StatusCode)

	var body response.RegisterResponse
	s.decode(resp, &body)
	s.Equal("alice", body.Username)
}

func (s *APISuite) TestRegisterDuplicateUsername() {
	s.register("alice", "password123").Body.Close()

	resp := s.register("alice", "otherpassword")
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Equal("USERNAME_EXISTS", s.errorCode(resp))
}

func (s *APISuite) TestRegisterRejectsBadUsernames() {
	for _, username := range []string{"ab", "9lives", "Alice", "admin", strings.Repeat("a", 21)} {
		resp := s.register(username, "password123")
		s.Equal(http.StatusBadRequest, resp.StatusCode, "username %q", username)
		s.Equal("INVALID_USERNAME", s.errorCode(resp))
	}
}

func (s *APISuite) TestRegisterRejectsShortPassword() {
	resp := s.register("alice", "short")
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("INVALID_PASSWORD", s.errorCode(resp))
}

func (s *APISuite) TestRegisterRejectsMissingFields() {
	resp := s.postJSON("/api/v1/auth/register", map[string]string{"username": "alice"})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("INVALID_REQUEST", s.errorCode(resp))
}

func (s *APISuite) TestLogin() {
	s.register("alice", "password123").Body.Close()

	resp := s.login("alice", "password123")
	s.Equal(http.StatusOK, resp.StatusCode)

	var body response.LoginResponse
	s.decode(resp, &body)
	s.Equal("alice", body.Username)
	s.NotEmpty(body.Token)
}

func (s *APISuite) TestLoginFailureIsUniform() {
	s.register("alice", "password123").Body.Close()

	unknownUser := s.login("nobody", "password123")
	wrongPassword := s.login("alice", "wrongpassword")

	s.Equal(http.StatusUnauthorized, unknownUser.StatusCode)
	s.Equal(http.StatusUnauthorized, wrongPassword.StatusCode)
	s.Equal("INVALID_CREDENTIALS", s.errorCode(unknownUser))
	s.Equal("INVALID_CREDENTIALS", s.errorCode(wrongPassword))
}

func (s *APISuite) TestReloginInvalidatesEarlierToken() {
	s.register("alice", "password123").Body.Close()

	var first, second response.LoginResponse
	s.decode(s.login("alice", "password123"), &first)
	s.decode(s.login("alice", "password123"), &second)
	s.NotEqual(first.Token, second.Token)

	ctx := context.Background()
	_, err := s.authority.Validate(ctx, first.Token)
	s.Error(err)
	_, err = s.authority.Validate(ctx, second.Token)
	s.NoError(err)
}

// dialWS opens the event channel against the test server.
func (s *APISuite) dialWS() *websocket.Conn {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { conn.Close() })
	return conn
}

func (s *APISuite) readEvent(conn *websocket.Conn) protocol.ServerEvent {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	var ev protocol.ServerEvent
	s.Require().NoError(conn.ReadJSON(&ev))
	return ev
}

func (s *APISuite) loginToken(username, password string) string {
	var body response.LoginResponse
	s.decode(s.login(username, password), &body)
	return body.Token
}

func (s *APISuite) TestEventChannelJoinAndChat() {
	s.register("alice", "password123").Body.Close()
	tok := s.loginToken("alice", "password123")

	conn := s.dialWS()
	s.Require().NoError(conn.WriteJSON(protocol.ClientEvent{
		Event: protocol.EventJoin,
		Token: tok,
	}))

	joined := s.readEvent(conn)
	s.Equal(protocol.EventJoined, joined.Event)
	s.Equal("alice", joined.Username)

	users := s.readEvent(conn)
	s.Equal(protocol.EventUsers, users.Event)
	s.Equal("general", users.Room)
	s.Equal([]string{"alice"}, users.Users)

	s.Require().NoError(conn.WriteJSON(protocol.ClientEvent{
		Event: protocol.EventChat,
		Text:  "   hello\n\n\nworld   ",
	}))

	echo := s.readEvent(conn)
	s.Equal(protocol.EventChat, echo.Event)
	s.Equal("alice", echo.Username)
	s.Equal("hello\nworld", echo.Text)
}

func (s *APISuite) TestEventChannelRejectsStaleToken() {
	s.register("alice", "password123").Body.Close()
	stale := s.loginToken("alice", "password123")
	s.loginToken("alice", "password123")

	conn := s.dialWS()
	s.Require().NoError(conn.WriteJSON(protocol.ClientEvent{
		Event: protocol.EventJoin,
		Token: stale,
	}))

	ev := s.readEvent(conn)
	s.Equal(protocol.EventError, ev.Event)
	s.Equal("invalid token", ev.Reason)
}

func (s *APISuite) TestEventChannelDisconnectNotifiesOthers() {
	for i, name := range []string{"alice", "bobby"} {
		s.register(name, fmt.Sprintf("password%d", i)).Body.Close()
	}

	aliceConn := s.dialWS()
	s.Require().NoError(aliceConn.WriteJSON(protocol.ClientEvent{
		Event: protocol.EventJoin,
		Token: s.loginToken("alice", "password0"),
	}))
	s.readEvent(aliceConn)
	s.readEvent(aliceConn)

	bobConn := s.dialWS()
	s.Require().NoError(bobConn.WriteJSON(protocol.ClientEvent{
		Event: protocol.EventJoin,
		Token: s.loginToken("bobby", "password1"),
	}))
	s.readEvent(bobConn)
	s.readEvent(bobConn)

	// Alice sees Bob arrive, then leave when his connection drops.
	s.Equal(protocol.EventJoined, s.readEvent(aliceConn).Event)
	bobConn.Close()

	left := s.readEvent(aliceConn)
	s.Equal(protocol.EventLeft, left.Event)
	s.Equal("bobby", left.Username)
}
