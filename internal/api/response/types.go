package response

import (
	"time"

	"github.com/parley-chat/parley/internal/model"
	"github.com/parley-chat/parley/internal/services/token"
)

// RegisterResponse is returned after a successful registration
type RegisterResponse struct {
	Username string `json:"username"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	Username string    `json:"username"`
	Token    string    `json:"token"`
	IssuedAt time.Time `json:"issued_at"`
}

// RegisterResponseFromAccount converts an account to a register response
func RegisterResponseFromAccount(account *model.Account) RegisterResponse {
	return RegisterResponse{
		Username: string(account.Username),
	}
}

// LoginResponseFromSession converts a session to a login response
func LoginResponseFromSession(session token.Session) LoginResponse {
	return LoginResponse{
		Username: string(session.Username),
		Token:    session.Token,
		IssuedAt: session.IssuedAt,
	}
}
