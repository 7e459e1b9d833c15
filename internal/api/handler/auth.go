package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/parley-chat/parley/internal/api/apierr"
	"github.com/parley-chat/parley/internal/api/request"
	"github.com/parley-chat/parley/internal/api/response"
	"github.com/parley-chat/parley/internal/model"
	"github.com/parley-chat/parley/internal/services/credential"
	"github.com/parley-chat/parley/internal/services/token"
)

// AuthHandler handles account registration and login
type AuthHandler struct {
	credentials *credential.Service
	authority   *token.Authority
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(credentials *credential.Service, authority *token.Authority) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		authority:   authority,
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Username == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("password is required"))
		return
	}

	account, err := h.credentials.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.RegisterResponseFromAccount(account))
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Username == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("password is required"))
		return
	}

	account, err := h.credentials.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		// The response is the same whether the username is unknown or the
		// password is wrong.
		if errors.Is(err, model.ErrUnknownUsername) || errors.Is(err, model.ErrInvalidPassword) {
			apierr.WriteError(w, apierr.NewInvalidCredentialsError())
			return
		}
		apierr.WriteError(w, err)
		return
	}

	session := h.authority.Issue(account)
	response.JSON(w, http.StatusOK, response.LoginResponseFromSession(session))
}
